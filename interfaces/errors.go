package interfaces

import "errors"

var (
	// ErrDuplicateEntry is returned when creating an entry whose composite
	// key is already present in a ledger.
	ErrDuplicateEntry = errors.New("entry already exists")

	// ErrNotFound is returned when looking up or removing an entry whose
	// composite key is absent from a ledger.
	ErrNotFound = errors.New("entry not found")

	// ErrNotNodeManager is returned when a mutation is attempted by a
	// caller that is not the registered manager of the entry's node.
	ErrNotNodeManager = errors.New("caller is not the manager of this node")

	// ErrNotOwner is returned when an owner-only operation is attempted by
	// another caller.
	ErrNotOwner = errors.New("caller is not the registry owner")

	// ErrNotTokenOwner is returned when a token transfer is attempted by a
	// caller that does not own the token.
	ErrNotTokenOwner = errors.New("caller does not own this token")
)
