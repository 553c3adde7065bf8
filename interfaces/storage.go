package interfaces

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/url"
)

// ArtifactID is the SHA-256 content identifier of a stored artifact.
type ArtifactID = Hash32

// ComputeArtifactID calculates the content identifier for a payload.
func ComputeArtifactID(data []byte) ArtifactID {
	return Hash32(sha256.Sum256(data))
}

// ArtifactType indicates the storage namespace of an artifact.
type ArtifactType int

const (
	// CommitmentArtifact for manufacturer commitment payloads.
	CommitmentArtifact ArtifactType = iota
	// ProofArtifact for offloaded ZKP payloads.
	ProofArtifact
	// ProgramArtifact for service programs.
	ProgramArtifact
	// SnapshotArtifact for registry state snapshots.
	SnapshotArtifact
)

// String returns the namespace name.
func (t ArtifactType) String() string {
	switch t {
	case CommitmentArtifact:
		return "commitment"
	case ProofArtifact:
		return "proof"
	case ProgramArtifact:
		return "program"
	case SnapshotArtifact:
		return "snapshot"
	default:
		return "unknown"
	}
}

// StorageLocation is a storage backend URI of the form
// [scheme]://[auth@]host[:port][/path][?params].
type StorageLocation string

// Validate checks the URI is parseable and its scheme supported.
func (loc StorageLocation) Validate() error {
	u, err := url.Parse(string(loc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}
	switch u.Scheme {
	case "file", "s3", "ipfs", "vault":
		return nil
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocationURI, u.Scheme)
	}
}

// String returns the URI.
func (loc StorageLocation) String() string {
	return string(loc)
}

var (
	// ErrArtifactNotFound is returned when the requested artifact cannot be
	// found in a storage backend.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrBackendUnavailable is returned when a storage backend is not
	// accessible. This could be due to network issues, authentication
	// failures, or service outages.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a storage location URI is
	// malformed or names an unsupported scheme.
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// StorageBackend provides content-addressed artifact storage.
type StorageBackend interface {
	// Fetch retrieves an artifact by content ID and type.
	Fetch(ctx context.Context, id ArtifactID, artifactType ArtifactType) ([]byte, error)

	// Store saves an artifact and returns its content ID.
	Store(ctx context.Context, data []byte, artifactType ArtifactType) (ArtifactID, error)

	// Available checks if the backend is accessible.
	Available(ctx context.Context) bool

	// Name returns an identifier for logging.
	Name() string

	// LocationURI returns the URI identifying this backend.
	LocationURI() string
}

// StorageBackendFactory creates storage backends from location URIs.
type StorageBackendFactory interface {
	// StorageBackendFor creates a backend from a URI.
	// Supports file://, s3://, ipfs://, vault://
	StorageBackendFor(location StorageLocation) (StorageBackend, error)

	// CreateMultiBackend creates an aggregated storage backend that stores
	// to every available backend and fetches from the first that has the
	// content.
	CreateMultiBackend(locations []StorageLocation) (StorageBackend, error)
}
