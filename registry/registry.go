// Package registry implements the FidesInnova registry ledgers: node
// managers, devices, services, commitments, the append-only proof log,
// identity bindings, and device tokens.
//
// Every ledger is a sparse key-to-record map paired with a dense key array
// for enumeration; removal scans the array and swap-pops the match. All
// mutations run under one mutex, are stamped with a strictly increasing
// sequence number, and append an entry to the ordered public event log.
package registry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/metrics"
)

// Registry holds the full ledger state. It implements
// interfaces.RegistryLedger.
type Registry struct {
	mu    sync.Mutex
	owner interfaces.Address

	managers     map[interfaces.NodeID]interfaces.Address
	managerNodes map[interfaces.Address]interfaces.NodeID
	nodeIDs      []interfaces.NodeID

	devices    map[string]interfaces.Device
	deviceKeys []string

	services    map[string]interfaces.Service
	serviceKeys []string

	commitments    map[string]interfaces.Commitment
	commitmentKeys []string

	proofs []interfaces.ZKPEntry

	identities   map[string]interfaces.IdentityBinding
	identityKeys []string

	tokens   map[interfaces.Hash32]interfaces.DeviceToken
	tokenIDs []interfaces.Hash32

	seq    uint64
	events []interfaces.Event

	now func() int64
	log *slog.Logger
}

// New creates an empty registry owned by the given address.
func New(owner interfaces.Address, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}

	return &Registry{
		owner:        owner,
		managers:     make(map[interfaces.NodeID]interfaces.Address),
		managerNodes: make(map[interfaces.Address]interfaces.NodeID),
		devices:      make(map[string]interfaces.Device),
		services:     make(map[string]interfaces.Service),
		commitments:  make(map[string]interfaces.Commitment),
		identities:   make(map[string]interfaces.IdentityBinding),
		tokens:       make(map[interfaces.Hash32]interfaces.DeviceToken),
		now:          func() int64 { return time.Now().Unix() },
		log:          log,
	}
}

// Owner returns the registry owner address.
func (r *Registry) Owner() interfaces.Address {
	return r.owner
}

// emit appends an event to the log. Callers must hold r.mu.
func (r *Registry) emit(name, key string, actor interfaces.Address) {
	r.seq++
	r.events = append(r.events, interfaces.Event{
		Seq:   r.seq,
		Name:  name,
		Key:   key,
		Actor: actor,
		Unix:  r.now(),
	})

	metrics.IncLedgerEvent(name)
	r.log.Debug("Ledger event",
		slog.Uint64("seq", r.seq),
		slog.String("name", name),
		slog.String("key", key),
		slog.String("actor", actor.String()))
}

// requireOwner checks the caller is the registry owner. Callers must hold r.mu.
func (r *Registry) requireOwner(caller interfaces.Address) error {
	if !caller.Equal(r.owner) {
		return interfaces.ErrNotOwner
	}
	return nil
}

// requireManager checks the caller is the registered manager of the node.
// Callers must hold r.mu.
func (r *Registry) requireManager(caller interfaces.Address, nodeID interfaces.NodeID) error {
	manager, ok := r.managers[nodeID]
	if !ok || !manager.Equal(caller) {
		return interfaces.ErrNotNodeManager
	}
	return nil
}

// EventsSince returns the ordered suffix of the event log with sequence
// numbers strictly greater than seq.
func (r *Registry) EventsSince(seq uint64) []interfaces.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Sequence numbers are gap-free, so the suffix starts at a fixed offset.
	if seq >= r.seq {
		return nil
	}

	suffix := r.events[seq:]
	out := make([]interfaces.Event, len(suffix))
	copy(out, suffix)
	return out
}

// swapPop removes the first occurrence of key from the dense key array by
// swapping in the last element. The array is unordered by construction.
func swapPop[T comparable](keys []T, key T) []T {
	for i, k := range keys {
		if k == key {
			keys[i] = keys[len(keys)-1]
			return keys[:len(keys)-1]
		}
	}
	return keys
}
