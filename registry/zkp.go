package registry

import (
	"errors"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// SubmitProof appends a ZKP entry to the proof log and returns its index.
// The caller must be the node's manager. The log is append-only; there is
// no duplicate guard and no removal operation.
func (r *Registry) SubmitProof(caller interfaces.Address, entry interfaces.ZKPEntry) (uint64, error) {
	if err := entry.NodeID.Validate(); err != nil {
		return 0, err
	}
	if entry.DeviceID == "" {
		return 0, errors.New("empty device id")
	}
	if len(entry.Proof) == 0 && entry.ProofID.IsZero() {
		return 0, errors.New("proof payload missing")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireManager(caller, entry.NodeID); err != nil {
		return 0, err
	}

	entry.Index = uint64(len(r.proofs))
	entry.SubmittedAt = r.now()
	r.proofs = append(r.proofs, entry)

	r.emit("proofs.submit", interfaces.CompositeKey(string(entry.NodeID), entry.DeviceID), caller)
	return entry.Index, nil
}

// Proof returns the log entry at the given index.
func (r *Registry) Proof(index uint64) (interfaces.ZKPEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index >= uint64(len(r.proofs)) {
		return interfaces.ZKPEntry{}, interfaces.ErrNotFound
	}
	return r.proofs[index], nil
}

// ProofCount returns the number of entries in the proof log.
func (r *Registry) ProofCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return uint64(len(r.proofs))
}

// Proofs returns the full proof log in submission order.
func (r *Registry) Proofs() []interfaces.ZKPEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]interfaces.ZKPEntry, len(r.proofs))
	copy(out, r.proofs)
	return out
}
