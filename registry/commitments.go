package registry

import (
	"errors"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// StoreCommitment records a manufacturer commitment. The caller must be the
// node's manager; the composite key must be free. The payload itself is
// expected to already sit in artifact storage under commitment.PayloadID.
func (r *Registry) StoreCommitment(caller interfaces.Address, commitment interfaces.Commitment) error {
	if err := commitment.NodeID.Validate(); err != nil {
		return err
	}
	if commitment.CommitmentID == "" {
		return errors.New("empty commitment id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireManager(caller, commitment.NodeID); err != nil {
		return err
	}

	key := commitment.Key()
	if _, exists := r.commitments[key]; exists {
		return interfaces.ErrDuplicateEntry
	}

	if commitment.StoredAt == 0 {
		commitment.StoredAt = r.now()
	}

	r.commitments[key] = commitment
	r.commitmentKeys = append(r.commitmentKeys, key)

	r.emit("commitments.store", key, caller)
	return nil
}

// RemoveCommitment deletes a commitment. The caller must be the node's
// manager. The stored payload remains in artifact storage; only the ledger
// entry is removed.
func (r *Registry) RemoveCommitment(caller interfaces.Address, commitmentID string, nodeID interfaces.NodeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireManager(caller, nodeID); err != nil {
		return err
	}

	key := interfaces.CompositeKey(commitmentID, string(nodeID))
	if _, exists := r.commitments[key]; !exists {
		return interfaces.ErrNotFound
	}

	delete(r.commitments, key)
	r.commitmentKeys = swapPop(r.commitmentKeys, key)

	r.emit("commitments.remove", key, caller)
	return nil
}

// Commitment looks up a commitment by commitment and node identifier.
func (r *Registry) Commitment(commitmentID string, nodeID interfaces.NodeID) (interfaces.Commitment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	commitment, exists := r.commitments[interfaces.CompositeKey(commitmentID, string(nodeID))]
	if !exists {
		return interfaces.Commitment{}, interfaces.ErrNotFound
	}
	return commitment, nil
}

// Commitments enumerates all commitments in key-array order.
func (r *Registry) Commitments() []interfaces.Commitment {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]interfaces.Commitment, 0, len(r.commitmentKeys))
	for _, key := range r.commitmentKeys {
		out = append(out, r.commitments[key])
	}
	return out
}
