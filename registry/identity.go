package registry

import (
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// BindIdentity associates a device identity address with an ownership
// address under a node. The caller must be the node's manager. Rebinding a
// bound identity requires unbinding first.
func (r *Registry) BindIdentity(caller interfaces.Address, nodeID interfaces.NodeID, identity, owner interfaces.Address) error {
	if err := nodeID.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireManager(caller, nodeID); err != nil {
		return err
	}

	binding := interfaces.IdentityBinding{
		NodeID:   nodeID,
		Identity: identity,
		Owner:    owner,
		BoundAt:  r.now(),
	}

	key := binding.Key()
	if _, exists := r.identities[key]; exists {
		return interfaces.ErrDuplicateEntry
	}

	r.identities[key] = binding
	r.identityKeys = append(r.identityKeys, key)

	r.emit("identities.bind", key, caller)
	return nil
}

// UnbindIdentity removes an identity binding. The caller must be the node's
// manager.
func (r *Registry) UnbindIdentity(caller interfaces.Address, nodeID interfaces.NodeID, identity interfaces.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireManager(caller, nodeID); err != nil {
		return err
	}

	key := interfaces.CompositeKey(string(nodeID), identity.String())
	if _, exists := r.identities[key]; !exists {
		return interfaces.ErrNotFound
	}

	delete(r.identities, key)
	r.identityKeys = swapPop(r.identityKeys, key)

	r.emit("identities.unbind", key, caller)
	return nil
}

// IdentityOwner returns the ownership address bound to an identity under a
// node.
func (r *Registry) IdentityOwner(nodeID interfaces.NodeID, identity interfaces.Address) (interfaces.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	binding, exists := r.identities[interfaces.CompositeKey(string(nodeID), identity.String())]
	if !exists {
		return interfaces.Address{}, interfaces.ErrNotFound
	}
	return binding.Owner, nil
}

// OwnerIdentities enumerates the identities bound to an ownership address
// under a node, in key-array order.
func (r *Registry) OwnerIdentities(nodeID interfaces.NodeID, owner interfaces.Address) []interfaces.Address {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []interfaces.Address
	for _, key := range r.identityKeys {
		binding := r.identities[key]
		if binding.NodeID == nodeID && binding.Owner.Equal(owner) {
			out = append(out, binding.Identity)
		}
	}
	return out
}
