package registry

import (
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// AddNodeManager binds a manager address to a node. Owner only. A node has
// exactly one manager and a manager serves exactly one node.
func (r *Registry) AddNodeManager(caller interfaces.Address, nodeID interfaces.NodeID, manager interfaces.Address) error {
	if err := nodeID.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireOwner(caller); err != nil {
		return err
	}

	if _, exists := r.managers[nodeID]; exists {
		return interfaces.ErrDuplicateEntry
	}
	if _, exists := r.managerNodes[manager]; exists {
		return interfaces.ErrDuplicateEntry
	}

	r.managers[nodeID] = manager
	r.managerNodes[manager] = nodeID
	r.nodeIDs = append(r.nodeIDs, nodeID)

	r.emit("managers.add", string(nodeID), caller)
	return nil
}

// RemoveNodeManager unbinds the manager of a node. Owner only.
func (r *Registry) RemoveNodeManager(caller interfaces.Address, nodeID interfaces.NodeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireOwner(caller); err != nil {
		return err
	}

	manager, exists := r.managers[nodeID]
	if !exists {
		return interfaces.ErrNotFound
	}

	delete(r.managers, nodeID)
	delete(r.managerNodes, manager)
	r.nodeIDs = swapPop(r.nodeIDs, nodeID)

	r.emit("managers.remove", string(nodeID), caller)
	return nil
}

// NodeManager returns the manager bound to a node.
func (r *Registry) NodeManager(nodeID interfaces.NodeID) (interfaces.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	manager, exists := r.managers[nodeID]
	if !exists {
		return interfaces.Address{}, interfaces.ErrNotFound
	}
	return manager, nil
}

// ManagerNode returns the node a manager is bound to.
func (r *Registry) ManagerNode(manager interfaces.Address) (interfaces.NodeID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	nodeID, exists := r.managerNodes[manager]
	if !exists {
		return "", interfaces.ErrNotFound
	}
	return nodeID, nil
}

// NodeIDs enumerates all nodes with a bound manager.
func (r *Registry) NodeIDs() []interfaces.NodeID {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]interfaces.NodeID, len(r.nodeIDs))
	copy(out, r.nodeIDs)
	return out
}
