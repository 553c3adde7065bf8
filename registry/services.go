package registry

import (
	"errors"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// CreateService registers a service under its node. The caller must be the
// node's manager; the composite key must be free.
func (r *Registry) CreateService(caller interfaces.Address, service interfaces.Service) error {
	if err := service.NodeID.Validate(); err != nil {
		return err
	}
	if service.ServiceID == "" {
		return errors.New("empty service id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireManager(caller, service.NodeID); err != nil {
		return err
	}

	key := service.Key()
	if _, exists := r.services[key]; exists {
		return interfaces.ErrDuplicateEntry
	}

	r.services[key] = service
	r.serviceKeys = append(r.serviceKeys, key)

	r.emit("services.create", key, caller)
	return nil
}

// RemoveService deletes a service. The caller must be the node's manager.
func (r *Registry) RemoveService(caller interfaces.Address, nodeID interfaces.NodeID, serviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireManager(caller, nodeID); err != nil {
		return err
	}

	key := interfaces.CompositeKey(string(nodeID), serviceID)
	if _, exists := r.services[key]; !exists {
		return interfaces.ErrNotFound
	}

	delete(r.services, key)
	r.serviceKeys = swapPop(r.serviceKeys, key)

	r.emit("services.remove", key, caller)
	return nil
}

// Service looks up a service by node and service identifier.
func (r *Registry) Service(nodeID interfaces.NodeID, serviceID string) (interfaces.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	service, exists := r.services[interfaces.CompositeKey(string(nodeID), serviceID)]
	if !exists {
		return interfaces.Service{}, interfaces.ErrNotFound
	}
	return service, nil
}

// Services enumerates all registered services in key-array order.
func (r *Registry) Services() []interfaces.Service {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]interfaces.Service, 0, len(r.serviceKeys))
	for _, key := range r.serviceKeys {
		out = append(out, r.services[key])
	}
	return out
}
