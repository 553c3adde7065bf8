package registry

import (
	"errors"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// CreateDevice registers a device under its node. The caller must be the
// node's manager; the composite key must be free.
func (r *Registry) CreateDevice(caller interfaces.Address, device interfaces.Device) error {
	if err := device.NodeID.Validate(); err != nil {
		return err
	}
	if device.DeviceID == "" {
		return errors.New("empty device id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireManager(caller, device.NodeID); err != nil {
		return err
	}

	key := device.Key()
	if _, exists := r.devices[key]; exists {
		return interfaces.ErrDuplicateEntry
	}

	r.devices[key] = device
	r.deviceKeys = append(r.deviceKeys, key)

	r.emit("devices.create", key, caller)
	return nil
}

// RemoveDevice deletes a device. The caller must be the node's manager.
// The device's token, if minted, is burned with it so no token outlives its
// device.
func (r *Registry) RemoveDevice(caller interfaces.Address, nodeID interfaces.NodeID, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireManager(caller, nodeID); err != nil {
		return err
	}

	key := interfaces.CompositeKey(string(nodeID), deviceID)
	if _, exists := r.devices[key]; !exists {
		return interfaces.ErrNotFound
	}

	delete(r.devices, key)
	r.deviceKeys = swapPop(r.deviceKeys, key)
	r.emit("devices.remove", key, caller)

	tokenID := DeviceTokenID(nodeID, deviceID)
	if _, minted := r.tokens[tokenID]; minted {
		delete(r.tokens, tokenID)
		r.tokenIDs = swapPop(r.tokenIDs, tokenID)
		r.emit("tokens.burn", tokenID.String(), caller)
	}

	return nil
}

// Device looks up a device by node and device identifier.
func (r *Registry) Device(nodeID interfaces.NodeID, deviceID string) (interfaces.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, exists := r.devices[interfaces.CompositeKey(string(nodeID), deviceID)]
	if !exists {
		return interfaces.Device{}, interfaces.ErrNotFound
	}
	return device, nil
}

// Devices enumerates all registered devices in key-array order.
func (r *Registry) Devices() []interfaces.Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]interfaces.Device, 0, len(r.deviceKeys))
	for _, key := range r.deviceKeys {
		out = append(out, r.devices[key])
	}
	return out
}

// DeviceTokenID derives the token identifier for a device:
// keccak256 of the device's composite key.
func DeviceTokenID(nodeID interfaces.NodeID, deviceID string) interfaces.Hash32 {
	var id interfaces.Hash32
	copy(id[:], crypto.Keccak256([]byte(interfaces.CompositeKey(string(nodeID), deviceID))))
	return id
}
