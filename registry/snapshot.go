package registry

import (
	"encoding/json"
	"fmt"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// snapshotVersion guards against loading snapshots from an incompatible
// layout.
const snapshotVersion = 1

type managerBinding struct {
	NodeID  interfaces.NodeID  `json:"node_id"`
	Manager interfaces.Address `json:"manager"`
}

// snapshotState is the serialized form of the full ledger state. Slices
// preserve key-array order so restore is byte-faithful for enumeration.
type snapshotState struct {
	Version     int                          `json:"version"`
	Owner       interfaces.Address           `json:"owner"`
	Managers    []managerBinding             `json:"managers"`
	Devices     []interfaces.Device          `json:"devices"`
	Services    []interfaces.Service         `json:"services"`
	Commitments []interfaces.Commitment      `json:"commitments"`
	Proofs      []interfaces.ZKPEntry        `json:"proofs"`
	Identities  []interfaces.IdentityBinding `json:"identities"`
	Tokens      []interfaces.DeviceToken     `json:"tokens"`
	Seq         uint64                       `json:"seq"`
	Events      []interfaces.Event           `json:"events"`
}

// Snapshot serializes the full ledger state, including the event log, to
// JSON.
func (r *Registry) Snapshot() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := snapshotState{
		Version:     snapshotVersion,
		Owner:       r.owner,
		Managers:    make([]managerBinding, 0, len(r.nodeIDs)),
		Devices:     make([]interfaces.Device, 0, len(r.deviceKeys)),
		Services:    make([]interfaces.Service, 0, len(r.serviceKeys)),
		Commitments: make([]interfaces.Commitment, 0, len(r.commitmentKeys)),
		Proofs:      r.proofs,
		Identities:  make([]interfaces.IdentityBinding, 0, len(r.identityKeys)),
		Tokens:      make([]interfaces.DeviceToken, 0, len(r.tokenIDs)),
		Seq:         r.seq,
		Events:      r.events,
	}

	for _, nodeID := range r.nodeIDs {
		state.Managers = append(state.Managers, managerBinding{NodeID: nodeID, Manager: r.managers[nodeID]})
	}
	for _, key := range r.deviceKeys {
		state.Devices = append(state.Devices, r.devices[key])
	}
	for _, key := range r.serviceKeys {
		state.Services = append(state.Services, r.services[key])
	}
	for _, key := range r.commitmentKeys {
		state.Commitments = append(state.Commitments, r.commitments[key])
	}
	for _, key := range r.identityKeys {
		state.Identities = append(state.Identities, r.identities[key])
	}
	for _, id := range r.tokenIDs {
		state.Tokens = append(state.Tokens, r.tokens[id])
	}

	return json.Marshal(state)
}

// Restore replaces the full ledger state with a previously taken snapshot.
// Owner only. The restore itself is recorded on the restored event log.
func (r *Registry) Restore(caller interfaces.Address, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireOwner(caller); err != nil {
		return err
	}

	var state snapshotState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("malformed snapshot: %w", err)
	}
	if state.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", state.Version)
	}
	if uint64(len(state.Events)) != state.Seq {
		return fmt.Errorf("snapshot event log truncated: %d events for seq %d", len(state.Events), state.Seq)
	}

	r.owner = state.Owner

	r.managers = make(map[interfaces.NodeID]interfaces.Address, len(state.Managers))
	r.managerNodes = make(map[interfaces.Address]interfaces.NodeID, len(state.Managers))
	r.nodeIDs = r.nodeIDs[:0]
	for _, binding := range state.Managers {
		r.managers[binding.NodeID] = binding.Manager
		r.managerNodes[binding.Manager] = binding.NodeID
		r.nodeIDs = append(r.nodeIDs, binding.NodeID)
	}

	r.devices = make(map[string]interfaces.Device, len(state.Devices))
	r.deviceKeys = r.deviceKeys[:0]
	for _, device := range state.Devices {
		key := device.Key()
		r.devices[key] = device
		r.deviceKeys = append(r.deviceKeys, key)
	}

	r.services = make(map[string]interfaces.Service, len(state.Services))
	r.serviceKeys = r.serviceKeys[:0]
	for _, service := range state.Services {
		key := service.Key()
		r.services[key] = service
		r.serviceKeys = append(r.serviceKeys, key)
	}

	r.commitments = make(map[string]interfaces.Commitment, len(state.Commitments))
	r.commitmentKeys = r.commitmentKeys[:0]
	for _, commitment := range state.Commitments {
		key := commitment.Key()
		r.commitments[key] = commitment
		r.commitmentKeys = append(r.commitmentKeys, key)
	}

	r.proofs = state.Proofs

	r.identities = make(map[string]interfaces.IdentityBinding, len(state.Identities))
	r.identityKeys = r.identityKeys[:0]
	for _, binding := range state.Identities {
		key := binding.Key()
		r.identities[key] = binding
		r.identityKeys = append(r.identityKeys, key)
	}

	r.tokens = make(map[interfaces.Hash32]interfaces.DeviceToken, len(state.Tokens))
	r.tokenIDs = r.tokenIDs[:0]
	for _, token := range state.Tokens {
		r.tokens[token.TokenID] = token
		r.tokenIDs = append(r.tokenIDs, token.TokenID)
	}

	r.seq = state.Seq
	r.events = state.Events

	r.emit("registry.restore", "", caller)
	return nil
}
