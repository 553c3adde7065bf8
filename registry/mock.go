package registry

import (
	"github.com/stretchr/testify/mock"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// MockLedger mocks the interfaces.RegistryLedger interface.
type MockLedger struct {
	mock.Mock
}

// Owner mocks the Owner method
func (m *MockLedger) Owner() interfaces.Address {
	args := m.Called()
	return args.Get(0).(interfaces.Address)
}

// AddNodeManager mocks the AddNodeManager method
func (m *MockLedger) AddNodeManager(caller interfaces.Address, nodeID interfaces.NodeID, manager interfaces.Address) error {
	args := m.Called(caller, nodeID, manager)
	return args.Error(0)
}

// RemoveNodeManager mocks the RemoveNodeManager method
func (m *MockLedger) RemoveNodeManager(caller interfaces.Address, nodeID interfaces.NodeID) error {
	args := m.Called(caller, nodeID)
	return args.Error(0)
}

// NodeManager mocks the NodeManager method
func (m *MockLedger) NodeManager(nodeID interfaces.NodeID) (interfaces.Address, error) {
	args := m.Called(nodeID)
	return args.Get(0).(interfaces.Address), args.Error(1)
}

// ManagerNode mocks the ManagerNode method
func (m *MockLedger) ManagerNode(manager interfaces.Address) (interfaces.NodeID, error) {
	args := m.Called(manager)
	return args.Get(0).(interfaces.NodeID), args.Error(1)
}

// NodeIDs mocks the NodeIDs method
func (m *MockLedger) NodeIDs() []interfaces.NodeID {
	args := m.Called()
	return args.Get(0).([]interfaces.NodeID)
}

// CreateDevice mocks the CreateDevice method
func (m *MockLedger) CreateDevice(caller interfaces.Address, device interfaces.Device) error {
	args := m.Called(caller, device)
	return args.Error(0)
}

// RemoveDevice mocks the RemoveDevice method
func (m *MockLedger) RemoveDevice(caller interfaces.Address, nodeID interfaces.NodeID, deviceID string) error {
	args := m.Called(caller, nodeID, deviceID)
	return args.Error(0)
}

// Device mocks the Device method
func (m *MockLedger) Device(nodeID interfaces.NodeID, deviceID string) (interfaces.Device, error) {
	args := m.Called(nodeID, deviceID)
	return args.Get(0).(interfaces.Device), args.Error(1)
}

// Devices mocks the Devices method
func (m *MockLedger) Devices() []interfaces.Device {
	args := m.Called()
	return args.Get(0).([]interfaces.Device)
}

// CreateService mocks the CreateService method
func (m *MockLedger) CreateService(caller interfaces.Address, service interfaces.Service) error {
	args := m.Called(caller, service)
	return args.Error(0)
}

// RemoveService mocks the RemoveService method
func (m *MockLedger) RemoveService(caller interfaces.Address, nodeID interfaces.NodeID, serviceID string) error {
	args := m.Called(caller, nodeID, serviceID)
	return args.Error(0)
}

// Service mocks the Service method
func (m *MockLedger) Service(nodeID interfaces.NodeID, serviceID string) (interfaces.Service, error) {
	args := m.Called(nodeID, serviceID)
	return args.Get(0).(interfaces.Service), args.Error(1)
}

// Services mocks the Services method
func (m *MockLedger) Services() []interfaces.Service {
	args := m.Called()
	return args.Get(0).([]interfaces.Service)
}

// StoreCommitment mocks the StoreCommitment method
func (m *MockLedger) StoreCommitment(caller interfaces.Address, commitment interfaces.Commitment) error {
	args := m.Called(caller, commitment)
	return args.Error(0)
}

// RemoveCommitment mocks the RemoveCommitment method
func (m *MockLedger) RemoveCommitment(caller interfaces.Address, commitmentID string, nodeID interfaces.NodeID) error {
	args := m.Called(caller, commitmentID, nodeID)
	return args.Error(0)
}

// Commitment mocks the Commitment method
func (m *MockLedger) Commitment(commitmentID string, nodeID interfaces.NodeID) (interfaces.Commitment, error) {
	args := m.Called(commitmentID, nodeID)
	return args.Get(0).(interfaces.Commitment), args.Error(1)
}

// Commitments mocks the Commitments method
func (m *MockLedger) Commitments() []interfaces.Commitment {
	args := m.Called()
	return args.Get(0).([]interfaces.Commitment)
}

// SubmitProof mocks the SubmitProof method
func (m *MockLedger) SubmitProof(caller interfaces.Address, entry interfaces.ZKPEntry) (uint64, error) {
	args := m.Called(caller, entry)
	return args.Get(0).(uint64), args.Error(1)
}

// Proof mocks the Proof method
func (m *MockLedger) Proof(index uint64) (interfaces.ZKPEntry, error) {
	args := m.Called(index)
	return args.Get(0).(interfaces.ZKPEntry), args.Error(1)
}

// ProofCount mocks the ProofCount method
func (m *MockLedger) ProofCount() uint64 {
	args := m.Called()
	return args.Get(0).(uint64)
}

// Proofs mocks the Proofs method
func (m *MockLedger) Proofs() []interfaces.ZKPEntry {
	args := m.Called()
	return args.Get(0).([]interfaces.ZKPEntry)
}

// BindIdentity mocks the BindIdentity method
func (m *MockLedger) BindIdentity(caller interfaces.Address, nodeID interfaces.NodeID, identity, owner interfaces.Address) error {
	args := m.Called(caller, nodeID, identity, owner)
	return args.Error(0)
}

// UnbindIdentity mocks the UnbindIdentity method
func (m *MockLedger) UnbindIdentity(caller interfaces.Address, nodeID interfaces.NodeID, identity interfaces.Address) error {
	args := m.Called(caller, nodeID, identity)
	return args.Error(0)
}

// IdentityOwner mocks the IdentityOwner method
func (m *MockLedger) IdentityOwner(nodeID interfaces.NodeID, identity interfaces.Address) (interfaces.Address, error) {
	args := m.Called(nodeID, identity)
	return args.Get(0).(interfaces.Address), args.Error(1)
}

// OwnerIdentities mocks the OwnerIdentities method
func (m *MockLedger) OwnerIdentities(nodeID interfaces.NodeID, owner interfaces.Address) []interfaces.Address {
	args := m.Called(nodeID, owner)
	return args.Get(0).([]interfaces.Address)
}

// MintDeviceToken mocks the MintDeviceToken method
func (m *MockLedger) MintDeviceToken(caller interfaces.Address, nodeID interfaces.NodeID, deviceID string, to interfaces.Address) (interfaces.Hash32, error) {
	args := m.Called(caller, nodeID, deviceID, to)
	return args.Get(0).(interfaces.Hash32), args.Error(1)
}

// TransferDeviceToken mocks the TransferDeviceToken method
func (m *MockLedger) TransferDeviceToken(caller interfaces.Address, tokenID interfaces.Hash32, to interfaces.Address) error {
	args := m.Called(caller, tokenID, to)
	return args.Error(0)
}

// BurnDeviceToken mocks the BurnDeviceToken method
func (m *MockLedger) BurnDeviceToken(caller interfaces.Address, tokenID interfaces.Hash32) error {
	args := m.Called(caller, tokenID)
	return args.Error(0)
}

// Token mocks the Token method
func (m *MockLedger) Token(tokenID interfaces.Hash32) (interfaces.DeviceToken, error) {
	args := m.Called(tokenID)
	return args.Get(0).(interfaces.DeviceToken), args.Error(1)
}

// TokenOwner mocks the TokenOwner method
func (m *MockLedger) TokenOwner(tokenID interfaces.Hash32) (interfaces.Address, error) {
	args := m.Called(tokenID)
	return args.Get(0).(interfaces.Address), args.Error(1)
}

// TokensOf mocks the TokensOf method
func (m *MockLedger) TokensOf(owner interfaces.Address) []interfaces.DeviceToken {
	args := m.Called(owner)
	return args.Get(0).([]interfaces.DeviceToken)
}

// Tokens mocks the Tokens method
func (m *MockLedger) Tokens() []interfaces.DeviceToken {
	args := m.Called()
	return args.Get(0).([]interfaces.DeviceToken)
}

// EventsSince mocks the EventsSince method
func (m *MockLedger) EventsSince(seq uint64) []interfaces.Event {
	args := m.Called(seq)
	return args.Get(0).([]interfaces.Event)
}

// Snapshot mocks the Snapshot method
func (m *MockLedger) Snapshot() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

// Restore mocks the Restore method
func (m *MockLedger) Restore(caller interfaces.Address, data []byte) error {
	args := m.Called(caller, data)
	return args.Error(0)
}
