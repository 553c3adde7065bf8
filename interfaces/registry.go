package interfaces

// RegistryLedger is the full surface of the registry: seven flat keyed
// ledgers behind atomic, serially-ordered mutations, plus the ordered event
// log and snapshot support.
//
// Every mutation takes the caller's recovered address as its first argument
// and authorizes it against the node-manager ledger (or the registry owner
// for owner-only operations).
type RegistryLedger interface {
	// Owner returns the registry owner address.
	Owner() Address

	// Node manager ledger. A node has exactly one manager and a manager
	// serves exactly one node.
	AddNodeManager(caller Address, nodeID NodeID, manager Address) error
	RemoveNodeManager(caller Address, nodeID NodeID) error
	NodeManager(nodeID NodeID) (Address, error)
	ManagerNode(manager Address) (NodeID, error)
	NodeIDs() []NodeID

	// Device ledger, keyed by NodeID/DeviceID.
	CreateDevice(caller Address, device Device) error
	RemoveDevice(caller Address, nodeID NodeID, deviceID string) error
	Device(nodeID NodeID, deviceID string) (Device, error)
	Devices() []Device

	// Service ledger, keyed by NodeID/ServiceID.
	CreateService(caller Address, service Service) error
	RemoveService(caller Address, nodeID NodeID, serviceID string) error
	Service(nodeID NodeID, serviceID string) (Service, error)
	Services() []Service

	// Commitment ledger, keyed by CommitmentID/NodeID. Payload bytes are
	// persisted through artifact storage before the record is stored.
	StoreCommitment(caller Address, commitment Commitment) error
	RemoveCommitment(caller Address, commitmentID string, nodeID NodeID) error
	Commitment(commitmentID string, nodeID NodeID) (Commitment, error)
	Commitments() []Commitment

	// Proof log, append-only. SubmitProof returns the entry index.
	SubmitProof(caller Address, entry ZKPEntry) (uint64, error)
	Proof(index uint64) (ZKPEntry, error)
	ProofCount() uint64
	Proofs() []ZKPEntry

	// Identity bindings, per node.
	BindIdentity(caller Address, nodeID NodeID, identity, owner Address) error
	UnbindIdentity(caller Address, nodeID NodeID, identity Address) error
	IdentityOwner(nodeID NodeID, identity Address) (Address, error)
	OwnerIdentities(nodeID NodeID, owner Address) []Address

	// Device tokens. One token per device; its ID is keccak256 of the
	// device's composite key.
	MintDeviceToken(caller Address, nodeID NodeID, deviceID string, to Address) (Hash32, error)
	TransferDeviceToken(caller Address, tokenID Hash32, to Address) error
	BurnDeviceToken(caller Address, tokenID Hash32) error
	Token(tokenID Hash32) (DeviceToken, error)
	TokenOwner(tokenID Hash32) (Address, error)
	TokensOf(owner Address) []DeviceToken
	Tokens() []DeviceToken

	// EventsSince returns the ordered suffix of the event log with
	// sequence numbers strictly greater than seq.
	EventsSince(seq uint64) []Event

	// Snapshot serializes the full ledger state; Restore loads it.
	// Restore is owner-only.
	Snapshot() ([]byte, error)
	Restore(caller Address, data []byte) error
}
