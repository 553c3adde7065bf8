package interfaces

// Device describes an IoT device registered under a node. The ledger key is
// NodeID/DeviceID.
type Device struct {
	NodeID           NodeID   `json:"node_id"`
	DeviceID         string   `json:"device_id"`
	OwnerID          string   `json:"owner_id"`
	Name             string   `json:"name"`
	DeviceType       string   `json:"device_type"`
	DeviceIDType     string   `json:"device_id_type"`
	DeviceModel      string   `json:"device_model"`
	Manufacturer     string   `json:"manufacturer"`
	Parameters       []string `json:"parameters,omitempty"`
	UseCost          string   `json:"use_cost"`
	LocationGPS      string   `json:"location_gps"`
	InstallationDate string   `json:"installation_date"`

	// SealedParameters holds confidential device parameters encrypted to
	// the device owner's public key. Optional.
	SealedParameters []byte `json:"sealed_parameters,omitempty"`
}

// Key returns the composite ledger key for the device.
func (d Device) Key() string {
	return CompositeKey(string(d.NodeID), d.DeviceID)
}

// Service describes a service program offered on a node. The ledger key is
// NodeID/ServiceID.
type Service struct {
	NodeID            NodeID   `json:"node_id"`
	ServiceID         string   `json:"service_id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	ServiceType       string   `json:"service_type"`
	Devices           []string `json:"devices,omitempty"`
	InstallationPrice string   `json:"installation_price"`
	ExecutionPrice    string   `json:"execution_price"`
	ImageURL          string   `json:"image_url"`
	ProgramID         Hash32   `json:"program_id,omitempty"`
	CreationDate      string   `json:"creation_date"`
	PublishedDate     string   `json:"published_date"`
}

// Key returns the composite ledger key for the service.
func (s Service) Key() string {
	return CompositeKey(string(s.NodeID), s.ServiceID)
}

// Commitment records a manufacturer's cryptographic commitment to a device
// firmware. The payload itself lives in artifact storage; the ledger keeps
// its content ID and keccak256 digest. The ledger key is CommitmentID/NodeID.
type Commitment struct {
	CommitmentID    string `json:"commitment_id"`
	NodeID          NodeID `json:"node_id"`
	Manufacturer    string `json:"manufacturer"`
	DeviceType      string `json:"device_type"`
	DeviceIDType    string `json:"device_id_type"`
	DeviceModel     string `json:"device_model"`
	SoftwareVersion string `json:"software_version"`
	PayloadID       Hash32 `json:"payload_id"`
	Digest          Hash32 `json:"digest"`
	StoredAt        int64  `json:"stored_at"`
}

// Key returns the composite ledger key for the commitment.
func (c Commitment) Key() string {
	return CompositeKey(c.CommitmentID, string(c.NodeID))
}

// ZKPEntry is one element of the append-only proof log. Entries are
// identified by their index; there is no removal operation.
type ZKPEntry struct {
	NodeID          NodeID `json:"node_id"`
	DeviceID        string `json:"device_id"`
	DeviceType      string `json:"device_type"`
	HardwareVersion string `json:"hardware_version"`
	FirmwareVersion string `json:"firmware_version"`
	DataPayload     string `json:"data_payload"`
	UnixtimePayload int64  `json:"unixtime_payload"`

	// Proof holds the raw proof bytes when submitted inline. When the
	// payload is offloaded to artifact storage, ProofID refers to it and
	// Proof is empty.
	Proof   []byte `json:"proof,omitempty"`
	ProofID Hash32 `json:"proof_id,omitempty"`

	Index       uint64 `json:"index"`
	SubmittedAt int64  `json:"submitted_at"`
}

// IdentityBinding associates a device identity address with an ownership
// address under a node.
type IdentityBinding struct {
	NodeID   NodeID  `json:"node_id"`
	Identity Address `json:"identity"`
	Owner    Address `json:"owner"`
	BoundAt  int64   `json:"bound_at"`
}

// Key returns the composite ledger key for the binding.
func (b IdentityBinding) Key() string {
	return CompositeKey(string(b.NodeID), b.Identity.String())
}

// DeviceToken is the ownership token minted for a registered device.
// TokenID is keccak256 of the device's composite key, so a device has at
// most one token.
type DeviceToken struct {
	TokenID  Hash32  `json:"token_id"`
	NodeID   NodeID  `json:"node_id"`
	DeviceID string  `json:"device_id"`
	Owner    Address `json:"owner"`
	MintedAt int64   `json:"minted_at"`
}

// Event is one entry of the ordered public mutation log. Seq is strictly
// increasing and gap-free within a registry.
type Event struct {
	Seq   uint64  `json:"seq"`
	Name  string  `json:"name"`
	Key   string  `json:"key"`
	Actor Address `json:"actor"`
	Unix  int64   `json:"unix"`
}
