// Package api defines the JSON request and response types of the registry
// HTTP API, shared between the server handlers and the Go client.
package api

import (
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// Header names used by authenticated requests.
const (
	// SignatureHeader carries the hex-encoded 65-byte secp256k1 signature
	// over the request digest.
	SignatureHeader = "X-Fides-Signature"

	// SignedAtHeader carries the unix timestamp the request was signed at.
	// It is part of the signed message.
	SignedAtHeader = "X-Fides-Signed-At"
)

// Operation names of the authenticated mutations. They double as the
// ledger event names and as the method component of the request digest.
const (
	OpManagersAdd       = "managers.add"
	OpManagersRemove    = "managers.remove"
	OpDevicesCreate     = "devices.create"
	OpDevicesRemove     = "devices.remove"
	OpServicesCreate    = "services.create"
	OpServicesRemove    = "services.remove"
	OpCommitmentsStore  = "commitments.store"
	OpCommitmentsRemove = "commitments.remove"
	OpProofsSubmit      = "proofs.submit"
	OpIdentitiesBind    = "identities.bind"
	OpIdentitiesUnbind  = "identities.unbind"
	OpTokensMint        = "tokens.mint"
	OpTokensTransfer    = "tokens.transfer"
	OpTokensBurn        = "tokens.burn"
	OpSnapshotStore     = "registry.snapshot"
	OpSnapshotRestore   = "registry.restore"
)

// ErrorResponse is the JSON body of error replies.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ManagerBinding describes one node-to-manager binding.
type ManagerBinding struct {
	NodeID  interfaces.NodeID  `json:"node_id"`
	Manager interfaces.Address `json:"manager"`
}

// AddManagerRequest binds a manager address to a node. Owner only.
type AddManagerRequest struct {
	NodeID  interfaces.NodeID  `json:"node_id"`
	Manager interfaces.Address `json:"manager"`
}

// CreateServiceRequest registers a service, optionally together with its
// executable program. The program is persisted to artifact storage; the
// ledger records its content ID.
type CreateServiceRequest struct {
	Service interfaces.Service `json:"service"`
	Program []byte             `json:"program,omitempty"`
}

// CreateServiceResponse returns the stored record with ProgramID filled in
// when a program was uploaded.
type CreateServiceResponse struct {
	Service interfaces.Service `json:"service"`
}

// StoreCommitmentRequest stores a commitment record together with its
// payload. The payload is persisted to artifact storage; the ledger records
// its content ID and keccak256 digest.
type StoreCommitmentRequest struct {
	Commitment interfaces.Commitment `json:"commitment"`
	Payload    []byte                `json:"payload"`
}

// StoreCommitmentResponse returns the stored record with PayloadID and
// Digest filled in.
type StoreCommitmentResponse struct {
	Commitment interfaces.Commitment `json:"commitment"`
}

// SubmitProofResponse returns the log index assigned to a submitted proof.
type SubmitProofResponse struct {
	Index uint64 `json:"index"`

	// ProofID is set when the proof payload was offloaded to artifact
	// storage instead of being kept inline on the ledger.
	ProofID interfaces.Hash32 `json:"proof_id,omitempty"`
}

// BindIdentityRequest binds a device identity address to an ownership
// address under a node.
type BindIdentityRequest struct {
	Identity interfaces.Address `json:"identity"`
	Owner    interfaces.Address `json:"owner"`
}

// IdentityOwnerResponse returns the ownership address bound to an identity.
type IdentityOwnerResponse struct {
	Owner interfaces.Address `json:"owner"`
}

// MintTokenRequest mints the ownership token of a device to a holder.
type MintTokenRequest struct {
	To interfaces.Address `json:"to"`
}

// TransferTokenRequest moves a token to a new holder. Signed by the current
// holder.
type TransferTokenRequest struct {
	To interfaces.Address `json:"to"`
}

// SnapshotResponse returns the artifact content ID of a stored snapshot.
type SnapshotResponse struct {
	ArtifactID interfaces.ArtifactID `json:"artifact_id"`
}

// RestoreRequest restores the registry from a snapshot previously stored in
// artifact storage. Owner only.
type RestoreRequest struct {
	ArtifactID interfaces.ArtifactID `json:"artifact_id"`
}
