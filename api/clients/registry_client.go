// Package clients provides a Go client for the registry HTTP API. Mutations
// are signed with the client's secp256k1 key; the server recovers the signer
// address and enforces the ledger's access rules.
package clients

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/api"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/cryptoutils"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// APIError is returned when the server replies with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

// Error formats the status code and the server's error message.
func (e *APIError) Error() string {
	return fmt.Sprintf("registry API error %d: %s", e.StatusCode, e.Message)
}

// RegistryClient talks to a registry node over its HTTP API.
type RegistryClient struct {
	// ServerAddr is the base URL of the registry server.
	ServerAddr string

	// SigningKey signs mutation requests. Read calls work without it.
	SigningKey *ecdsa.PrivateKey

	// HTTPClient is the underlying HTTP client. http.DefaultClient when nil.
	HTTPClient *http.Client

	// Now supplies the signing timestamp. time.Now when nil.
	Now func() time.Time
}

func (c *RegistryClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// do performs one request against the API. A non-empty operation signs the
// request; out, when non-nil, receives the decoded JSON response.
func (c *RegistryClient) do(method, path, operation string, body []byte, out any) error {
	req, err := http.NewRequest(method, c.ServerAddr+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if operation != "" {
		if c.SigningKey == nil {
			return fmt.Errorf("operation %s requires a signing key", operation)
		}

		now := time.Now
		if c.Now != nil {
			now = c.Now
		}
		signedAt := strconv.FormatInt(now().Unix(), 10)

		digest := cryptoutils.RequestDigest(operation, cryptoutils.RequestMessage(signedAt, path, body))
		signature, err := cryptoutils.SignDigest(c.SigningKey, digest)
		if err != nil {
			return fmt.Errorf("could not sign request: %w", err)
		}

		req.Header.Set(api.SignatureHeader, hex.EncodeToString(signature))
		req.Header.Set(api.SignedAtHeader, signedAt)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("could not reach registry endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp api.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: "unreadable error response"}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not parse registry response: %w", err)
	}
	return nil
}

// AddManager binds a manager address to a node. Owner only.
func (c *RegistryClient) AddManager(nodeID interfaces.NodeID, manager interfaces.Address) error {
	body, err := json.Marshal(api.AddManagerRequest{NodeID: nodeID, Manager: manager})
	if err != nil {
		return err
	}
	return c.do(http.MethodPost, "/api/v1/managers", api.OpManagersAdd, body, nil)
}

// RemoveManager unbinds a node's manager. Owner only.
func (c *RegistryClient) RemoveManager(nodeID interfaces.NodeID) error {
	return c.do(http.MethodDelete, "/api/v1/nodes/"+nodeID.String()+"/manager", api.OpManagersRemove, nil, nil)
}

// Managers lists all node-to-manager bindings.
func (c *RegistryClient) Managers() ([]api.ManagerBinding, error) {
	var bindings []api.ManagerBinding
	err := c.do(http.MethodGet, "/api/v1/managers", "", nil, &bindings)
	return bindings, err
}

// CreateDevice registers a device under a node. Manager only. The returned
// record carries the node ID the server bound it to.
func (c *RegistryClient) CreateDevice(nodeID interfaces.NodeID, device interfaces.Device) (interfaces.Device, error) {
	body, err := json.Marshal(device)
	if err != nil {
		return interfaces.Device{}, err
	}
	var created interfaces.Device
	err = c.do(http.MethodPost, "/api/v1/nodes/"+nodeID.String()+"/devices", api.OpDevicesCreate, body, &created)
	return created, err
}

// RemoveDevice deletes a device, burning its token if one was minted.
// Manager only.
func (c *RegistryClient) RemoveDevice(nodeID interfaces.NodeID, deviceID string) error {
	return c.do(http.MethodDelete, "/api/v1/nodes/"+nodeID.String()+"/devices/"+deviceID, api.OpDevicesRemove, nil, nil)
}

// Device looks up a device.
func (c *RegistryClient) Device(nodeID interfaces.NodeID, deviceID string) (interfaces.Device, error) {
	var device interfaces.Device
	err := c.do(http.MethodGet, "/api/v1/nodes/"+nodeID.String()+"/devices/"+deviceID, "", nil, &device)
	return device, err
}

// Devices lists all registered devices.
func (c *RegistryClient) Devices() ([]interfaces.Device, error) {
	var devices []interfaces.Device
	err := c.do(http.MethodGet, "/api/v1/devices", "", nil, &devices)
	return devices, err
}

// CreateService registers a service under a node, optionally uploading its
// program. Manager only. The returned record carries the program's content
// ID when one was attached.
func (c *RegistryClient) CreateService(nodeID interfaces.NodeID, service interfaces.Service, program []byte) (interfaces.Service, error) {
	body, err := json.Marshal(api.CreateServiceRequest{Service: service, Program: program})
	if err != nil {
		return interfaces.Service{}, err
	}
	var resp api.CreateServiceResponse
	err = c.do(http.MethodPost, "/api/v1/nodes/"+nodeID.String()+"/services", api.OpServicesCreate, body, &resp)
	return resp.Service, err
}

// RemoveService deletes a service. Manager only.
func (c *RegistryClient) RemoveService(nodeID interfaces.NodeID, serviceID string) error {
	return c.do(http.MethodDelete, "/api/v1/nodes/"+nodeID.String()+"/services/"+serviceID, api.OpServicesRemove, nil, nil)
}

// Service looks up a service.
func (c *RegistryClient) Service(nodeID interfaces.NodeID, serviceID string) (interfaces.Service, error) {
	var service interfaces.Service
	err := c.do(http.MethodGet, "/api/v1/nodes/"+nodeID.String()+"/services/"+serviceID, "", nil, &service)
	return service, err
}

// ServiceProgram fetches a service's program bytes.
func (c *RegistryClient) ServiceProgram(nodeID interfaces.NodeID, serviceID string) ([]byte, error) {
	url := c.ServerAddr + "/api/v1/nodes/" + nodeID.String() + "/services/" + serviceID + "/program"
	resp, err := c.httpClient().Get(url)
	if err != nil {
		return nil, fmt.Errorf("could not reach registry endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp api.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr != nil {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: "unreadable error response"}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	return io.ReadAll(resp.Body)
}

// Services lists all registered services.
func (c *RegistryClient) Services() ([]interfaces.Service, error) {
	var services []interfaces.Service
	err := c.do(http.MethodGet, "/api/v1/services", "", nil, &services)
	return services, err
}

// StoreCommitment stores a commitment record and its payload. Manager only.
// The returned record carries the payload's content ID and digest.
func (c *RegistryClient) StoreCommitment(nodeID interfaces.NodeID, commitment interfaces.Commitment, payload []byte) (interfaces.Commitment, error) {
	body, err := json.Marshal(api.StoreCommitmentRequest{Commitment: commitment, Payload: payload})
	if err != nil {
		return interfaces.Commitment{}, err
	}
	var resp api.StoreCommitmentResponse
	err = c.do(http.MethodPost, "/api/v1/nodes/"+nodeID.String()+"/commitments", api.OpCommitmentsStore, body, &resp)
	return resp.Commitment, err
}

// RemoveCommitment deletes a commitment record. Manager only.
func (c *RegistryClient) RemoveCommitment(nodeID interfaces.NodeID, commitmentID string) error {
	return c.do(http.MethodDelete, "/api/v1/nodes/"+nodeID.String()+"/commitments/"+commitmentID, api.OpCommitmentsRemove, nil, nil)
}

// Commitment looks up a commitment record.
func (c *RegistryClient) Commitment(nodeID interfaces.NodeID, commitmentID string) (interfaces.Commitment, error) {
	var commitment interfaces.Commitment
	err := c.do(http.MethodGet, "/api/v1/nodes/"+nodeID.String()+"/commitments/"+commitmentID, "", nil, &commitment)
	return commitment, err
}

// CommitmentPayload fetches a commitment's payload bytes.
func (c *RegistryClient) CommitmentPayload(nodeID interfaces.NodeID, commitmentID string) ([]byte, error) {
	url := c.ServerAddr + "/api/v1/nodes/" + nodeID.String() + "/commitments/" + commitmentID + "/payload"
	resp, err := c.httpClient().Get(url)
	if err != nil {
		return nil, fmt.Errorf("could not reach registry endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp api.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr != nil {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: "unreadable error response"}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	return io.ReadAll(resp.Body)
}

// Commitments lists all commitment records.
func (c *RegistryClient) Commitments() ([]interfaces.Commitment, error) {
	var commitments []interfaces.Commitment
	err := c.do(http.MethodGet, "/api/v1/commitments", "", nil, &commitments)
	return commitments, err
}

// SubmitProof appends a ZKP entry to the proof log. Manager only.
func (c *RegistryClient) SubmitProof(nodeID interfaces.NodeID, entry interfaces.ZKPEntry) (api.SubmitProofResponse, error) {
	body, err := json.Marshal(entry)
	if err != nil {
		return api.SubmitProofResponse{}, err
	}
	var resp api.SubmitProofResponse
	err = c.do(http.MethodPost, "/api/v1/nodes/"+nodeID.String()+"/proofs", api.OpProofsSubmit, body, &resp)
	return resp, err
}

// Proof returns the proof log entry at an index.
func (c *RegistryClient) Proof(index uint64) (interfaces.ZKPEntry, error) {
	var entry interfaces.ZKPEntry
	err := c.do(http.MethodGet, "/api/v1/proofs/"+strconv.FormatUint(index, 10), "", nil, &entry)
	return entry, err
}

// Proofs returns the full proof log in submission order.
func (c *RegistryClient) Proofs() ([]interfaces.ZKPEntry, error) {
	var entries []interfaces.ZKPEntry
	err := c.do(http.MethodGet, "/api/v1/proofs", "", nil, &entries)
	return entries, err
}

// BindIdentity binds a device identity address to an ownership address under
// a node. Manager only.
func (c *RegistryClient) BindIdentity(nodeID interfaces.NodeID, identity, owner interfaces.Address) error {
	body, err := json.Marshal(api.BindIdentityRequest{Identity: identity, Owner: owner})
	if err != nil {
		return err
	}
	return c.do(http.MethodPost, "/api/v1/nodes/"+nodeID.String()+"/identities", api.OpIdentitiesBind, body, nil)
}

// UnbindIdentity removes an identity binding. Manager only.
func (c *RegistryClient) UnbindIdentity(nodeID interfaces.NodeID, identity interfaces.Address) error {
	return c.do(http.MethodDelete, "/api/v1/nodes/"+nodeID.String()+"/identities/"+identity.String(), api.OpIdentitiesUnbind, nil, nil)
}

// IdentityOwner returns the ownership address bound to an identity.
func (c *RegistryClient) IdentityOwner(nodeID interfaces.NodeID, identity interfaces.Address) (interfaces.Address, error) {
	var resp api.IdentityOwnerResponse
	err := c.do(http.MethodGet, "/api/v1/nodes/"+nodeID.String()+"/identities/"+identity.String(), "", nil, &resp)
	return resp.Owner, err
}

// OwnerIdentities lists the identities bound to an ownership address under a
// node.
func (c *RegistryClient) OwnerIdentities(nodeID interfaces.NodeID, owner interfaces.Address) ([]interfaces.Address, error) {
	var identities []interfaces.Address
	err := c.do(http.MethodGet, "/api/v1/nodes/"+nodeID.String()+"/identities?owner="+owner.String(), "", nil, &identities)
	return identities, err
}

// MintToken mints the ownership token of a device to a holder. Manager only.
func (c *RegistryClient) MintToken(nodeID interfaces.NodeID, deviceID string, to interfaces.Address) (interfaces.DeviceToken, error) {
	body, err := json.Marshal(api.MintTokenRequest{To: to})
	if err != nil {
		return interfaces.DeviceToken{}, err
	}
	var token interfaces.DeviceToken
	err = c.do(http.MethodPost, "/api/v1/nodes/"+nodeID.String()+"/devices/"+deviceID+"/token", api.OpTokensMint, body, &token)
	return token, err
}

// TransferToken moves a token to a new holder. Signed by the current holder.
func (c *RegistryClient) TransferToken(tokenID interfaces.Hash32, to interfaces.Address) error {
	body, err := json.Marshal(api.TransferTokenRequest{To: to})
	if err != nil {
		return err
	}
	return c.do(http.MethodPost, "/api/v1/tokens/"+tokenID.String()+"/transfer", api.OpTokensTransfer, body, nil)
}

// BurnToken destroys a token. Manager only.
func (c *RegistryClient) BurnToken(tokenID interfaces.Hash32) error {
	return c.do(http.MethodDelete, "/api/v1/tokens/"+tokenID.String(), api.OpTokensBurn, nil, nil)
}

// Token returns a minted token by identifier.
func (c *RegistryClient) Token(tokenID interfaces.Hash32) (interfaces.DeviceToken, error) {
	var token interfaces.DeviceToken
	err := c.do(http.MethodGet, "/api/v1/tokens/"+tokenID.String(), "", nil, &token)
	return token, err
}

// TokenOwner returns the current holder of a token.
func (c *RegistryClient) TokenOwner(tokenID interfaces.Hash32) (interfaces.Address, error) {
	token, err := c.Token(tokenID)
	return token.Owner, err
}

// TokensOf lists the tokens held by an address.
func (c *RegistryClient) TokensOf(owner interfaces.Address) ([]interfaces.DeviceToken, error) {
	var tokens []interfaces.DeviceToken
	err := c.do(http.MethodGet, "/api/v1/tokens?owner="+owner.String(), "", nil, &tokens)
	return tokens, err
}

// Tokens lists all minted tokens.
func (c *RegistryClient) Tokens() ([]interfaces.DeviceToken, error) {
	var tokens []interfaces.DeviceToken
	err := c.do(http.MethodGet, "/api/v1/tokens", "", nil, &tokens)
	return tokens, err
}

// EventsSince returns the mutation log entries with sequence numbers greater
// than seq. Pass 0 for the full log.
func (c *RegistryClient) EventsSince(seq uint64) ([]interfaces.Event, error) {
	var events []interfaces.Event
	err := c.do(http.MethodGet, "/api/v1/events?since="+strconv.FormatUint(seq, 10), "", nil, &events)
	return events, err
}

// StoreSnapshot persists a snapshot of the registry state to artifact
// storage. Owner only.
func (c *RegistryClient) StoreSnapshot() (interfaces.ArtifactID, error) {
	var resp api.SnapshotResponse
	err := c.do(http.MethodPost, "/api/v1/snapshot", api.OpSnapshotStore, nil, &resp)
	return resp.ArtifactID, err
}

// RestoreSnapshot restores the registry from a stored snapshot. Owner only.
func (c *RegistryClient) RestoreSnapshot(artifactID interfaces.ArtifactID) error {
	body, err := json.Marshal(api.RestoreRequest{ArtifactID: artifactID})
	if err != nil {
		return err
	}
	return c.do(http.MethodPut, "/api/v1/snapshot", api.OpSnapshotRestore, body, nil)
}
