package httpserver

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/api"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/cryptoutils"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/registry"
)

const (
	testNodeID       = interfaces.NodeID("zksensor.tech")
	testSignedAtUnix = int64(1700000000)
)

// mockStorage implements interfaces.StorageBackend for handler tests.
type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Fetch(ctx context.Context, id interfaces.ArtifactID, artifactType interfaces.ArtifactType) ([]byte, error) {
	args := m.Called(ctx, id, artifactType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockStorage) Store(ctx context.Context, data []byte, artifactType interfaces.ArtifactType) (interfaces.ArtifactID, error) {
	args := m.Called(ctx, data, artifactType)
	return args.Get(0).(interfaces.ArtifactID), args.Error(1)
}

func (m *mockStorage) Available(ctx context.Context) bool { return true }
func (m *mockStorage) Name() string                       { return "mock" }
func (m *mockStorage) LocationURI() string                { return "mock:" }

type testEnv struct {
	router     http.Handler
	ledger     *registry.Registry
	storage    *mockStorage
	ownerKey   *ecdsa.PrivateKey
	managerKey *ecdsa.PrivateKey
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ownerKey, err := cryptoutils.GenerateKey()
	require.NoError(t, err)
	managerKey, err := cryptoutils.GenerateKey()
	require.NoError(t, err)

	owner, err := cryptoutils.KeyAddress(ownerKey)
	require.NoError(t, err)
	manager, err := cryptoutils.KeyAddress(managerKey)
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	ledger := registry.New(owner, log)
	require.NoError(t, ledger.AddNodeManager(owner, testNodeID, manager))

	storage := &mockStorage{}
	handler := NewHandler(ledger, storage, log, 0)
	// Pin server time so the fixed signing timestamp below stays in the
	// accepted window.
	handler.now = func() time.Time { return time.Unix(testSignedAtUnix, 0) }

	srv, err := New(&HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		Log:                      log,
		DrainDuration:            time.Millisecond,
		GracefulShutdownDuration: time.Second,
	}, handler)
	require.NoError(t, err)

	return &testEnv{
		router:     srv.getRouter(),
		ledger:     ledger,
		storage:    storage,
		ownerKey:   ownerKey,
		managerKey: managerKey,
	}
}

// signedRequest builds a request carrying a valid signature over the
// operation, path, and body.
func signedRequest(t *testing.T, key *ecdsa.PrivateKey, operation, method, path string, body []byte) *http.Request {
	t.Helper()
	return signedRequestAt(t, key, operation, method, path, body, strconv.FormatInt(testSignedAtUnix, 10))
}

// signedRequestAt is signedRequest with an explicit signing timestamp.
func signedRequestAt(t *testing.T, key *ecdsa.PrivateKey, operation, method, path string, body []byte, signedAt string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	digest := cryptoutils.RequestDigest(operation, cryptoutils.RequestMessage(signedAt, req.URL.Path, body))
	signature, err := cryptoutils.SignDigest(key, digest)
	require.NoError(t, err)

	req.Header.Set(api.SignatureHeader, hex.EncodeToString(signature))
	req.Header.Set(api.SignedAtHeader, signedAt)
	return req
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func TestDeviceEndpoints(t *testing.T) {
	env := newTestEnv(t)

	device := interfaces.Device{DeviceID: "device-1", Name: "Multi sensor", DeviceType: "MULTI_SENSOR"}
	body, err := json.Marshal(device)
	require.NoError(t, err)

	// Unsigned requests are rejected.
	rr := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/nodes/zksensor.tech/devices", bytes.NewReader(body)))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Signed by a key that is not the node's manager.
	strangerKey, err := cryptoutils.GenerateKey()
	require.NoError(t, err)
	rr = env.do(signedRequest(t, strangerKey, "devices.create", http.MethodPost, "/api/v1/nodes/zksensor.tech/devices", body))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Signed by the manager.
	rr = env.do(signedRequest(t, env.managerKey, "devices.create", http.MethodPost, "/api/v1/nodes/zksensor.tech/devices", body))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	// Duplicate create.
	rr = env.do(signedRequest(t, env.managerKey, "devices.create", http.MethodPost, "/api/v1/nodes/zksensor.tech/devices", body))
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Public read.
	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/nodes/zksensor.tech/devices/device-1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got interfaces.Device
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "device-1", got.DeviceID)
	assert.Equal(t, testNodeID, got.NodeID)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var devices []interfaces.Device
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &devices))
	assert.Len(t, devices, 1)

	// Remove, then the lookup 404s.
	rr = env.do(signedRequest(t, env.managerKey, "devices.remove", http.MethodDelete, "/api/v1/nodes/zksensor.tech/devices/device-1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/nodes/zksensor.tech/devices/device-1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(signedRequest(t, env.managerKey, "devices.remove", http.MethodDelete, "/api/v1/nodes/zksensor.tech/devices/device-1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSignatureDoesNotReplayAcrossPaths(t *testing.T) {
	env := newTestEnv(t)

	device := interfaces.Device{DeviceID: "device-1"}
	body, err := json.Marshal(device)
	require.NoError(t, err)
	rr := env.do(signedRequest(t, env.managerKey, "devices.create", http.MethodPost, "/api/v1/nodes/zksensor.tech/devices", body))
	require.Equal(t, http.StatusCreated, rr.Code)

	// A delete signed for device-1 must not work against device-2.
	signedForOne := signedRequest(t, env.managerKey, "devices.remove", http.MethodDelete, "/api/v1/nodes/zksensor.tech/devices/device-1", nil)
	replayed := httptest.NewRequest(http.MethodDelete, "/api/v1/nodes/zksensor.tech/devices/device-2", nil)
	replayed.Header = signedForOne.Header.Clone()

	rr = env.do(replayed)
	// Recovery yields a different address, which is not a manager.
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestSignatureTimestampWindow(t *testing.T) {
	env := newTestEnv(t)

	device := interfaces.Device{DeviceID: "device-1"}
	body, err := json.Marshal(device)
	require.NoError(t, err)
	rr := env.do(signedRequest(t, env.managerKey, "devices.create", http.MethodPost, "/api/v1/nodes/zksensor.tech/devices", body))
	require.Equal(t, http.StatusCreated, rr.Code)

	// A validly signed delete with a long-expired timestamp is rejected,
	// and the device survives.
	rr = env.do(signedRequestAt(t, env.managerKey, "devices.remove", http.MethodDelete, "/api/v1/nodes/zksensor.tech/devices/device-1", nil, "1"))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	_, err = env.ledger.Device(testNodeID, "device-1")
	assert.NoError(t, err, "stale request must not mutate the ledger")

	// Timestamps from the future are rejected the same way.
	future := strconv.FormatInt(testSignedAtUnix+3600, 10)
	rr = env.do(signedRequestAt(t, env.managerKey, "devices.remove", http.MethodDelete, "/api/v1/nodes/zksensor.tech/devices/device-1", nil, future))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(signedRequestAt(t, env.managerKey, "devices.remove", http.MethodDelete, "/api/v1/nodes/zksensor.tech/devices/device-1", nil, "not-a-timestamp"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Drift inside the window is fine.
	recent := strconv.FormatInt(testSignedAtUnix-60, 10)
	rr = env.do(signedRequestAt(t, env.managerKey, "devices.remove", http.MethodDelete, "/api/v1/nodes/zksensor.tech/devices/device-1", nil, recent))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestManagerEndpoints(t *testing.T) {
	env := newTestEnv(t)

	newManagerKey, err := cryptoutils.GenerateKey()
	require.NoError(t, err)
	newManager, err := cryptoutils.KeyAddress(newManagerKey)
	require.NoError(t, err)

	body, err := json.Marshal(api.AddManagerRequest{NodeID: "othernode.io", Manager: newManager})
	require.NoError(t, err)

	// Only the owner can bind managers.
	rr := env.do(signedRequest(t, env.managerKey, "managers.add", http.MethodPost, "/api/v1/managers", body))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(signedRequest(t, env.ownerKey, "managers.add", http.MethodPost, "/api/v1/managers", body))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/managers", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var bindings []api.ManagerBinding
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bindings))
	assert.Len(t, bindings, 2)

	rr = env.do(signedRequest(t, env.ownerKey, "managers.remove", http.MethodDelete, "/api/v1/nodes/othernode.io/manager", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(signedRequest(t, env.ownerKey, "managers.remove", http.MethodDelete, "/api/v1/nodes/othernode.io/manager", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServiceEndpoints(t *testing.T) {
	env := newTestEnv(t)

	program := []byte("wasm service program")
	programID := interfaces.ComputeArtifactID(program)
	env.storage.On("Store", mock.Anything, program, interfaces.ProgramArtifact).Return(programID, nil)
	env.storage.On("Fetch", mock.Anything, programID, interfaces.ProgramArtifact).Return(program, nil)

	body, err := json.Marshal(api.CreateServiceRequest{
		Service: interfaces.Service{ServiceID: "service-1", Name: "Temperature alerts", ServiceType: "automation"},
		Program: program,
	})
	require.NoError(t, err)

	rr := env.do(signedRequest(t, env.managerKey, "services.create", http.MethodPost, "/api/v1/nodes/zksensor.tech/services", body))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp api.CreateServiceResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, programID, resp.Service.ProgramID)
	assert.Equal(t, testNodeID, resp.Service.NodeID)

	// The program round-trips through storage.
	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/nodes/zksensor.tech/services/service-1/program", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, program, rr.Body.Bytes())

	// A service registered without a program has none to fetch.
	body, err = json.Marshal(api.CreateServiceRequest{
		Service: interfaces.Service{ServiceID: "service-2"},
	})
	require.NoError(t, err)
	rr = env.do(signedRequest(t, env.managerKey, "services.create", http.MethodPost, "/api/v1/nodes/zksensor.tech/services", body))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/nodes/zksensor.tech/services/service-2/program", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(signedRequest(t, env.managerKey, "services.remove", http.MethodDelete, "/api/v1/nodes/zksensor.tech/services/service-1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/nodes/zksensor.tech/services/service-1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	env.storage.AssertExpectations(t)
}

func TestDeviceSealedParameters(t *testing.T) {
	env := newTestEnv(t)

	privateKeyPEM, publicKeyPEM, err := cryptoutils.GenerateSealingKeypair()
	require.NoError(t, err)

	params := []byte(`{"calibration_offset":0.15}`)
	sealed, err := cryptoutils.SealToPublicKey(publicKeyPEM, params)
	require.NoError(t, err)

	device := interfaces.Device{DeviceID: "device-1", SealedParameters: sealed}
	body, err := json.Marshal(device)
	require.NoError(t, err)
	rr := env.do(signedRequest(t, env.managerKey, "devices.create", http.MethodPost, "/api/v1/nodes/zksensor.tech/devices", body))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	// The sealed blob survives the round trip and only the owner key opens it.
	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/nodes/zksensor.tech/devices/device-1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got interfaces.Device
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, sealed, got.SealedParameters)

	opened, err := cryptoutils.OpenWithPrivateKey(privateKeyPEM, got.SealedParameters)
	require.NoError(t, err)
	assert.Equal(t, params, opened)
}

func TestCommitmentEndpoints(t *testing.T) {
	env := newTestEnv(t)

	payload := []byte("commitment payload")
	payloadID := interfaces.ComputeArtifactID(payload)
	env.storage.On("Store", mock.Anything, payload, interfaces.CommitmentArtifact).Return(payloadID, nil)
	env.storage.On("Fetch", mock.Anything, payloadID, interfaces.CommitmentArtifact).Return(payload, nil)

	body, err := json.Marshal(api.StoreCommitmentRequest{
		Commitment: interfaces.Commitment{
			CommitmentID:    "commitment-1",
			Manufacturer:    "FidesInnova",
			DeviceType:      "MULTI_SENSOR",
			SoftwareVersion: "1.0.4",
		},
		Payload: payload,
	})
	require.NoError(t, err)

	rr := env.do(signedRequest(t, env.managerKey, "commitments.store", http.MethodPost, "/api/v1/nodes/zksensor.tech/commitments", body))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp api.StoreCommitmentResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, payloadID, resp.Commitment.PayloadID)
	assert.False(t, resp.Commitment.Digest.IsZero())

	// Duplicate store.
	rr = env.do(signedRequest(t, env.managerKey, "commitments.store", http.MethodPost, "/api/v1/nodes/zksensor.tech/commitments", body))
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Payload round-trips through storage.
	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/nodes/zksensor.tech/commitments/commitment-1/payload", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, payload, rr.Body.Bytes())

	rr = env.do(signedRequest(t, env.managerKey, "commitments.remove", http.MethodDelete, "/api/v1/nodes/zksensor.tech/commitments/commitment-1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/nodes/zksensor.tech/commitments/commitment-1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	env.storage.AssertExpectations(t)
}

func TestProofEndpoints(t *testing.T) {
	env := newTestEnv(t)

	entry := interfaces.ZKPEntry{
		DeviceID:        "device-1",
		DeviceType:      "MULTI_SENSOR",
		FirmwareVersion: "1.0.4",
		DataPayload:     `{"Temperature":27.5}`,
		Proof:           []byte(`{"pi_a":[]}`),
	}
	body, err := json.Marshal(entry)
	require.NoError(t, err)

	rr := env.do(signedRequest(t, env.managerKey, "proofs.submit", http.MethodPost, "/api/v1/nodes/zksensor.tech/proofs", body))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp api.SubmitProofResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, uint64(0), resp.Index)
	assert.True(t, resp.ProofID.IsZero(), "small proofs stay inline")

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/proofs/0", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got interfaces.ZKPEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, entry.DataPayload, got.DataPayload)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/proofs/99", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLargeProofOffload(t *testing.T) {
	env := newTestEnv(t)

	largeProof := bytes.Repeat([]byte("p"), maxInlineProofSize+1)
	proofID := interfaces.ComputeArtifactID(largeProof)
	env.storage.On("Store", mock.Anything, largeProof, interfaces.ProofArtifact).Return(proofID, nil)

	entry := interfaces.ZKPEntry{DeviceID: "device-1", Proof: largeProof}
	body, err := json.Marshal(entry)
	require.NoError(t, err)

	rr := env.do(signedRequest(t, env.managerKey, "proofs.submit", http.MethodPost, "/api/v1/nodes/zksensor.tech/proofs", body))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp api.SubmitProofResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, proofID, resp.ProofID)

	// The ledger entry holds the content ID, not the payload.
	stored, err := env.ledger.Proof(resp.Index)
	require.NoError(t, err)
	assert.Empty(t, stored.Proof)
	assert.Equal(t, proofID, stored.ProofID)

	env.storage.AssertExpectations(t)
}

func TestIdentityEndpoints(t *testing.T) {
	env := newTestEnv(t)

	identity := interfaces.Address{19: 0x10}
	owner := interfaces.Address{19: 0x11}

	body, err := json.Marshal(api.BindIdentityRequest{Identity: identity, Owner: owner})
	require.NoError(t, err)

	rr := env.do(signedRequest(t, env.managerKey, "identities.bind", http.MethodPost, "/api/v1/nodes/zksensor.tech/identities", body))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/nodes/zksensor.tech/identities/"+identity.String(), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp api.IdentityOwnerResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, owner, resp.Owner)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/nodes/zksensor.tech/identities?owner="+owner.String(), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var identities []interfaces.Address
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &identities))
	assert.Equal(t, []interfaces.Address{identity}, identities)

	rr = env.do(signedRequest(t, env.managerKey, "identities.unbind", http.MethodDelete, "/api/v1/nodes/zksensor.tech/identities/"+identity.String(), nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/nodes/zksensor.tech/identities/"+identity.String(), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTokenEndpoints(t *testing.T) {
	env := newTestEnv(t)

	device := interfaces.Device{DeviceID: "device-1"}
	body, err := json.Marshal(device)
	require.NoError(t, err)
	rr := env.do(signedRequest(t, env.managerKey, "devices.create", http.MethodPost, "/api/v1/nodes/zksensor.tech/devices", body))
	require.Equal(t, http.StatusCreated, rr.Code)

	holderKey, err := cryptoutils.GenerateKey()
	require.NoError(t, err)
	holder, err := cryptoutils.KeyAddress(holderKey)
	require.NoError(t, err)

	body, err = json.Marshal(api.MintTokenRequest{To: holder})
	require.NoError(t, err)
	rr = env.do(signedRequest(t, env.managerKey, "tokens.mint", http.MethodPost, "/api/v1/nodes/zksensor.tech/devices/device-1/token", body))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var token interfaces.DeviceToken
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &token))
	assert.Equal(t, holder, token.Owner)
	assert.NotZero(t, token.MintedAt, "mint response carries the ledger timestamp")

	tokenPath := "/api/v1/tokens/" + token.TokenID.String()

	rr = env.do(httptest.NewRequest(http.MethodGet, tokenPath, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var fetched interfaces.DeviceToken
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fetched))
	assert.Equal(t, token, fetched)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/tokens?owner="+holder.String(), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var tokens []interfaces.DeviceToken
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokens))
	assert.Len(t, tokens, 1)

	// Transfer must be signed by the holder, not the manager.
	next := interfaces.Address{19: 0x21}
	body, err = json.Marshal(api.TransferTokenRequest{To: next})
	require.NoError(t, err)

	rr = env.do(signedRequest(t, env.managerKey, "tokens.transfer", http.MethodPost, tokenPath+"/transfer", body))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(signedRequest(t, holderKey, "tokens.transfer", http.MethodPost, tokenPath+"/transfer", body))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Burn is the manager's call.
	rr = env.do(signedRequest(t, env.managerKey, "tokens.burn", http.MethodDelete, tokenPath, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodGet, tokenPath, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLedgerErrorMapping(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	key, err := cryptoutils.GenerateKey()
	require.NoError(t, err)

	ledger := &registry.MockLedger{}
	handler := NewHandler(ledger, &mockStorage{}, log, 0)
	handler.now = func() time.Time { return time.Unix(testSignedAtUnix, 0) }

	ledger.On("CreateDevice", mock.Anything, mock.Anything).Return(interfaces.ErrDuplicateEntry).Once()
	req := signedRequest(t, key, "devices.create", http.MethodPost, "/api/v1/nodes/zksensor.tech/devices", []byte(`{}`))
	req.SetPathValue("node_id", "zksensor.tech")
	rr := httptest.NewRecorder()
	handler.HandleCreateDevice(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)

	ledger.On("RemoveDevice", mock.Anything, testNodeID, "device-1").Return(interfaces.ErrNotNodeManager).Once()
	req = signedRequest(t, key, "devices.remove", http.MethodDelete, "/api/v1/nodes/zksensor.tech/devices/device-1", nil)
	req.SetPathValue("node_id", "zksensor.tech")
	req.SetPathValue("device_id", "device-1")
	rr = httptest.NewRecorder()
	handler.HandleRemoveDevice(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	ledger.On("Device", testNodeID, "device-1").Return(interfaces.Device{}, interfaces.ErrNotFound).Once()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/nodes/zksensor.tech/devices/device-1", nil)
	req.SetPathValue("node_id", "zksensor.tech")
	req.SetPathValue("device_id", "device-1")
	rr = httptest.NewRecorder()
	handler.HandleGetDevice(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	ledger.AssertExpectations(t)
}

func TestEventsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	device := interfaces.Device{DeviceID: "device-1"}
	body, err := json.Marshal(device)
	require.NoError(t, err)
	rr := env.do(signedRequest(t, env.managerKey, "devices.create", http.MethodPost, "/api/v1/nodes/zksensor.tech/devices", body))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var events []interfaces.Event
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, "managers.add", events[0].Name)
	assert.Equal(t, "devices.create", events[1].Name)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/events?since=1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	events = nil
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "devices.create", events[0].Name)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/events?since=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSnapshotEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var snapshotData []byte
	snapshotID := interfaces.ArtifactID{0xaa}
	env.storage.On("Store", mock.Anything, mock.Anything, interfaces.SnapshotArtifact).
		Run(func(args mock.Arguments) { snapshotData = args.Get(1).([]byte) }).
		Return(snapshotID, nil)

	// Snapshot store is owner-only.
	rr := env.do(signedRequest(t, env.managerKey, "registry.snapshot", http.MethodPost, "/api/v1/snapshot", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(signedRequest(t, env.ownerKey, "registry.snapshot", http.MethodPost, "/api/v1/snapshot", nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp api.SnapshotResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, snapshotID, resp.ArtifactID)

	// Store ran above, so snapshotData is populated by now.
	env.storage.On("Fetch", mock.Anything, snapshotID, interfaces.SnapshotArtifact).
		Return(snapshotData, nil)

	body, err := json.Marshal(api.RestoreRequest{ArtifactID: snapshotID})
	require.NoError(t, err)

	rr = env.do(signedRequest(t, env.managerKey, "registry.restore", http.MethodPut, "/api/v1/snapshot", body))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(signedRequest(t, env.ownerKey, "registry.restore", http.MethodPut, "/api/v1/snapshot", body))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	env.storage.AssertExpectations(t)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/drain", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/undrain", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
