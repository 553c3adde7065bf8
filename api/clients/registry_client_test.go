package clients

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/api"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/cryptoutils"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

func TestClientSignsMutations(t *testing.T) {
	key, err := cryptoutils.GenerateKey()
	require.NoError(t, err)
	expectedSigner, err := cryptoutils.KeyAddress(key)
	require.NoError(t, err)

	var seenPath string
	var seenSigner interfaces.Address

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.Path

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		signature, err := hex.DecodeString(r.Header.Get(api.SignatureHeader))
		require.NoError(t, err)
		signedAt := r.Header.Get(api.SignedAtHeader)
		require.NotEmpty(t, signedAt)

		digest := cryptoutils.RequestDigest(api.OpDevicesCreate, cryptoutils.RequestMessage(signedAt, r.URL.Path, body))
		seenSigner, err = cryptoutils.RecoverSigner(digest, signature)
		require.NoError(t, err)

		var device interfaces.Device
		require.NoError(t, json.Unmarshal(body, &device))
		device.NodeID = "zksensor.tech"

		w.WriteHeader(http.StatusCreated)
		require.NoError(t, json.NewEncoder(w).Encode(device))
	}))
	defer ts.Close()

	client := &RegistryClient{
		ServerAddr: ts.URL,
		SigningKey: key,
		Now:        func() time.Time { return time.Unix(1700000000, 0) },
	}

	created, err := client.CreateDevice("zksensor.tech", interfaces.Device{DeviceID: "device-1"})
	require.NoError(t, err)
	assert.Equal(t, "device-1", created.DeviceID)
	assert.Equal(t, interfaces.NodeID("zksensor.tech"), created.NodeID)
	assert.Equal(t, "/api/v1/nodes/zksensor.tech/devices", seenPath)
	assert.Equal(t, expectedSigner, seenSigner)
}

func TestClientReadsWithoutKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(api.SignatureHeader))
		require.NoError(t, json.NewEncoder(w).Encode([]interfaces.Device{{DeviceID: "device-1"}}))
	}))
	defer ts.Close()

	client := &RegistryClient{ServerAddr: ts.URL}
	devices, err := client.Devices()
	require.NoError(t, err)
	assert.Len(t, devices, 1)
}

func TestClientMutationWithoutKey(t *testing.T) {
	client := &RegistryClient{ServerAddr: "http://localhost:0"}
	err := client.RemoveDevice("zksensor.tech", "device-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a signing key")
}

func TestClientErrorMapping(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		require.NoError(t, json.NewEncoder(w).Encode(api.ErrorResponse{Error: "entry not found"}))
	}))
	defer ts.Close()

	client := &RegistryClient{ServerAddr: ts.URL}
	_, err := client.Device("zksensor.tech", "missing")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "entry not found", apiErr.Message)
}
