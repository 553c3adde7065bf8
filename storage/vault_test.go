package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultSecretBinaryRoundTrip(t *testing.T) {
	// Invalid UTF-8, as proof and commitment payloads typically are. A raw
	// string field would come back with replacement characters after the
	// JSON hop to Vault.
	payload := []byte{0x00, 0xff, 0xfe, 0x80, 0xc3, 0x28, 0x01}

	encoded := encodeVaultSecret(payload)

	// Simulate the JSON transport between client and Vault server.
	wire, err := json.Marshal(encoded)
	require.NoError(t, err)
	var received map[string]interface{}
	require.NoError(t, json.Unmarshal(wire, &received))

	decoded, err := decodeVaultSecret(received)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestVaultSecretDecodeErrors(t *testing.T) {
	_, err := decodeVaultSecret(map[string]interface{}{})
	assert.Error(t, err, "missing data wrapper should fail")

	_, err = decodeVaultSecret(map[string]interface{}{
		"data": map[string]interface{}{},
	})
	assert.Error(t, err, "missing content key should fail")

	_, err = decodeVaultSecret(map[string]interface{}{
		"data": map[string]interface{}{"content": 42},
	})
	assert.Error(t, err, "non-string content should fail")

	_, err = decodeVaultSecret(map[string]interface{}{
		"data": map[string]interface{}{"content": "not base64!"},
	})
	assert.Error(t, err, "malformed base64 should fail")
}
