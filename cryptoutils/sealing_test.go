package cryptoutils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	privateKeyPEM, publicKeyPEM, err := GenerateSealingKeypair()
	require.NoError(t, err)

	testCases := []struct {
		name string
		data []byte
	}{
		{
			name: "Simple string",
			data: []byte("calibration offset 0.173"),
		},
		{
			name: "JSON parameters",
			data: []byte(`{"apn":"iot.provider","psk":"secret123"}`),
		},
		{
			name: "Binary data",
			data: []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD},
		},
		{
			name: "Long data",
			data: make([]byte, 1024),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sealed, err := SealToPublicKey(publicKeyPEM, tc.data)
			require.NoError(t, err)
			require.Greater(t, len(sealed), len(tc.data))

			opened, err := OpenWithPrivateKey(privateKeyPEM, sealed)
			require.NoError(t, err)
			require.Equal(t, tc.data, opened)
		})
	}
}

func TestOpenWithWrongKey(t *testing.T) {
	_, publicKeyPEM, err := GenerateSealingKeypair()
	require.NoError(t, err)

	otherPrivatePEM, _, err := GenerateSealingKeypair()
	require.NoError(t, err)

	sealed, err := SealToPublicKey(publicKeyPEM, []byte("device parameters"))
	require.NoError(t, err)

	_, err = OpenWithPrivateKey(otherPrivatePEM, sealed)
	require.Error(t, err)
}

func TestSealInvalidInputs(t *testing.T) {
	_, err := SealToPublicKey([]byte("not a valid PEM"), []byte("test"))
	require.Error(t, err)

	_, err = OpenWithPrivateKey([]byte("not a valid PEM"), []byte("test"))
	require.Error(t, err)

	privateKeyPEM, _, err := GenerateSealingKeypair()
	require.NoError(t, err)

	_, err = OpenWithPrivateKey(privateKeyPEM, []byte{0x01})
	require.Error(t, err)

	_, err = OpenWithPrivateKey(privateKeyPEM, make([]byte, 100))
	require.Error(t, err)
}

func TestSignAndRecover(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	signer, err := KeyAddress(key)
	require.NoError(t, err)

	digest := RequestDigest("devices.create", []byte(`{"node_id":"node-1","device_id":"dev-7"}`))
	sig, err := SignDigest(key, digest)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	recovered, err := RecoverSigner(digest, sig)
	require.NoError(t, err)
	require.Equal(t, signer, recovered)

	// A different method yields a different digest and a different signer.
	otherDigest := RequestDigest("devices.remove", []byte(`{"node_id":"node-1","device_id":"dev-7"}`))
	require.NotEqual(t, digest, otherDigest)

	mismatched, err := RecoverSigner(otherDigest, sig)
	if err == nil {
		require.NotEqual(t, signer, mismatched)
	}

	_, err = RecoverSigner(digest, []byte{0x01, 0x02})
	require.Error(t, err)
}

func TestKeyHexRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	loaded, err := LoadKeyFromHex(KeyToHex(key))
	require.NoError(t, err)

	orig, err := KeyAddress(key)
	require.NoError(t, err)
	loadedAddr, err := KeyAddress(loaded)
	require.NoError(t, err)
	require.Equal(t, orig, loadedAddr)

	_, err = LoadKeyFromHex("nothex")
	require.Error(t, err)
}

func TestDeriveExportKey(t *testing.T) {
	k1 := DeriveExportKey([]byte("passphrase"), []byte("snap-1"))
	k2 := DeriveExportKey([]byte("passphrase"), []byte("snap-1"))
	k3 := DeriveExportKey([]byte("passphrase"), []byte("snap-2"))

	require.Len(t, k1, 32)
	require.Equal(t, k1, k2)
	require.NotEqual(t, k1, k3)
}
