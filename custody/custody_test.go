package custody

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

func generateGuardians(t *testing.T, n int) ([]*ecdsa.PrivateKey, [][]byte) {
	t.Helper()

	keys := make([]*ecdsa.PrivateKey, n)
	pems := make([][]byte, n)
	for i := 0; i < n; i++ {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err, "Failed to generate guardian key")
		keys[i] = key

		pubKeyBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		require.NoError(t, err, "Failed to marshal public key")
		pems[i] = pem.EncodeToMemory(&pem.Block{
			Type:  "PUBLIC KEY",
			Bytes: pubKeyBytes,
		})
	}
	return keys, pems
}

func testOwnerKeyBytes(t *testing.T) []byte {
	t.Helper()
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err, "Failed to generate owner key")
	return ethcrypto.FromECDSA(key)
}

func testOwnerAddress(t *testing.T, ownerKey []byte) interfaces.Address {
	t.Helper()
	address, err := keyAddress(ownerKey)
	require.NoError(t, err, "Failed to derive owner address")
	return address
}

func TestNewCustody(t *testing.T) {
	ownerKey := testOwnerKeyBytes(t)
	_, pems := generateGuardians(t, 5)

	custody, shares, err := New(ownerKey, Config{Threshold: 3, GuardianPubKeys: pems})
	require.NoError(t, err, "New should succeed with valid parameters")
	assert.Len(t, shares, 5, "Should generate one share per guardian")
	assert.True(t, custody.IsUnlocked(), "Custody starts unlocked when created with the key")

	key, err := custody.OwnerKey()
	require.NoError(t, err)
	assert.Equal(t, ownerKey, ethcrypto.FromECDSA(key))

	// Invalid parameters
	_, _, err = New(ownerKey, Config{Threshold: 6, GuardianPubKeys: pems})
	assert.Error(t, err, "Should fail when threshold exceeds guardian count")

	_, _, err = New(ownerKey, Config{Threshold: 1, GuardianPubKeys: pems})
	assert.Error(t, err, "Should fail when threshold < 2")

	_, _, err = New(make([]byte, 16), Config{Threshold: 3, GuardianPubKeys: pems})
	assert.Error(t, err, "Should fail with a short owner key")

	_, _, err = New(ownerKey, Config{Threshold: 2, GuardianPubKeys: [][]byte{[]byte("not-a-pem"), pems[0]}})
	assert.Error(t, err, "Should fail with an invalid guardian key")

	_, _, err = New(ownerKey, Config{Threshold: 3, GuardianPubKeys: pems, OwnerAddress: interfaces.Address{19: 0x01}})
	assert.Error(t, err, "Should fail when the key does not derive the configured owner address")
}

func TestRecoveryUnlock(t *testing.T) {
	ownerKey := testOwnerKeyBytes(t)
	guardianKeys, pems := generateGuardians(t, 5)

	_, shares, err := New(ownerKey, Config{Threshold: 3, GuardianPubKeys: pems})
	require.NoError(t, err)

	_, err = NewRecovery(Config{Threshold: 3, GuardianPubKeys: pems})
	assert.Error(t, err, "Recovery requires the expected owner address")

	recovery, err := NewRecovery(Config{Threshold: 3, GuardianPubKeys: pems, OwnerAddress: testOwnerAddress(t, ownerKey)})
	require.NoError(t, err)
	assert.False(t, recovery.IsUnlocked(), "Recovery custody starts locked")

	_, err = recovery.OwnerKey()
	assert.Error(t, err, "OwnerKey should fail while locked")

	for i := 0; i < 3; i++ {
		signature, err := SignShare(shares[i], guardianKeys[i])
		require.NoError(t, err, "Failed to sign share")

		err = recovery.SubmitShare(i, shares[i], signature, pems[i])
		require.NoError(t, err, "Share submission should succeed")
	}

	assert.True(t, recovery.IsUnlocked(), "Custody should unlock after threshold shares")

	key, err := recovery.OwnerKey()
	require.NoError(t, err)
	assert.Equal(t, ownerKey, ethcrypto.FromECDSA(key), "Reconstructed key should match the original")

	// Further submissions are rejected once unlocked.
	signature, err := SignShare(shares[3], guardianKeys[3])
	require.NoError(t, err)
	assert.Error(t, recovery.SubmitShare(3, shares[3], signature, pems[3]))
}

func TestSubmitShareRejections(t *testing.T) {
	ownerKey := testOwnerKeyBytes(t)
	guardianKeys, pems := generateGuardians(t, 3)

	_, shares, err := New(ownerKey, Config{Threshold: 2, GuardianPubKeys: pems})
	require.NoError(t, err)

	recovery, err := NewRecovery(Config{Threshold: 2, GuardianPubKeys: pems, OwnerAddress: testOwnerAddress(t, ownerKey)})
	require.NoError(t, err)

	// Invalid signature
	err = recovery.SubmitShare(0, shares[0], []byte("invalid-signature"), pems[0])
	assert.Error(t, err, "Should fail with invalid signature")

	// Unregistered guardian
	strangerKeys, strangerPEMs := generateGuardians(t, 1)
	signature, err := SignShare(shares[0], strangerKeys[0])
	require.NoError(t, err)
	err = recovery.SubmitShare(0, shares[0], signature, strangerPEMs[0])
	assert.Error(t, err, "Should fail with unregistered guardian")

	// Signature by the wrong registered guardian
	signature, err = SignShare(shares[0], guardianKeys[1])
	require.NoError(t, err)
	err = recovery.SubmitShare(0, shares[0], signature, pems[0])
	assert.Error(t, err, "Should fail when the signature does not match the pubkey")

	assert.False(t, recovery.IsUnlocked())
}

func TestRecoveryRejectsWrongShareSet(t *testing.T) {
	ownerKey := testOwnerKeyBytes(t)
	guardianKeys, pems := generateGuardians(t, 3)

	_, shares, err := New(ownerKey, Config{Threshold: 2, GuardianPubKeys: pems})
	require.NoError(t, err)

	// Shares of a different key, held by the same guardians. Combining a
	// mixed set yields a valid-looking but wrong secret.
	_, otherShares, err := New(testOwnerKeyBytes(t), Config{Threshold: 2, GuardianPubKeys: pems})
	require.NoError(t, err)

	recovery, err := NewRecovery(Config{Threshold: 2, GuardianPubKeys: pems, OwnerAddress: testOwnerAddress(t, ownerKey)})
	require.NoError(t, err)

	signature, err := SignShare(shares[0], guardianKeys[0])
	require.NoError(t, err)
	require.NoError(t, recovery.SubmitShare(0, shares[0], signature, pems[0]))

	signature, err = SignShare(otherShares[1], guardianKeys[1])
	require.NoError(t, err)
	err = recovery.SubmitShare(1, otherShares[1], signature, pems[1])
	require.Error(t, err, "Mixed share set must not unlock the custody")
	assert.False(t, recovery.IsUnlocked())

	// The bad set was discarded; a correct set still unlocks.
	signature, err = SignShare(shares[0], guardianKeys[0])
	require.NoError(t, err)
	require.NoError(t, recovery.SubmitShare(0, shares[0], signature, pems[0]))

	signature, err = SignShare(shares[1], guardianKeys[1])
	require.NoError(t, err)
	require.NoError(t, recovery.SubmitShare(1, shares[1], signature, pems[1]))

	assert.True(t, recovery.IsUnlocked())
	key, err := recovery.OwnerKey()
	require.NoError(t, err)
	assert.Equal(t, ownerKey, ethcrypto.FromECDSA(key))
}
