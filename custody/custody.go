// Package custody protects the registry owner's signing key with Shamir
// Secret Sharing. The key is split into shares held by guardians; a
// threshold of shares must be submitted to reconstruct it after a restart.
package custody

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/hashicorp/vault/shamir"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// KeyCustody holds the registry owner's signing key behind a Shamir
// threshold scheme. The key lives only in memory: at setup it is split into
// shares and handed to guardians, and after a restart the custody stays
// locked until enough signed shares come back.
type KeyCustody struct {
	mu             sync.RWMutex
	ownerKey       []byte
	ownerAddress   interfaces.Address
	unlocked       bool
	threshold      int
	receivedShares map[int][]byte

	guardianPubKeys map[string][]byte
}

// Config carries the threshold parameters and the guardian roster.
type Config struct {
	// Threshold is the minimum number of shares required to reconstruct the
	// owner key.
	Threshold int
	// GuardianPubKeys lists the authorized guardian public keys in PEM
	// format. One share is issued per guardian.
	GuardianPubKeys [][]byte
	// OwnerAddress is the account address the owner key must derive to. A
	// reconstruction that yields any other address is discarded, since a
	// wrong-but-valid share set makes shamir.Combine return garbage without
	// an error.
	OwnerAddress interfaces.Address
}

// New splits an owner key into one share per guardian and returns an
// unlocked custody. The caller distributes the shares and erases the
// original key material.
func New(ownerKey []byte, config Config) (*KeyCustody, [][]byte, error) {
	if len(ownerKey) != 32 {
		return nil, nil, errors.New("owner key must be 32 bytes")
	}
	if config.Threshold < 2 {
		return nil, nil, errors.New("threshold must be at least 2")
	}
	if len(config.GuardianPubKeys) < config.Threshold {
		return nil, nil, errors.New("guardian count must be at least the threshold")
	}

	address, err := keyAddress(ownerKey)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid owner key: %w", err)
	}
	if !config.OwnerAddress.IsZero() && !address.Equal(config.OwnerAddress) {
		return nil, nil, errors.New("owner key does not derive the configured owner address")
	}

	shares, err := shamir.Split(ownerKey, len(config.GuardianPubKeys), config.Threshold)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to split owner key: %w", err)
	}

	custody := &KeyCustody{
		ownerKey:        ownerKey,
		ownerAddress:    address,
		unlocked:        true,
		threshold:       config.Threshold,
		receivedShares:  make(map[int][]byte),
		guardianPubKeys: make(map[string][]byte),
	}
	if err := custody.registerGuardians(config.GuardianPubKeys); err != nil {
		return nil, nil, err
	}

	return custody, shares, nil
}

// NewRecovery creates a locked custody for a restarted registry. The owner
// key becomes available once threshold guardians have submitted valid
// shares and the reconstructed key derives the configured owner address.
func NewRecovery(config Config) (*KeyCustody, error) {
	if config.Threshold < 2 {
		return nil, errors.New("threshold must be at least 2")
	}
	if len(config.GuardianPubKeys) < config.Threshold {
		return nil, errors.New("guardian count must be at least the threshold")
	}
	if config.OwnerAddress.IsZero() {
		return nil, errors.New("recovery requires the expected owner address")
	}

	custody := &KeyCustody{
		ownerAddress:    config.OwnerAddress,
		threshold:       config.Threshold,
		receivedShares:  make(map[int][]byte),
		guardianPubKeys: make(map[string][]byte),
	}
	if err := custody.registerGuardians(config.GuardianPubKeys); err != nil {
		return nil, err
	}

	return custody, nil
}

func (c *KeyCustody) registerGuardians(pubKeyPEMs [][]byte) error {
	for _, publicKeyPEM := range pubKeyPEMs {
		if err := validateGuardianKey(publicKeyPEM); err != nil {
			return fmt.Errorf("invalid guardian pubkey: %w", err)
		}
		fingerprint := sha256.Sum256(publicKeyPEM)
		c.guardianPubKeys[hex.EncodeToString(fingerprint[:])] = publicKeyPEM
	}
	return nil
}

// SubmitShare accepts a guardian's share. The share must be signed by the
// guardian's private key; the public key must be on the roster. Once
// threshold shares are in, the owner key is reconstructed and the shares
// are wiped from memory.
func (c *KeyCustody) SubmitShare(shareIndex int, share, signature, guardianPubKeyPEM []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unlocked {
		return errors.New("custody is already unlocked")
	}

	fingerprint := sha256.Sum256(guardianPubKeyPEM)
	registered, found := c.guardianPubKeys[hex.EncodeToString(fingerprint[:])]
	if !found {
		return errors.New("unregistered guardian public key")
	}
	if !bytes.Equal(registered, guardianPubKeyPEM) {
		return errors.New("guardian pubkey does not match registered fingerprint")
	}

	pubKey, err := parseGuardianKey(guardianPubKeyPEM)
	if err != nil {
		return err
	}

	digest := sha256.Sum256(share)
	switch key := pubKey.(type) {
	case *ecdsa.PublicKey:
		if !ecdsa.VerifyASN1(key, digest[:], signature) {
			return errors.New("invalid share signature")
		}
	case ed25519.PublicKey:
		if !ed25519.Verify(key, digest[:], signature) {
			return errors.New("invalid share signature")
		}
	default:
		return errors.New("guardian public key is neither ECDSA nor ED25519")
	}

	c.receivedShares[shareIndex] = bytes.Clone(share)
	return c.tryReconstruct()
}

// tryReconstruct combines the received shares once the threshold is met.
// The combined key only unlocks the custody if it derives the expected
// owner address; otherwise the share set is discarded so guardians can
// resubmit. Shares are wiped either way.
func (c *KeyCustody) tryReconstruct() error {
	if len(c.receivedShares) < c.threshold {
		return nil
	}

	shares := make([][]byte, 0, len(c.receivedShares))
	for _, share := range c.receivedShares {
		shares = append(shares, share)
	}

	ownerKey, err := shamir.Combine(shares)
	if err != nil {
		c.resetShares()
		return fmt.Errorf("failed to reconstruct owner key: %w", err)
	}

	address, err := keyAddress(ownerKey)
	if err != nil {
		wipeBytes(ownerKey)
		c.resetShares()
		return fmt.Errorf("reconstructed key is invalid: %w", err)
	}
	if !address.Equal(c.ownerAddress) {
		wipeBytes(ownerKey)
		c.resetShares()
		return errors.New("reconstructed key does not derive the owner address")
	}

	c.ownerKey = ownerKey
	c.unlocked = true
	c.resetShares()

	return nil
}

func (c *KeyCustody) resetShares() {
	for i := range c.receivedShares {
		wipeBytes(c.receivedShares[i])
	}
	c.receivedShares = make(map[int][]byte)
}

// keyAddress derives the account address controlled by a raw 32-byte
// secp256k1 key.
func keyAddress(ownerKey []byte) (interfaces.Address, error) {
	key, err := ethcrypto.ToECDSA(ownerKey)
	if err != nil {
		return interfaces.Address{}, err
	}
	return interfaces.NewAddressFromBytes(ethcrypto.PubkeyToAddress(key.PublicKey).Bytes())
}

// IsUnlocked reports whether the owner key is available.
func (c *KeyCustody) IsUnlocked() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unlocked
}

// OwnerKey returns the reconstructed owner signing key. Returns an error
// while the custody is locked.
func (c *KeyCustody) OwnerKey() (*ecdsa.PrivateKey, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.unlocked {
		return nil, errors.New("custody is locked - need more shares to unlock")
	}
	return ethcrypto.ToECDSA(c.ownerKey)
}

// SignShare signs a share with a guardian's ECDSA private key. Guardians
// run this locally before submitting their share.
func SignShare(share []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	digest := sha256.Sum256(share)
	return ecdsa.SignASN1(rand.Reader, privateKey, digest[:])
}

func parseGuardianKey(pubKeyPEM []byte) (any, error) {
	block, _ := pem.Decode(pubKeyPEM)
	if block == nil {
		return nil, errors.New("failed to decode guardian public key PEM")
	}
	pubKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse guardian public key: %w", err)
	}
	return pubKey, nil
}

func validateGuardianKey(pubKeyPEM []byte) error {
	pubKey, err := parseGuardianKey(pubKeyPEM)
	if err != nil {
		return err
	}
	switch pubKey.(type) {
	case *ecdsa.PublicKey, ed25519.PublicKey:
		return nil
	default:
		return errors.New("unsupported guardian key type")
	}
}

func wipeBytes(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
