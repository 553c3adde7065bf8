// Package cryptoutils provides the cryptographic primitives of the registry
// protocol: secp256k1 request signing and signer recovery, ECIES sealing of
// confidential device parameters, and passphrase-based key derivation for
// snapshot exports.
package cryptoutils

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// RequestDigest computes the keccak256 digest signed for an authenticated
// mutation: keccak256(method || 0x00 || body). The method string binds the
// signature to one operation so a signed payload cannot be replayed against
// a different endpoint.
func RequestDigest(method string, body []byte) interfaces.Hash32 {
	data := make([]byte, 0, len(method)+1+len(body))
	data = append(data, method...)
	data = append(data, 0x00)
	data = append(data, body...)

	var digest interfaces.Hash32
	copy(digest[:], crypto.Keccak256(data))
	return digest
}

// RequestMessage assembles the signed portion of an authenticated HTTP
// request: signedAt || 0x00 || path || 0x00 || body. Binding the timestamp
// and path keeps a captured signature from being replayed later or against
// another resource.
func RequestMessage(signedAt, path string, body []byte) []byte {
	message := make([]byte, 0, len(signedAt)+1+len(path)+1+len(body))
	message = append(message, signedAt...)
	message = append(message, 0x00)
	message = append(message, path...)
	message = append(message, 0x00)
	message = append(message, body...)
	return message
}

// SignDigest produces a 65-byte [R || S || V] signature over the digest.
func SignDigest(key *ecdsa.PrivateKey, digest interfaces.Hash32) ([]byte, error) {
	return crypto.Sign(digest[:], key)
}

// RecoverSigner recovers the address that produced the signature over the
// digest. The signature must be 65 bytes in [R || S || V] form.
func RecoverSigner(digest interfaces.Hash32, signature []byte) (interfaces.Address, error) {
	if len(signature) != 65 {
		return interfaces.Address{}, errors.New("invalid signature length: must be 65 bytes")
	}

	pubkey, err := crypto.SigToPub(digest[:], signature)
	if err != nil {
		return interfaces.Address{}, fmt.Errorf("signature recovery failed: %w", err)
	}

	return interfaces.NewAddressFromBytes(crypto.PubkeyToAddress(*pubkey).Bytes())
}

// GenerateKey creates a fresh secp256k1 keypair.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}

// KeyAddress derives the account address controlled by a private key.
func KeyAddress(key *ecdsa.PrivateKey) (interfaces.Address, error) {
	return interfaces.NewAddressFromBytes(crypto.PubkeyToAddress(key.PublicKey).Bytes())
}

// LoadKeyFromHex parses a hex-encoded secp256k1 private key, with or
// without a 0x prefix.
func LoadKeyFromHex(keyHex string) (*ecdsa.PrivateKey, error) {
	if len(keyHex) >= 2 && keyHex[:2] == "0x" {
		keyHex = keyHex[2:]
	}
	return crypto.HexToECDSA(keyHex)
}

// KeyToHex serializes a secp256k1 private key to hex.
func KeyToHex(key *ecdsa.PrivateKey) string {
	return fmt.Sprintf("%x", crypto.FromECDSA(key))
}
