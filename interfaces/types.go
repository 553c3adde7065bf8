// Package interfaces defines the core types and component interfaces of the
// FidesInnova registry protocol. It provides the contract between the ledger,
// storage, and API layers without implementation details.
package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// NodeID identifies an IoT node operated by a service provider.
type NodeID string

// Validate checks that the node identifier is non-empty and free of the
// composite-key separator.
func (id NodeID) Validate() error {
	if id == "" {
		return errors.New("empty node id")
	}
	if strings.Contains(string(id), KeySeparator) {
		return fmt.Errorf("node id must not contain %q", KeySeparator)
	}
	return nil
}

// String returns the node identifier as a string.
func (id NodeID) String() string {
	return string(id)
}

// KeySeparator joins the parts of a composite ledger key.
const KeySeparator = "/"

// CompositeKey builds the ledger key for an entry from its identifier parts.
func CompositeKey(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

// Address represents a 20-byte secp256k1-derived account address, as used
// for node managers, identity bindings, and device token owners.
type Address [20]byte

// NewAddressFromBytes creates an address from a raw 20-byte slice.
func NewAddressFromBytes(addr []byte) (Address, error) {
	if len(addr) != 20 {
		return Address{}, errors.New("invalid address length: must be 20 bytes")
	}

	var res Address
	copy(res[:], addr)
	return res, nil
}

// NewAddressFromHex creates an address from a 40-character hex string,
// with or without a 0x prefix.
func NewAddressFromHex(addr string) (Address, error) {
	clean := strings.TrimPrefix(addr, "0x")
	if len(clean) != 40 {
		return Address{}, errors.New("invalid address length: hex string must be 40 characters")
	}

	addrBytes, err := hex.DecodeString(clean)
	if err != nil {
		return Address{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewAddressFromBytes(addrBytes)
}

// String returns the hex string representation of the address.
func (addr Address) String() string {
	return hex.EncodeToString(addr[:])
}

// Bytes returns the raw 20-byte address.
func (addr Address) Bytes() []byte {
	return addr[:]
}

// Equal compares two addresses for equality.
func (addr Address) Equal(other Address) bool {
	return addr == other
}

// IsZero reports whether the address is the zero address.
func (addr Address) IsZero() bool {
	return addr == Address{}
}

// MarshalText implements encoding.TextMarshaler, hex-encoding the address.
func (addr Address) MarshalText() ([]byte, error) {
	return []byte(addr.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (addr *Address) UnmarshalText(text []byte) error {
	parsed, err := NewAddressFromHex(string(text))
	if err != nil {
		return err
	}
	*addr = parsed
	return nil
}

// Hash32 is a 32-byte hash value, hex-encoded in JSON and on the wire.
// It is used both for content identifiers (SHA-256) and for ledger-derived
// identifiers such as device token IDs (keccak256).
type Hash32 [32]byte

// NewHash32FromBytes creates a hash from a raw 32-byte slice.
func NewHash32FromBytes(source []byte) (Hash32, error) {
	if len(source) != 32 {
		return Hash32{}, errors.New("invalid hash length: must be 32 bytes")
	}

	var h Hash32
	copy(h[:], source)
	return h, nil
}

// NewHash32FromHex creates a hash from a 64-character hex string, with or
// without a 0x prefix.
func NewHash32FromHex(source string) (Hash32, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return Hash32{}, errors.New("invalid hash length: hex string must be 64 characters")
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return Hash32{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewHash32FromBytes(raw)
}

// String returns the hex representation of the hash.
func (h Hash32) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the raw 32-byte hash.
func (h Hash32) Bytes() []byte {
	return h[:]
}

// IsZero reports whether the hash is all zeroes.
func (h Hash32) IsZero() bool {
	return h == Hash32{}
}

// MarshalText implements encoding.TextMarshaler, hex-encoding the hash.
func (h Hash32) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash32) UnmarshalText(text []byte) error {
	parsed, err := NewHash32FromHex(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// NodeDomainName is the DNS name under which a node publishes its registry
// API endpoint as SRV records.
type NodeDomainName string

// NewNodeDomainName validates and creates a node domain name.
func NewNodeDomainName(domain string) (NodeDomainName, error) {
	domainRegex := regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}\.?$`)
	if !domainRegex.MatchString(domain) {
		return NodeDomainName(""), errors.New("invalid domain name format")
	}

	return NodeDomainName(domain), nil
}

// String returns the domain name as a string.
func (name NodeDomainName) String() string {
	return string(name)
}
