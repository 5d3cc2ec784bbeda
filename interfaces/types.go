package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// InstanceID is the sequential, never-reused identifier assigned to each
// created instance record. Identifiers are issued from a counter starting at
// zero; a destroyed instance keeps its identifier forever.
type InstanceID uint64

// ParseInstanceID parses a decimal identifier string.
func ParseInstanceID(s string) (InstanceID, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid instance identifier %q: %w", s, err)
	}
	return InstanceID(id), nil
}

// String returns the decimal representation of the identifier.
func (id InstanceID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// InstanceMetadata is the opaque metadata pointer associated with an
// instance, interpreted by external consumers (typically as a locator for
// descriptive data, e.g. "ipfs://<cid>").
type InstanceMetadata []byte

// String returns the payload as a string.
func (m InstanceMetadata) String() string {
	return string(m)
}

// ContractAddress represents an Ethereum contract address. The zero value is
// the empty sentinel marking a cleared or unset address.
type ContractAddress [20]byte

// NewContractAddressFromBytes creates a contract address from a 20-byte slice.
func NewContractAddressFromBytes(addr []byte) (ContractAddress, error) {
	if len(addr) != 20 {
		return ContractAddress{}, errors.New("invalid address length: must be 20 bytes")
	}

	var res ContractAddress
	copy(res[:], addr)
	return res, nil
}

// NewContractAddressFromHex creates a contract address from a hex string.
func NewContractAddressFromHex(addr string) (ContractAddress, error) {
	// Remove 0x prefix if present
	clean := strings.TrimPrefix(addr, "0x")
	if len(clean) != 40 {
		return ContractAddress{}, errors.New("invalid address length: hex string must be 40 characters")
	}

	// Validate hex format
	addrBytes, err := hex.DecodeString(clean)
	if err != nil {
		return ContractAddress{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewContractAddressFromBytes(addrBytes)
}

// String returns the hex string representation of the contract address.
func (addr ContractAddress) String() string {
	return "0x" + hex.EncodeToString(addr[:])
}

// Bytes returns the raw 20-byte address.
func (addr ContractAddress) Bytes() []byte {
	return addr[:]
}

// Equal compares two contract addresses for equality.
func (addr ContractAddress) Equal(other ContractAddress) bool {
	return addr == other
}

// IsZero reports whether the address is the empty sentinel.
func (addr ContractAddress) IsZero() bool {
	return addr == ContractAddress{}
}

// Salt is the 32-byte value determining the address of a deterministic
// deployment. A salt is consumable: once used for a given deployer and init
// code it cannot produce a second instance.
type Salt [32]byte

// NewSaltFromBytes creates a salt from a 32-byte slice.
func NewSaltFromBytes(source []byte) (Salt, error) {
	if len(source) != 32 {
		return Salt{}, errors.New("invalid salt length: must be 32 bytes")
	}

	var salt Salt
	copy(salt[:], source)
	return salt, nil
}

// NewSaltFromHex creates a salt from a hex string.
func NewSaltFromHex(source string) (Salt, error) {
	// Remove 0x prefix if present
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return Salt{}, errors.New("invalid salt length: hex string must be 64 characters")
	}

	saltBytes, err := hex.DecodeString(clean)
	if err != nil {
		return Salt{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewSaltFromBytes(saltBytes)
}

// SaltFromLabel derives a salt from a human-readable label.
func SaltFromLabel(label string) Salt {
	return Salt(crypto.Keccak256Hash([]byte(label)))
}

// String returns the hex string representation of the salt.
func (s Salt) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// Bytes returns the raw 32-byte salt.
func (s Salt) Bytes() []byte {
	return s[:]
}

// InstanceCreated is the notification emitted exactly once per successful
// creation, after the registry state is fully written.
type InstanceCreated struct {
	Address ContractAddress `json:"address"`
	ID      InstanceID      `json:"id"`
}
