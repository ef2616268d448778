package domain

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Address is a raw 32-byte Solana account address (mint, wallet or creator).
type Address [32]byte

// ZeroAddress is the all-zero address, used as the "unset" sentinel.
var ZeroAddress Address

// AddressFromBase58 parses a base58-encoded address string.
func AddressFromBase58(s string) (Address, error) {
	var a Address
	decoded, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("decode address %q: %w", s, err)
	}
	if len(decoded) != 32 {
		return a, fmt.Errorf("address %q: expected 32 bytes, got %d", s, len(decoded))
	}
	copy(a[:], decoded)
	return a, nil
}

// AddressFromBytes copies a 32-byte slice into an Address.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != 32 {
		return a, fmt.Errorf("address: expected 32 bytes, got %d", len(b))
	}
	copy(a[:], b)
	return a, nil
}

// String returns the base58 encoding.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// Short returns a truncated base58 form for log lines.
func (a Address) Short() string {
	s := a.String()
	if len(s) <= 8 {
		return s
	}
	return s[:4] + ".." + s[len(s)-4:]
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}
