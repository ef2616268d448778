// Package solana holds chain-adjacent helpers: ed25519 key validation and
// the live price feed client for held mints.
package solana

import (
	"filippo.io/edwards25519"

	"solana-decision-core/internal/domain"
)

// IsOnCurve reports whether an address is a valid ed25519 curve point.
// Regular wallets are on-curve; PDAs and garbage bytes are not. Copy-trade
// advisories naming an off-curve wallet are producer bugs and get dropped.
func IsOnCurve(addr domain.Address) bool {
	_, err := new(edwards25519.Point).SetBytes(addr[:])
	return err == nil
}
