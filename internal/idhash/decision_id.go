package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"solana-decision-core/internal/domain"
)

// ComputeDecisionID computes a deterministic decision trace id using SHA256.
// Formula: SHA256(mint|pathway|decided_at_unix_nanos)
// Returns hex-encoded hash (64 characters), used to correlate decision
// logs with executor confirmations.
func ComputeDecisionID(
	mint domain.Address,
	pathway domain.Pathway,
	decidedAt int64,
) string {
	data := fmt.Sprintf("%s|%s|%d",
		mint.String(),
		pathway.String(),
		decidedAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
