package idhash

import (
	"testing"

	"solana-decision-core/internal/domain"
)

func testAddr(seed byte) domain.Address {
	var a domain.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

func TestComputeDecisionID(t *testing.T) {
	got := ComputeDecisionID(testAddr(1), domain.PathwayRank, 1704067234567)

	if len(got) != 64 {
		t.Errorf("ComputeDecisionID() length = %d, want 64", len(got))
	}

	// Verify determinism: same inputs should produce same output
	got2 := ComputeDecisionID(testAddr(1), domain.PathwayRank, 1704067234567)
	if got != got2 {
		t.Errorf("ComputeDecisionID() not deterministic: %s != %s", got, got2)
	}
}

func TestComputeDecisionID_DifferentInputs(t *testing.T) {
	base := ComputeDecisionID(testAddr(1), domain.PathwayRank, 1704067234567)

	variants := []string{
		ComputeDecisionID(testAddr(2), domain.PathwayRank, 1704067234567),
		ComputeDecisionID(testAddr(1), domain.PathwayMomentum, 1704067234567),
		ComputeDecisionID(testAddr(1), domain.PathwayRank, 1704067234568),
	}

	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collides with base id", i)
		}
	}
}
