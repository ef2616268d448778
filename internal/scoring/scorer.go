// Package scoring computes the composite follow-through score that gates
// every entry: how likely is it that buyers keep coming after we do.
package scoring

import (
	"math"

	"solana-decision-core/internal/domain"
)

// Component weights. Buyer momentum and volume depth dominate; wallet
// quality is a tie-breaker.
const (
	weightBuyer   = 0.4
	weightVolume  = 0.4
	weightQuality = 0.2
)

// volumeSaturationSOL is the 60s volume at which the volume component
// reaches 100.
const volumeSaturationSOL = 50.0

// Scorer computes ScoreComponents from cached mint and wallet features.
type Scorer struct{}

// NewScorer creates a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the composite score for an opportunity. wallet is non-nil
// only on the copy-trade pathway.
func (s *Scorer) Score(mint *domain.MintFeatures, wallet *domain.WalletFeatures) domain.ScoreComponents {
	buyer := buyerScore(mint.Buyers60s)
	volume := volumeScore(mint.Vol60s)
	quality := qualityScore(wallet)

	return domain.ScoreComponents{
		BuyerScore:   buyer,
		VolumeScore:  volume,
		QualityScore: quality,
		Total:        clamp(weightBuyer*buyer + weightVolume*volume + weightQuality*quality),
		Buyers60s:    mint.Buyers60s,
		Vol60s:       mint.Vol60s,
	}
}

// buyerScore ramps linearly to 50 at five buyers, then logarithmically to
// 100 at around twenty. Zero buyers scores zero.
func buyerScore(buyers uint32) float64 {
	n := float64(buyers)
	switch {
	case n <= 0:
		return 0
	case n <= 5:
		return n * 10
	default:
		return clamp(50 + 50*math.Log(n/5)/math.Log(4))
	}
}

// volumeScore follows sqrt(vol/50)*100: fast early growth, saturating at
// 50 SOL of 60s volume.
func volumeScore(vol60s float64) float64 {
	if vol60s <= 0 {
		return 0
	}
	return clamp(math.Sqrt(vol60s/volumeSaturationSOL) * 100)
}

// qualityScore is the copied wallet's tier weight, or a neutral 50 when no
// wallet is involved.
func qualityScore(wallet *domain.WalletFeatures) float64 {
	if wallet == nil {
		return 50
	}
	switch wallet.Tier {
	case domain.TierA:
		return 95
	case domain.TierB:
		return 85
	case domain.TierC:
		return 75
	default:
		if wallet.BootstrapScore > 0 {
			return wallet.BootstrapScore
		}
		return 50
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
