// Package validation is the ordered pre-trade gate. Checks run in a fixed
// order and short-circuit on the first failure, so a trade that fails
// several checks always reports the earliest one.
package validation

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"solana-decision-core/internal/domain"
)

// Config tunes the validation gate.
type Config struct {
	// FeeMultiple scales round-trip fees into the minimum profit target.
	FeeMultiple float64
	// MinProfitUSD is the absolute floor of the profit target.
	MinProfitUSD float64
	// ImpactCapFrac caps modeled impact at this fraction of the target.
	ImpactCapFrac float64
	// ScoreFloor is the minimum composite score.
	ScoreFloor float64
	// TipUSD and GasUSD are per-side fixed costs.
	TipUSD float64
	GasUSD float64
	// HotLaunchMaxAge triggers a non-fatal warning for older mints.
	HotLaunchMaxAge time.Duration
	// CreatorBlacklist rejects mints from these creators.
	CreatorBlacklist map[domain.Address]struct{}
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		FeeMultiple:     2.2,
		MinProfitUSD:    1.00,
		ImpactCapFrac:   0.45,
		ScoreFloor:      60,
		TipUSD:          0.10,
		GasUSD:          0.001,
		HotLaunchMaxAge: 5 * time.Minute,
	}
}

// Validator applies the gate.
type Validator struct {
	config Config
}

// New creates a Validator.
func New(config Config) *Validator {
	return &Validator{config: config}
}

// Result carries the economics computed while validating, for logging and
// the instruction builder.
type Result struct {
	Fees             domain.FeeEstimate
	ProfitTargetUSD  float64
	ImpactPct        float64
	ImpactUSD        float64
	ExpectedValueUSD float64
}

// Validate runs every check against an opportunity's current features.
// score is the composite follow-through score; sizeUSD the base position
// size converted at the current SOL rate. Returns a *RejectionError on the
// first failing check.
func (v *Validator) Validate(mint *domain.MintFeatures, score domain.ScoreComponents, sizeUSD float64, slippageBps uint16) (*Result, error) {
	// 1. Fee floor.
	fees := EstimateRoundTrip(sizeUSD, slippageBps, v.config.TipUSD, v.config.GasUSD)
	target := math.Max(v.config.MinProfitUSD, fees.RoundTripUSD*v.config.FeeMultiple)
	if fees.RoundTripUSD > target {
		return nil, reject(ReasonFeeFloor, "fees $%.2f exceed profit target $%.2f", fees.RoundTripUSD, target)
	}

	// 2. Impact cap.
	impactPct := estimateImpactPct(sizeUSD, mint.Vol60s, mint.LiquidityUSD)
	impactUSD := sizeUSD * impactPct / 100
	maxImpactUSD := target * v.config.ImpactCapFrac
	if impactUSD > maxImpactUSD {
		return nil, reject(ReasonImpactCap, "impact $%.2f exceeds cap $%.2f", impactUSD, maxImpactUSD)
	}

	// 3. Score floor.
	if score.Total < v.config.ScoreFloor {
		return nil, reject(ReasonScoreFloor, "score %.0f below floor %.0f", score.Total, v.config.ScoreFloor)
	}

	// 4. Creator blacklist.
	if !mint.Creator.IsZero() {
		if _, banned := v.config.CreatorBlacklist[mint.Creator]; banned {
			return nil, reject(ReasonCreatorBlacklist, "creator %s is blacklisted", mint.Creator.Short())
		}
	}

	// 5. Suspicious patterns.
	if err := checkSuspiciousPatterns(mint); err != nil {
		return nil, err
	}

	// 6. Age is a warning, not a rejection: the late pathway legitimately
	// trades old mints.
	if age := time.Duration(mint.AgeSeconds) * time.Second; age > v.config.HotLaunchMaxAge {
		log.Warn().
			Str("mint", mint.Mint.Short()).
			Dur("age", age).
			Msg("mint is past hot-launch window")
	}

	ev := expectedValueUSD(score.Total, mint, target, fees.RoundTripUSD)

	return &Result{
		Fees:             fees,
		ProfitTargetUSD:  target,
		ImpactPct:        impactPct,
		ImpactUSD:        impactUSD,
		ExpectedValueUSD: ev,
	}, nil
}

// EstimateRoundTrip models entry plus exit costs for a position.
func EstimateRoundTrip(sizeUSD float64, slippageBps uint16, tipUSD, gasUSD float64) domain.FeeEstimate {
	slippageUSD := sizeUSD * float64(slippageBps) / 10_000
	perSide := tipUSD + gasUSD + slippageUSD
	return domain.FeeEstimate{
		TipUSD:       tipUSD,
		GasUSD:       gasUSD,
		SlippageUSD:  slippageUSD,
		RoundTripUSD: perSide * 2,
	}
}

// estimateImpactPct models price impact as size over recent volume, dampened
// by pool depth. Capped at 100%.
func estimateImpactPct(sizeUSD, vol60s, liquidityUSD float64) float64 {
	liquidityProxy := math.Max(vol60s, 1)

	// 10 = 1% impact per $1 per SOL of 60s volume.
	raw := sizeUSD / liquidityProxy * 10

	// Deeper pools absorb more. sqrt dampens so depth never erases impact;
	// unknown depth assumes a shallow pool.
	depthFactor := 2.0
	if liquidityUSD > 0 {
		depthFactor = 1 / math.Max(math.Sqrt(liquidityUSD), 0.5)
	}

	return math.Min(raw*depthFactor, 100)
}

func checkSuspiciousPatterns(mint *domain.MintFeatures) error {
	// High volume with almost no distinct buyers reads as wash trading.
	if mint.Vol60s > 20 && mint.Buyers60s < 5 {
		return reject(ReasonWashTrading, "%.1f SOL volume from only %d buyers", mint.Vol60s, mint.Buyers60s)
	}

	// Buy flow far heavier than sell flow reads as a coordinated pump.
	if mint.BuySellRatio > 10 {
		return reject(ReasonBuySellRatio, "buy:sell ratio %.1f", mint.BuySellRatio)
	}

	// A single buyer with negligible volume means there is nobody to sell to.
	if mint.Buyers60s == 1 && mint.Vol60s < 1 {
		return reject(ReasonWeakDemand, "one buyer, %.2f SOL volume", mint.Vol60s)
	}

	// Near-zero price means a broken or drained token.
	if mint.Price < 1e-6 {
		return reject(ReasonDustPrice, "price %.10f", mint.Price)
	}

	return nil
}

// expectedValueUSD estimates EV from a sigmoid success probability over the
// score, shifted by flow and age factors. Logged for observability; the gate
// itself never rejects on EV.
func expectedValueUSD(score float64, mint *domain.MintFeatures, targetUSD, feesUSD float64) float64 {
	base := 1 / (1 + math.Exp(-(score-50)/15))
	prob := 0.1 + base*0.8

	// Heavy buy flow lifts the odds; one-sided selling drags them down.
	switch {
	case mint.BuySellRatio > 2:
		prob *= 1.1
	case mint.BuySellRatio > 0 && mint.BuySellRatio < 0.8:
		prob *= 0.8
	}

	if mint.AgeSeconds < 60 {
		prob *= 1.1
	}
	prob = math.Min(math.Max(prob, 0.1), 0.9)

	return prob*(targetUSD*1.5) - (1-prob)*feesUSD
}
