package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-decision-core/internal/domain"
)

func addr(seed byte) domain.Address {
	var a domain.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

// healthyMint passes every check at its defaults.
func healthyMint() *domain.MintFeatures {
	return &domain.MintFeatures{
		Mint:         addr(1),
		Price:        0.000002,
		LiquidityUSD: 50_000,
		Vol60s:       40,
		Buyers60s:    30,
		BuySellRatio: 2.5,
		AgeSeconds:   45,
	}
}

func passingScore() domain.ScoreComponents {
	return domain.ScoreComponents{Total: 75}
}

func reason(t *testing.T, err error) RejectReason {
	t.Helper()
	var rej *RejectionError
	require.True(t, errors.As(err, &rej), "expected RejectionError, got %v", err)
	return rej.Reason
}

func TestValidatePasses(t *testing.T) {
	v := New(DefaultConfig())

	res, err := v.Validate(healthyMint(), passingScore(), 1500, 150)
	require.NoError(t, err)

	assert.Greater(t, res.ProfitTargetUSD, 0.99)
	assert.Greater(t, res.Fees.RoundTripUSD, 0.0)
	assert.LessOrEqual(t, res.ImpactUSD, res.ProfitTargetUSD*0.45)
}

func TestFeeEstimateRoundTrip(t *testing.T) {
	fees := EstimateRoundTrip(1000, 150, 0.10, 0.001)

	// Per side: 0.10 + 0.001 + 1000*0.015 = 15.101
	assert.InDelta(t, 15.0, fees.SlippageUSD, 1e-9)
	assert.InDelta(t, 30.202, fees.RoundTripUSD, 1e-9)
}

func TestImpactCapRejects(t *testing.T) {
	v := New(DefaultConfig())

	m := healthyMint()
	m.Vol60s = 2 // thin volume makes a large size punishing
	m.LiquidityUSD = 0

	_, err := v.Validate(m, passingScore(), 2000, 150)
	assert.Equal(t, ReasonImpactCap, reason(t, err))
}

func TestScoreFloorRejects(t *testing.T) {
	v := New(DefaultConfig())

	_, err := v.Validate(healthyMint(), domain.ScoreComponents{Total: 59}, 1500, 150)
	assert.Equal(t, ReasonScoreFloor, reason(t, err))
}

func TestCreatorBlacklistRejects(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CreatorBlacklist = map[domain.Address]struct{}{addr(66): {}}
	v := New(cfg)

	m := healthyMint()
	m.Creator = addr(66)

	_, err := v.Validate(m, passingScore(), 1500, 150)
	assert.Equal(t, ReasonCreatorBlacklist, reason(t, err))
}

func TestSuspiciousPatterns(t *testing.T) {
	v := New(DefaultConfig())

	wash := healthyMint()
	wash.Vol60s = 25
	wash.Buyers60s = 3
	_, err := v.Validate(wash, passingScore(), 100, 150)
	assert.Equal(t, ReasonWashTrading, reason(t, err))

	pump := healthyMint()
	pump.BuySellRatio = 12
	_, err = v.Validate(pump, passingScore(), 100, 150)
	assert.Equal(t, ReasonBuySellRatio, reason(t, err))

	lonely := healthyMint()
	lonely.Buyers60s = 1
	lonely.Vol60s = 0.4
	_, err = v.Validate(lonely, passingScore(), 20, 150)
	assert.Equal(t, ReasonWeakDemand, reason(t, err))

	dust := healthyMint()
	dust.Price = 1e-8
	_, err = v.Validate(dust, passingScore(), 100, 150)
	assert.Equal(t, ReasonDustPrice, reason(t, err))
}

func TestBuySellRatioShiftsExpectedValue(t *testing.T) {
	v := New(DefaultConfig())

	balanced := healthyMint()
	balanced.BuySellRatio = 1.0
	resBalanced, err := v.Validate(balanced, passingScore(), 1500, 150)
	require.NoError(t, err)

	heavy := healthyMint()
	heavy.BuySellRatio = 3.0
	resHeavy, err := v.Validate(heavy, passingScore(), 1500, 150)
	require.NoError(t, err)

	dumping := healthyMint()
	dumping.BuySellRatio = 0.5
	resDumping, err := v.Validate(dumping, passingScore(), 1500, 150)
	require.NoError(t, err)

	assert.Greater(t, resHeavy.ExpectedValueUSD, resBalanced.ExpectedValueUSD)
	assert.Less(t, resDumping.ExpectedValueUSD, resBalanced.ExpectedValueUSD)
}

// A trade failing several checks reports the earliest one.
func TestCheckOrdering(t *testing.T) {
	v := New(DefaultConfig())

	m := healthyMint()
	m.Vol60s = 2       // fails impact cap
	m.LiquidityUSD = 0 // no depth dampening
	m.Price = 1e-8     // would also fail dust price

	_, err := v.Validate(m, domain.ScoreComponents{Total: 10}, 2000, 150)
	assert.Equal(t, ReasonImpactCap, reason(t, err), "impact cap runs before score and patterns")
}

func TestOldMintWarnsButPasses(t *testing.T) {
	v := New(DefaultConfig())

	m := healthyMint()
	m.AgeSeconds = 1800

	_, err := v.Validate(m, passingScore(), 1500, 150)
	assert.NoError(t, err, "age past the hot-launch window is a warning, not a rejection")
}
