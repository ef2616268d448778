package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-decision-core/internal/domain"
	"solana-decision-core/internal/protocol"
)

func TestDetectorRankWinsOverMomentum(t *testing.T) {
	d := NewDetector(DefaultTriggerConfig())
	mint := engineMint(50)

	// A surging mint that would also qualify for momentum.
	feats := &domain.MintFeatures{Mint: mint, Vol5s: 20, Buyers2s: 10, Vol60s: 40, Buyers60s: 30}

	opp, ok := d.Detect(protocol.RankAdvisory{Mint: mint, Rank: 1, Score: 85}, feats, nil)
	require.True(t, ok)
	assert.Equal(t, domain.PathwayRank, opp.Pathway())
	assert.InDelta(t, 10.0, opp.BaseSizeSOL(), 1e-9)
}

func TestDetectorRankFallsThroughToMomentum(t *testing.T) {
	d := NewDetector(DefaultTriggerConfig())
	mint := engineMint(51)
	feats := &domain.MintFeatures{Mint: mint, Vol5s: 20, Buyers2s: 10}

	// Rank too low, momentum catches the surge.
	opp, ok := d.Detect(protocol.RankAdvisory{Mint: mint, Rank: 5, Score: 85}, feats, nil)
	require.True(t, ok)
	assert.Equal(t, domain.PathwayMomentum, opp.Pathway())
	assert.Equal(t, uint8(85), opp.Confidence())
}

func TestDetectorMomentumThresholds(t *testing.T) {
	d := NewDetector(DefaultTriggerConfig())
	mint := engineMint(52)

	cases := []struct {
		name  string
		feats domain.MintFeatures
		score uint8
		want  bool
	}{
		{"fires at thresholds", domain.MintFeatures{Vol5s: 8, Buyers2s: 5}, 60, true},
		{"buyers short", domain.MintFeatures{Vol5s: 8, Buyers2s: 4}, 60, false},
		{"volume short", domain.MintFeatures{Vol5s: 7.9, Buyers2s: 5}, 60, false},
		{"score short", domain.MintFeatures{Vol5s: 8, Buyers2s: 5}, 59, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			feats := tc.feats
			feats.Mint = mint
			_, ok := d.Detect(protocol.MomentumAdvisory{
				Mint: mint, Vol5s: feats.Vol5s, Buyers2s: uint16(feats.Buyers2s), Score: tc.score,
			}, &feats, nil)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestDetectorCopyRequirements(t *testing.T) {
	d := NewDetector(DefaultTriggerConfig())
	mint := engineMint(53)
	wallet := engineMint(54)
	feats := &domain.MintFeatures{Mint: mint}

	tierA := &domain.WalletFeatures{Wallet: wallet, Tier: domain.TierA, Trades: 20, Wins: 16, WinRate: 0.8}
	discovery := &domain.WalletFeatures{Wallet: wallet, Tier: domain.TierDiscovery, BootstrapScore: 60}

	adv := protocol.CopyTradeAdvisory{Mint: mint, Wallet: wallet, SizeLamports: domain.SOLToLamports(2)}

	opp, ok := d.Detect(adv, feats, tierA)
	require.True(t, ok)
	copyOpp, isCopy := opp.(domain.CopyOpportunity)
	require.True(t, isCopy)
	assert.InDelta(t, 2.4, copyOpp.BaseSizeSOL(), 1e-9)
	assert.Equal(t, domain.TierA, copyOpp.WalletTier)

	// Discovery wallets never reach the confidence bar.
	_, ok = d.Detect(adv, feats, discovery)
	assert.False(t, ok)

	// Dust copies are ignored even from Tier A.
	small := protocol.CopyTradeAdvisory{Mint: mint, Wallet: wallet, SizeLamports: domain.SOLToLamports(0.2)}
	_, ok = d.Detect(small, feats, tierA)
	assert.False(t, ok)

	// No wallet profile, no trigger.
	_, ok = d.Detect(adv, feats, nil)
	assert.False(t, ok)
}

func TestDetectorLateThresholds(t *testing.T) {
	d := NewDetector(DefaultTriggerConfig())
	mint := engineMint(55)

	feats := &domain.MintFeatures{
		Mint: mint, Vol60s: 35, Buyers60s: 40, AgeSeconds: 1201,
	}
	opp, ok := d.Detect(protocol.LateAdvisory{
		Mint: mint, Vol60s: 35, Buyers60s: 40, AgeSecs: 1201, Score: 70,
	}, feats, nil)
	require.True(t, ok)
	assert.Equal(t, domain.PathwayLate, opp.Pathway())
	assert.InDelta(t, 5.0, opp.BaseSizeSOL(), 1e-9)

	// Exactly at the age boundary does not fire.
	feats.AgeSeconds = 1200
	_, ok = d.Detect(protocol.LateAdvisory{
		Mint: mint, Vol60s: 35, Buyers60s: 40, AgeSecs: 1200, Score: 70,
	}, feats, nil)
	assert.False(t, ok)
}

func TestDetectorNoScoreNoVolumePathways(t *testing.T) {
	d := NewDetector(DefaultTriggerConfig())
	mint := engineMint(56)

	// A copy advisory on a surging mint must not fire momentum: it
	// carries no producer score.
	feats := &domain.MintFeatures{Mint: mint, Vol5s: 20, Buyers2s: 10, Vol60s: 50, Buyers60s: 60, AgeSeconds: 2000}
	adv := protocol.CopyTradeAdvisory{Mint: mint, Wallet: engineMint(57), SizeLamports: domain.SOLToLamports(0.1)}

	_, ok := d.Detect(adv, feats, &domain.WalletFeatures{Tier: domain.TierDiscovery})
	assert.False(t, ok)
}
