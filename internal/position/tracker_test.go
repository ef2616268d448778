package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-decision-core/internal/domain"
	"solana-decision-core/internal/protocol"
)

func testMint(t *testing.T, seed byte) domain.Address {
	t.Helper()
	var a domain.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

func buyConfirm(mint domain.Address, sizeSOL, price float64, success bool) *protocol.ExecutionConfirmation {
	return &protocol.ExecutionConfirmation{
		Mint:         mint,
		Side:         domain.SideBuy,
		SizeLamports: domain.SOLToLamports(sizeSOL),
		PriceScaled:  uint64(price * protocol.PriceScale),
		Success:      success,
	}
}

func sellConfirm(mint domain.Address, sizeSOL, price float64, success bool) *protocol.ExecutionConfirmation {
	c := buyConfirm(mint, sizeSOL, price, success)
	c.Side = domain.SideSell
	return c
}

func TestTrackerOpensOnlyOnConfirmedBuy(t *testing.T) {
	tr := NewTracker()
	mint := testMint(t, 1)

	tr.RecordSubmitted(mint, domain.PathwayRank, domain.ZeroAddress, 10)
	assert.True(t, tr.HasExposure(mint))
	assert.Empty(t, tr.Holdings(), "no position before confirmation")
	assert.Equal(t, 1, tr.OpenCount())
	assert.InDelta(t, 10.0, tr.CommittedSOL(), 1e-9)

	up := tr.HandleConfirmation(buyConfirm(mint, 9.5, 2e-6, true))
	require.Equal(t, UpdateOpened, up.Kind)
	assert.Equal(t, domain.PositionHolding, up.Position.State)
	assert.InDelta(t, 9.5, up.Position.SizeSOL, 1e-9, "size is the executed size, not the requested one")
	assert.InDelta(t, 2e-6, up.Position.EntryPrice, 1e-15)
	require.Len(t, tr.Holdings(), 1)
}

func TestTrackerFailedBuyReleasesMint(t *testing.T) {
	tr := NewTracker()
	mint := testMint(t, 2)

	tr.RecordSubmitted(mint, domain.PathwayMomentum, domain.ZeroAddress, 8)
	up := tr.HandleConfirmation(buyConfirm(mint, 0, 0, false))

	require.Equal(t, UpdateBuyFailed, up.Kind)
	assert.False(t, tr.HasExposure(mint), "mint must stay eligible for re-entry")
	assert.Zero(t, tr.CommittedSOL())
	assert.Zero(t, tr.OpenCount())
}

func TestTrackerIgnoresUnknownConfirmations(t *testing.T) {
	tr := NewTracker()

	up := tr.HandleConfirmation(buyConfirm(testMint(t, 3), 5, 1e-6, true))
	assert.Equal(t, UpdateIgnored, up.Kind)

	up = tr.HandleConfirmation(sellConfirm(testMint(t, 4), 5, 1e-6, true))
	assert.Equal(t, UpdateIgnored, up.Kind)
}

func TestTrackerPartialSellReducesThenCloses(t *testing.T) {
	tr := NewTracker()
	mint := testMint(t, 5)

	tr.RecordSubmitted(mint, domain.PathwayRank, domain.ZeroAddress, 10)
	tr.HandleConfirmation(buyConfirm(mint, 10, 1e-6, true))

	require.True(t, tr.MarkExitPending(ExitRequest{Mint: mint, SizeSOL: 3, Reason: domain.ExitReasonProfitTier}, domain.TierFlag30))

	// Sell 3 of 10 SOL at +30%.
	up := tr.HandleConfirmation(sellConfirm(mint, 3, 1.3e-6, true))
	require.Equal(t, UpdateReduced, up.Kind)
	assert.Equal(t, domain.PositionHolding, up.Position.State)
	assert.InDelta(t, 7.0, up.Position.SizeSOL, 1e-9)
	// 3 SOL at entry 1e-6 is 3e6 tokens; +0.3e-6 each.
	assert.InDelta(t, 0.9, up.PnLSOL, 1e-9)

	require.True(t, tr.MarkExitPending(ExitRequest{Mint: mint, SizeSOL: 7, Reason: domain.ExitReasonStopLoss}, 0))

	up = tr.HandleConfirmation(sellConfirm(mint, 7, 0.9e-6, true))
	require.Equal(t, UpdateClosed, up.Kind)
	assert.True(t, up.Win, "cumulative pnl is positive: +0.9 - 0.7")
	assert.InDelta(t, 0.2, up.PnLSOL, 1e-9)
	assert.False(t, tr.HasExposure(mint))
}

func TestTrackerSellFailureRetriesThenAbandons(t *testing.T) {
	tr := NewTracker()
	mint := testMint(t, 6)

	tr.RecordSubmitted(mint, domain.PathwayLate, domain.ZeroAddress, 5)
	tr.HandleConfirmation(buyConfirm(mint, 5, 1e-6, true))

	req := ExitRequest{Mint: mint, Pathway: domain.PathwayLate, SizeSOL: 5, Reason: domain.ExitReasonStopLoss}
	require.True(t, tr.MarkExitPending(req, 0))

	for attempt := uint8(1); attempt < maxSellAttempts; attempt++ {
		up := tr.HandleConfirmation(sellConfirm(mint, 0, 0, false))
		require.Equal(t, UpdateSellFailed, up.Kind)
		require.NotNil(t, up.Retry)
		assert.Equal(t, req.SizeSOL, up.Retry.SizeSOL)
		assert.Equal(t, attempt, up.Retry.Attempt)
	}

	up := tr.HandleConfirmation(sellConfirm(mint, 0, 0, false))
	require.Equal(t, UpdateAbandoned, up.Kind)
	assert.False(t, up.Win)
	assert.False(t, tr.HasExposure(mint))
}

func TestTrackerMarkExitPendingOncePerInFlightSell(t *testing.T) {
	tr := NewTracker()
	mint := testMint(t, 7)

	tr.RecordSubmitted(mint, domain.PathwayCopy, domain.ZeroAddress, 4)
	tr.HandleConfirmation(buyConfirm(mint, 4, 1e-6, true))

	req := ExitRequest{Mint: mint, SizeSOL: 4, Reason: domain.ExitReasonMaxHold}
	require.True(t, tr.MarkExitPending(req, 0))
	assert.False(t, tr.MarkExitPending(req, 0), "already exit-pending")
	assert.False(t, tr.MarkExitPending(ExitRequest{Mint: testMint(t, 8)}, 0), "unknown mint")
}

func TestTrackerCopyWalletPropagates(t *testing.T) {
	tr := NewTracker()
	mint := testMint(t, 9)
	wallet := testMint(t, 10)

	tr.RecordSubmitted(mint, domain.PathwayCopy, wallet, 6)
	up := tr.HandleConfirmation(buyConfirm(mint, 6, 1e-6, true))
	require.Equal(t, UpdateOpened, up.Kind)
	assert.Equal(t, wallet, up.CopyWallet)

	require.True(t, tr.MarkExitPending(ExitRequest{Mint: mint, SizeSOL: 6}, 0))
	up = tr.HandleConfirmation(sellConfirm(mint, 6, 2e-6, true))
	require.Equal(t, UpdateClosed, up.Kind)
	assert.Equal(t, wallet, up.CopyWallet)
	assert.True(t, up.Win)
}

func TestTrackerPeakTracking(t *testing.T) {
	tr := NewTracker()
	mint := testMint(t, 11)

	tr.RecordSubmitted(mint, domain.PathwayRank, domain.ZeroAddress, 2)
	tr.HandleConfirmation(buyConfirm(mint, 2, 1e-6, true))

	tr.UpdatePeak(mint, 3e-6)
	tr.UpdatePeak(mint, 2e-6) // lower, ignored

	holdings := tr.Holdings()
	require.Len(t, holdings, 1)
	assert.InDelta(t, 3e-6, holdings[0].PeakPrice, 1e-15)
}

func TestTrackerEntryTimeUsesClock(t *testing.T) {
	tr := NewTracker()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return base }

	mint := testMint(t, 12)
	tr.RecordSubmitted(mint, domain.PathwayRank, domain.ZeroAddress, 1)
	up := tr.HandleConfirmation(buyConfirm(mint, 1, 1e-6, true))
	require.Equal(t, UpdateOpened, up.Kind)
	assert.Equal(t, base, up.Position.EntryTime)
	assert.Equal(t, 30*time.Second, up.Position.HeldFor(base.Add(30*time.Second)))
}
