package position

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"solana-decision-core/internal/domain"
)

// Default monitor parameters.
const (
	DefaultTickInterval    = 2 * time.Second
	DefaultMaxHold         = 120 * time.Second
	DefaultExitSlippageBps = 300

	// Positions older than this with vol_5s under the collapse floor are
	// force-exited.
	volumeCollapseGrace = 30 * time.Second
	volumeCollapseFloor = 0.5
)

// stopLossPct maps each pathway to its loss threshold as a negative
// fraction. Copy entries get the tightest stop since they lean on someone
// else's conviction.
var stopLossPct = map[domain.Pathway]float64{
	domain.PathwayRank:     -0.20,
	domain.PathwayMomentum: -0.15,
	domain.PathwayCopy:     -0.10,
	domain.PathwayLate:     -0.15,
}

// ExitRequest instructs the engine to send a sell.
type ExitRequest struct {
	Mint        domain.Address
	Pathway     domain.Pathway
	SizeSOL     float64 // portion of the original size to liquidate
	Reason      string
	SlippageBps uint16
	Attempt     uint8 // prior failed sells for this position
}

// FeatureSource yields current mint features, typically the mint cache.
type FeatureSource interface {
	Get(mint domain.Address) (domain.MintFeatures, bool)
}

// Monitor sweeps live positions on a fixed interval and emits sell
// requests. Each tier and stop fires at most once; the tracker's
// exit-pending state suppresses duplicates while a sell is in flight.
type Monitor struct {
	tracker  *Tracker
	features FeatureSource
	exit     func(ExitRequest)

	tick    time.Duration
	maxHold time.Duration
	now     func() time.Time
}

// NewMonitor wires a monitor to a tracker, a feature source, and the
// callback that dispatches sells.
func NewMonitor(tracker *Tracker, features FeatureSource, exit func(ExitRequest)) *Monitor {
	return &Monitor{
		tracker:  tracker,
		features: features,
		exit:     exit,
		tick:     DefaultTickInterval,
		maxHold:  DefaultMaxHold,
		now:      time.Now,
	}
}

// Run sweeps until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep evaluates every holding once. Exported so tests and the engine can
// drive it without the ticker.
func (m *Monitor) Sweep() {
	now := m.now()
	for _, pos := range m.tracker.Holdings() {
		if pos.State != domain.PositionHolding {
			continue
		}
		m.evaluate(&pos, now)
	}
}

// evaluate applies the exit rules in priority order: profit tiers, then
// the pathway stop-loss, then max hold, then volume collapse.
func (m *Monitor) evaluate(pos *domain.ActivePosition, now time.Time) {
	feats, cached := m.features.Get(pos.Mint)
	if !cached || feats.Price <= 0 {
		// Blind on price. Time-based rules still apply.
		if pos.HeldFor(now) >= m.maxHold {
			m.requestExit(pos, 1.0, domain.ExitReasonMaxHold, 0)
		}
		return
	}

	m.tracker.UpdatePeak(pos.Mint, feats.Price)
	gain := pos.GainPct(feats.Price)

	if tier, pct := nextProfitTier(gain, pos.TiersHit); tier != 0 {
		m.requestExit(pos, pct, domain.ExitReasonProfitTier, tier)
		return
	}

	if gain <= stopLossPct[pos.Pathway] {
		m.requestExit(pos, 1.0, domain.ExitReasonStopLoss, 0)
		return
	}

	if pos.HeldFor(now) >= m.maxHold {
		m.requestExit(pos, 1.0, domain.ExitReasonMaxHold, 0)
		return
	}

	if pos.HeldFor(now) >= volumeCollapseGrace && feats.Vol5s < volumeCollapseFloor {
		m.requestExit(pos, 1.0, domain.ExitReasonVolumeCollapse, 0)
	}
}

// nextProfitTier returns the highest unfired tier the gain has reached and
// the fraction of the original size to sell.
func nextProfitTier(gain float64, hit uint8) (uint8, float64) {
	switch {
	case gain >= 1.00 && hit&domain.TierFlag100 == 0:
		return domain.TierFlag100, 1.00
	case gain >= 0.60 && hit&domain.TierFlag60 == 0:
		return domain.TierFlag60, 0.60
	case gain >= 0.30 && hit&domain.TierFlag30 == 0:
		return domain.TierFlag30, 0.30
	}
	return 0, 0
}

func (m *Monitor) requestExit(pos *domain.ActivePosition, pct float64, reason string, tierFlag uint8) {
	sizeSOL := pos.OriginalSizeSOL * pct
	if sizeSOL > pos.SizeSOL {
		sizeSOL = pos.SizeSOL
	}

	req := ExitRequest{
		Mint:        pos.Mint,
		Pathway:     pos.Pathway,
		SizeSOL:     sizeSOL,
		Reason:      reason,
		SlippageBps: DefaultExitSlippageBps,
		Attempt:     pos.SellAttempts,
	}
	if !m.tracker.MarkExitPending(req, tierFlag) {
		return
	}

	log.Info().
		Str("mint", pos.Mint.Short()).
		Str("pathway", pos.Pathway.String()).
		Str("reason", reason).
		Float64("size_sol", sizeSOL).
		Msg("exit triggered")

	m.exit(req)
}
