package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"solana-decision-core/internal/bus"
	"solana-decision-core/internal/domain"
	"solana-decision-core/internal/featurecache"
	"solana-decision-core/internal/guardrails"
	"solana-decision-core/internal/idhash"
	"solana-decision-core/internal/observability"
	"solana-decision-core/internal/position"
	"solana-decision-core/internal/protocol"
	"solana-decision-core/internal/scoring"
	"solana-decision-core/internal/sizing"
	"solana-decision-core/internal/solana"
	"solana-decision-core/internal/storage"
	"solana-decision-core/internal/validation"
)

// DefaultEntrySlippageBps is the slippage budget on buy instructions.
const DefaultEntrySlippageBps = 150

// Drop causes for advisories discarded before trigger evaluation.
const (
	dropAlreadyExposed = "already_exposed"
	dropStaleFeatures  = "stale_features"
	dropUnknownWallet  = "unknown_wallet"
	dropOffCurveWallet = "off_curve_wallet"
)

// DecisionSender sends encoded trade instructions to the executor.
type DecisionSender interface {
	Send(d *protocol.TradeDecision) error
}

// HoldingsFeed manages live price subscriptions for held mints.
type HoldingsFeed interface {
	Subscribe(mint domain.Address) error
	Unsubscribe(mint domain.Address) error
}

// Options wires the engine's collaborators.
type Options struct {
	Triggers    TriggerConfig
	SlippageBps uint16 // entry slippage, DefaultEntrySlippageBps when zero

	MintCache   *featurecache.MintCache
	WalletCache *featurecache.WalletCache
	SolPrice    *featurecache.SolPrice
	Validator   *validation.Validator
	Rails       *guardrails.Guardrails
	Sizer       *sizing.Sizer
	Dedup       *bus.Deduplicator
	Tracker     *position.Tracker
	Sender      DecisionSender

	// WalletStats journals copy-trade outcomes; optional.
	WalletStats storage.WalletStatStore
	// Feed subscribes held mints to the live price feed; optional.
	Feed HoldingsFeed
}

// Engine is the decision pipeline. HandleAdvisory runs on the advisory
// receive goroutine, HandleConfirmation on the confirmation goroutine, and
// HandleExit on the monitor goroutine; shared state lives behind the
// collaborators' own locks.
type Engine struct {
	detector    *Detector
	scorer      *scoring.Scorer
	slippageBps uint16

	mintCache   *featurecache.MintCache
	walletCache *featurecache.WalletCache
	solPrice    *featurecache.SolPrice
	validator   *validation.Validator
	rails       *guardrails.Guardrails
	sizer       *sizing.Sizer
	dedup       *bus.Deduplicator
	tracker     *position.Tracker
	sender      DecisionSender
	walletStats storage.WalletStatStore
	feed        HoldingsFeed

	now func() time.Time
}

// New creates an engine from options. Zero-valued trigger thresholds and
// slippage fall back to production defaults.
func New(opts Options) *Engine {
	triggers := opts.Triggers
	if triggers == (TriggerConfig{}) {
		triggers = DefaultTriggerConfig()
	}
	slippage := opts.SlippageBps
	if slippage == 0 {
		slippage = DefaultEntrySlippageBps
	}

	return &Engine{
		detector:    NewDetector(triggers),
		scorer:      scoring.NewScorer(),
		slippageBps: slippage,
		mintCache:   opts.MintCache,
		walletCache: opts.WalletCache,
		solPrice:    opts.SolPrice,
		validator:   opts.Validator,
		rails:       opts.Rails,
		sizer:       opts.Sizer,
		dedup:       opts.Dedup,
		tracker:     opts.Tracker,
		sender:      opts.Sender,
		walletStats: opts.WalletStats,
		feed:        opts.Feed,
		now:         time.Now,
	}
}

// SetFeed attaches the live price feed after construction. The feed needs
// the engine's tick handler, so the two are wired in stages.
func (e *Engine) SetFeed(feed HoldingsFeed) {
	e.feed = feed
}

// HandleAdvisory applies one producer advisory: cache patch first, then a
// decision attempt for mint-scoped kinds.
func (e *Engine) HandleAdvisory(adv protocol.Advisory) {
	start := e.now()

	switch a := adv.(type) {
	case protocol.SolPriceAdvisory:
		observability.RecordAdvisory("sol_price")
		e.solPrice.Set(a.PriceUSD)

	case protocol.WalletActivityAdvisory:
		observability.RecordAdvisory("wallet_activity")
		e.walletCache.Touch(a.Wallet)

	case protocol.RankAdvisory:
		observability.RecordAdvisory("rank")
		e.mintCache.ApplyAdvisory(a.Mint, func(m *domain.MintFeatures) {
			m.Vol60s = a.Vol60s
			m.Buyers60s = uint32(a.Buyers60s)
			m.AgeSeconds = uint64(a.AgeSecs)
		})
		e.decide(adv, a.Mint, domain.ZeroAddress, start)

	case protocol.MomentumAdvisory:
		observability.RecordAdvisory("momentum")
		e.mintCache.ApplyAdvisory(a.Mint, func(m *domain.MintFeatures) {
			m.Vol5s = a.Vol5s
			m.Buyers2s = uint32(a.Buyers2s)
		})
		e.decide(adv, a.Mint, domain.ZeroAddress, start)

	case protocol.LateAdvisory:
		observability.RecordAdvisory("late")
		e.mintCache.ApplyAdvisory(a.Mint, func(m *domain.MintFeatures) {
			m.Vol60s = a.Vol60s
			m.Buyers60s = uint32(a.Buyers60s)
			m.AgeSeconds = uint64(a.AgeSecs)
		})
		e.decide(adv, a.Mint, domain.ZeroAddress, start)

	case protocol.CopyTradeAdvisory:
		observability.RecordAdvisory("copy_trade")
		if !solana.IsOnCurve(a.Wallet) {
			observability.RecordAdvisoryDropped(dropOffCurveWallet)
			log.Warn().Str("wallet", a.Wallet.Short()).Msg("copy advisory names off-curve wallet")
			return
		}
		e.decide(adv, a.Mint, a.Wallet, start)
	}
}

// decide runs trigger detection through instruction send for one advisory.
func (e *Engine) decide(adv protocol.Advisory, mint, copyWallet domain.Address, start time.Time) {
	if e.tracker.HasExposure(mint) {
		observability.RecordAdvisoryDropped(dropAlreadyExposed)
		return
	}

	feats, cached := e.mintCache.Get(mint)
	if !cached || !e.mintCache.Fresh(mint, e.now()) {
		observability.RecordAdvisoryDropped(dropStaleFeatures)
		return
	}

	var walletFeats *domain.WalletFeatures
	tier := domain.TierDiscovery
	if !copyWallet.IsZero() {
		w, tracked := e.walletCache.Get(copyWallet)
		if !tracked {
			observability.RecordAdvisoryDropped(dropUnknownWallet)
			return
		}
		walletFeats = &w
		tier = w.Tier
	}

	opp, fired := e.detector.Detect(adv, &feats, walletFeats)
	if !fired {
		return
	}
	pathway := opp.Pathway()
	observability.RecordTrigger(pathway.String())

	score := e.scorer.Score(&feats, walletFeats)

	sizeUSD := opp.BaseSizeSOL() * e.solPrice.USD()
	result, err := e.validator.Validate(&feats, score, sizeUSD, e.slippageBps)
	if err != nil {
		var rej *validation.RejectionError
		if errors.As(err, &rej) {
			observability.RecordRejection(string(rej.Reason))
			log.Debug().
				Str("mint", mint.Short()).
				Str("pathway", pathway.String()).
				Str("reason", string(rej.Reason)).
				Str("detail", rej.Detail).
				Msg("entry rejected")
		}
		return
	}

	if err := e.rails.Check(pathway, copyWallet, tier, feats.Creator); err != nil {
		var v *guardrails.VetoError
		if errors.As(err, &v) {
			observability.RecordVeto(string(v.Rule))
			log.Debug().
				Str("mint", mint.Short()).
				Str("pathway", pathway.String()).
				Str("rule", string(v.Rule)).
				Msg("entry vetoed")
		}
		return
	}

	sizeSOL := e.sizer.Size(opp.BaseSizeSOL(), opp.Confidence(), e.tracker.CommittedSOL(), e.tracker.OpenCount())
	if sizeSOL <= 0 {
		observability.DefaultMetrics.SizeVetoes.Inc()
		return
	}

	if e.dedup.CheckAndMark(bus.DedupKey{Mint: mint, Kind: uint8(pathway)}) {
		observability.DefaultMetrics.DedupDuplicates.Inc()
		return
	}

	decision := &protocol.TradeDecision{
		Mint:         mint,
		Side:         domain.SideBuy,
		SizeLamports: sizing.Lamports(sizeSOL),
		SlippageBps:  e.slippageBps,
		Confidence:   opp.Confidence(),
		EntryType:    pathway,
	}
	if err := e.sender.Send(decision); err != nil {
		observability.DefaultMetrics.SendErrors.Inc()
		log.Error().Err(err).Str("mint", mint.Short()).Msg("instruction send failed")
		return
	}

	sent := e.now()
	e.rails.RecordDecision(pathway, copyWallet, feats.Creator)
	e.rails.PositionOpened(pathway)
	e.tracker.RecordSubmitted(mint, pathway, copyWallet, sizeSOL)

	log.Info().
		Str("decision_id", idhash.ComputeDecisionID(mint, pathway, sent.UnixNano())).
		Str("mint", mint.Short()).
		Str("pathway", pathway.String()).
		Float64("size_sol", sizeSOL).
		Uint8("confidence", opp.Confidence()).
		Float64("score", score.Total).
		Float64("target_usd", result.ProfitTargetUSD).
		Float64("ev_usd", result.ExpectedValueUSD).
		Msg("buy instruction sent")

	observability.RecordDecisionEmitted(pathway.String(), "buy", sent.Sub(start).Seconds(), sent.Unix())
	observability.UpdatePositionGauges(e.tracker.OpenCount(), e.tracker.CommittedSOL())
}

// HandleExit sends a sell instruction for an exit the monitor triggered, or
// the tracker re-requested after a failed sell.
func (e *Engine) HandleExit(req position.ExitRequest) {
	decision := &protocol.TradeDecision{
		Mint:         req.Mint,
		Side:         domain.SideSell,
		SizeLamports: sizing.Lamports(req.SizeSOL),
		SlippageBps:  req.SlippageBps,
		RetryCount:   req.Attempt,
		EntryType:    req.Pathway,
	}
	if err := e.sender.Send(decision); err != nil {
		observability.DefaultMetrics.SendErrors.Inc()
		log.Error().Err(err).Str("mint", req.Mint.Short()).Msg("sell send failed")
		return
	}

	sent := e.now()
	observability.RecordExit(req.Reason)
	observability.RecordDecisionEmitted(req.Pathway.String(), "sell", 0, sent.Unix())
}

// HandleConfirmation folds one executor confirmation into position state
// and the guardrail counters.
func (e *Engine) HandleConfirmation(c *protocol.ExecutionConfirmation) {
	up := e.tracker.HandleConfirmation(c)
	pos := up.Position

	switch up.Kind {
	case position.UpdateIgnored:
		return

	case position.UpdateOpened:
		observability.DefaultMetrics.PositionsOpened.WithLabelValues(pos.Pathway.String()).Inc()
		if e.feed != nil {
			if err := e.feed.Subscribe(pos.Mint); err != nil {
				log.Warn().Err(err).Str("mint", pos.Mint.Short()).Msg("price feed subscribe failed")
			}
		}
		log.Info().
			Str("mint", pos.Mint.Short()).
			Str("pathway", pos.Pathway.String()).
			Float64("entry_price", pos.EntryPrice).
			Float64("size_sol", pos.SizeSOL).
			Msg("position opened")

	case position.UpdateBuyFailed:
		e.rails.PositionClosed(pos.Pathway)
		log.Warn().
			Str("mint", pos.Mint.Short()).
			Str("pathway", pos.Pathway.String()).
			Msg("buy failed, reservation released")

	case position.UpdateReduced:
		log.Info().
			Str("mint", pos.Mint.Short()).
			Float64("pnl_sol", up.PnLSOL).
			Float64("remaining_sol", pos.SizeSOL).
			Msg("position reduced")

	case position.UpdateSellFailed:
		log.Warn().
			Str("mint", pos.Mint.Short()).
			Uint8("attempt", pos.SellAttempts).
			Msg("sell failed, retrying")
		if up.Retry != nil {
			e.HandleExit(*up.Retry)
		}

	case position.UpdateClosed:
		e.closePosition(up, false)

	case position.UpdateAbandoned:
		observability.DefaultMetrics.PositionsAbandon.Inc()
		log.Error().
			Str("mint", pos.Mint.Short()).
			Str("pathway", pos.Pathway.String()).
			Float64("stranded_sol", pos.SizeSOL).
			Msg("position abandoned after repeated sell failures")
		e.closePosition(up, true)
	}

	observability.UpdatePositionGauges(e.tracker.OpenCount(), e.tracker.CommittedSOL())
}

// closePosition releases guardrail slots, records the outcome, and journals
// copy results.
func (e *Engine) closePosition(up position.Update, abandoned bool) {
	pos := up.Position
	e.rails.PositionClosed(pos.Pathway)
	e.rails.RecordOutcome(up.Win, up.CopyWallet)
	observability.RecordClose(pos.Pathway.String(), up.PnLSOL)

	if e.feed != nil {
		if err := e.feed.Unsubscribe(pos.Mint); err != nil {
			log.Warn().Err(err).Str("mint", pos.Mint.Short()).Msg("price feed unsubscribe failed")
		}
	}

	if !abandoned {
		log.Info().
			Str("mint", pos.Mint.Short()).
			Str("pathway", pos.Pathway.String()).
			Float64("pnl_sol", up.PnLSOL).
			Bool("win", up.Win).
			Msg("position closed")
	}

	if e.walletStats != nil && !up.CopyWallet.IsZero() {
		pnlUSD := up.PnLSOL * e.solPrice.USD()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.walletStats.RecordCopyOutcome(ctx, up.CopyWallet, pos.Mint, pnlUSD, up.Win); err != nil {
			log.Warn().Err(err).Str("wallet", up.CopyWallet.Short()).Msg("copy outcome journal failed")
		}
	}
}

// HandlePriceTick applies one live price tick from the holdings feed.
func (e *Engine) HandlePriceTick(mint domain.Address, price float64) {
	observability.DefaultMetrics.PriceTicks.Inc()
	e.mintCache.ApplyPrice(mint, price)
	e.tracker.UpdatePeak(mint, price)
}
