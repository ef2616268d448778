// Package guardrails applies anti-churn limits between validation and
// instruction send. Every rule must pass; the first failing rule vetoes
// the trade.
package guardrails

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"solana-decision-core/internal/domain"
)

// Config tunes the guardrail rules.
type Config struct {
	// LossWindow and LossThreshold define the loss backoff: this many
	// losses inside the window pauses all entries.
	LossWindow    time.Duration
	LossThreshold int
	// PauseFor is how long the loss backoff blocks entries.
	PauseFor time.Duration
	// MaxPositions caps concurrent open positions globally.
	MaxPositions int
	// MaxAdvisorPositions caps concurrent positions opened by the advisor
	// pathways (copy and late) together. Rank and momentum entries are
	// bounded only by MaxPositions and the global spacing.
	MaxAdvisorPositions int
	// AdvisorSpacing is the minimum gap between any two advisor decisions,
	// shared across copy and late.
	AdvisorSpacing time.Duration
	// GlobalSpacing is the minimum gap between any two decisions.
	GlobalSpacing time.Duration
	// WindowLimit and WindowSpan bound decisions per copied wallet and per
	// mint creator inside a sliding window.
	WindowLimit int
	WindowSpan  time.Duration
	// WalletCooling is the per-copied-wallet cooldown. Tier-A wallets
	// bypass it when their last copy was profitable.
	WalletCooling time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		LossWindow:          180 * time.Second,
		LossThreshold:       3,
		PauseFor:            120 * time.Second,
		MaxPositions:        3,
		MaxAdvisorPositions: 2,
		AdvisorSpacing:      30 * time.Second,
		GlobalSpacing:       100 * time.Millisecond,
		WindowLimit:         3,
		WindowSpan:          60 * time.Second,
		WalletCooling:       90 * time.Second,
	}
}

// Guardrails holds the mutable anti-churn state. All methods are safe for
// concurrent use, though in practice the decision goroutine is the only
// writer of decisions and the confirmation goroutine the only writer of
// outcomes.
type Guardrails struct {
	config  Config
	limiter *rate.Limiter

	mu             sync.Mutex
	lossTimes      []time.Time
	pauseUntil     time.Time
	openTotal      int
	openAdvisor    int
	lastAdvisor    time.Time
	walletWindow   map[domain.Address][]time.Time
	creatorWindow  map[domain.Address][]time.Time
	walletCooldown map[domain.Address]time.Time
	lastCopyWin    map[domain.Address]bool

	now func() time.Time
}

// New creates Guardrails with the given config.
func New(config Config) *Guardrails {
	return &Guardrails{
		config:         config,
		limiter:        rate.NewLimiter(rate.Every(config.GlobalSpacing), 1),
		walletWindow:   make(map[domain.Address][]time.Time),
		creatorWindow:  make(map[domain.Address][]time.Time),
		walletCooldown: make(map[domain.Address]time.Time),
		lastCopyWin:    make(map[domain.Address]bool),
		now:            time.Now,
	}
}

// isAdvisor reports whether a pathway rides producer advisories rather than
// raw flow; advisor entries carry stricter caps and spacing.
func isAdvisor(p domain.Pathway) bool {
	return p == domain.PathwayCopy || p == domain.PathwayLate
}

// Check runs every rule against an opportunity. copyWallet is the copied
// wallet on the copy pathway, zero otherwise; creator is the mint's creator
// when known. The global spacing token is only consumed when every other
// rule passes.
func (g *Guardrails) Check(pathway domain.Pathway, copyWallet domain.Address, tier domain.WalletTier, creator domain.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	// 1. Loss backoff.
	if now.Before(g.pauseUntil) {
		return veto(RuleLossBackoff, "paused for %s after repeated losses", g.pauseUntil.Sub(now).Round(time.Second))
	}

	// 2. Global concurrency cap.
	if g.openTotal >= g.config.MaxPositions {
		return veto(RuleMaxPositions, "%d positions open", g.openTotal)
	}

	// 3. Advisor concurrency cap, shared by copy and late.
	if isAdvisor(pathway) && g.openAdvisor >= g.config.MaxAdvisorPositions {
		return veto(RuleAdvisorLimit, "%d advisor positions open", g.openAdvisor)
	}

	// 4. Advisor spacing, one timer across both advisor pathways.
	if isAdvisor(pathway) && !g.lastAdvisor.IsZero() && now.Sub(g.lastAdvisor) < g.config.AdvisorSpacing {
		return veto(RuleAdvisorSpacing, "last advisor decision %s ago", now.Sub(g.lastAdvisor).Round(time.Millisecond))
	}

	// 5. Sliding-window limits per copied wallet and per creator.
	if !copyWallet.IsZero() {
		if hits := prune(g.walletWindow, copyWallet, now, g.config.WindowSpan); len(hits) >= g.config.WindowLimit {
			return veto(RuleWalletWindow, "%d decisions from wallet %s inside %s", len(hits), copyWallet.Short(), g.config.WindowSpan)
		}
	}
	if !creator.IsZero() {
		if hits := prune(g.creatorWindow, creator, now, g.config.WindowSpan); len(hits) >= g.config.WindowLimit {
			return veto(RuleCreatorWindow, "%d decisions on creator %s inside %s", len(hits), creator.Short(), g.config.WindowSpan)
		}
	}

	// 6. Wallet cooling, copy pathway only.
	if pathway == domain.PathwayCopy && !copyWallet.IsZero() {
		if until, ok := g.walletCooldown[copyWallet]; ok && now.Before(until) {
			if !(tier == domain.TierA && g.lastCopyWin[copyWallet]) {
				return veto(RuleWalletCooling, "wallet %s cooling for %s", copyWallet.Short(), until.Sub(now).Round(time.Second))
			}
		}
	}

	// 7. Global spacing, checked last so a trade vetoed above does not
	// consume the token.
	if !g.limiter.Allow() {
		return veto(RuleGlobalSpacing, "decisions closer than %s", g.config.GlobalSpacing)
	}

	return nil
}

// prune drops window entries older than span and returns what remains.
func prune(windows map[domain.Address][]time.Time, key domain.Address, now time.Time, span time.Duration) []time.Time {
	kept := windows[key][:0]
	for _, ts := range windows[key] {
		if now.Sub(ts) < span {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(windows, key)
		return nil
	}
	windows[key] = kept
	return kept
}

// RecordDecision updates spacing, window and cooldown state after an
// instruction is sent. Called on send, not on confirmation.
func (g *Guardrails) RecordDecision(pathway domain.Pathway, copyWallet, creator domain.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if isAdvisor(pathway) {
		g.lastAdvisor = now
	}
	if !copyWallet.IsZero() {
		g.walletWindow[copyWallet] = append(prune(g.walletWindow, copyWallet, now, g.config.WindowSpan), now)
	}
	if !creator.IsZero() {
		g.creatorWindow[creator] = append(prune(g.creatorWindow, creator, now, g.config.WindowSpan), now)
	}
	if pathway == domain.PathwayCopy && !copyWallet.IsZero() {
		g.walletCooldown[copyWallet] = now.Add(g.config.WalletCooling)
	}
}

// PositionOpened bumps the concurrency counters. Called when a buy
// instruction goes out; the slot is released by PositionClosed.
func (g *Guardrails) PositionOpened(pathway domain.Pathway) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.openTotal++
	if isAdvisor(pathway) {
		g.openAdvisor++
	}
}

// PositionClosed releases a concurrency slot, from a failed buy or a full
// exit.
func (g *Guardrails) PositionClosed(pathway domain.Pathway) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.openTotal > 0 {
		g.openTotal--
	}
	if isAdvisor(pathway) && g.openAdvisor > 0 {
		g.openAdvisor--
	}
}

// RecordOutcome feeds a closed trade back into the loss backoff and the
// copy cooling bypass. Called on sell confirmation.
func (g *Guardrails) RecordOutcome(win bool, copyWallet domain.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	if !copyWallet.IsZero() {
		g.lastCopyWin[copyWallet] = win
	}

	if win {
		return
	}

	// Keep only losses inside the window, then check the threshold.
	kept := g.lossTimes[:0]
	for _, ts := range g.lossTimes {
		if now.Sub(ts) <= g.config.LossWindow {
			kept = append(kept, ts)
		}
	}
	g.lossTimes = append(kept, now)

	if len(g.lossTimes) >= g.config.LossThreshold {
		g.pauseUntil = now.Add(g.config.PauseFor)
		g.lossTimes = g.lossTimes[:0]
	}
}

// OpenPositions returns the global open-position count.
func (g *Guardrails) OpenPositions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.openTotal
}

// Paused reports whether the loss backoff is active.
func (g *Guardrails) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.now().Before(g.pauseUntil)
}
