// Package position tracks the confirmation-gated lifecycle of positions
// and decides exits. Capital is only considered deployed once the executor
// confirms a fill; an instruction in flight is a reservation, not a
// position.
package position

import (
	"sync"
	"time"

	"solana-decision-core/internal/domain"
	"solana-decision-core/internal/protocol"
)

// maxSellAttempts is how many failed sells a position survives before it
// is abandoned and alarmed.
const maxSellAttempts = 3

// pendingBuy is a buy instruction awaiting confirmation.
type pendingBuy struct {
	pathway     domain.Pathway
	copyWallet  domain.Address
	sizeSOL     float64
	submittedAt time.Time
}

// UpdateKind tells the caller what a confirmation did.
type UpdateKind uint8

const (
	// UpdateIgnored: confirmation matched nothing we track.
	UpdateIgnored UpdateKind = iota
	// UpdateOpened: buy confirmed, position created.
	UpdateOpened
	// UpdateBuyFailed: buy rejected, reservation released. The mint
	// stays eligible for re-entry.
	UpdateBuyFailed
	// UpdateReduced: partial sell confirmed, position still live.
	UpdateReduced
	// UpdateClosed: final sell confirmed, position closed.
	UpdateClosed
	// UpdateSellFailed: sell rejected, will be retried.
	UpdateSellFailed
	// UpdateAbandoned: sell retries exhausted, position written off.
	UpdateAbandoned
)

// Update reports the effect of one confirmation.
type Update struct {
	Kind       UpdateKind
	Position   domain.ActivePosition // snapshot after the update
	CopyWallet domain.Address        // copy pathway only, zero otherwise
	// PnLSOL is the realized pnl of the confirmed sell portion.
	PnLSOL float64
	// Win reports whether the close was profitable. Valid on
	// UpdateClosed and UpdateAbandoned.
	Win bool
	// Retry carries the exit to resend after a failed sell.
	Retry *ExitRequest
}

// Tracker owns all position state. Confirmations arrive on one goroutine
// and the exit monitor ticks on another, so state is mutex-guarded.
type Tracker struct {
	mu       sync.Mutex
	pending  map[domain.Address]*pendingBuy
	holdings map[domain.Address]*domain.ActivePosition
	copyBy   map[domain.Address]domain.Address // mint -> copied wallet
	realized map[domain.Address]float64        // pnl accumulated across partial exits
	exits    map[domain.Address]ExitRequest    // in-flight sell per mint

	now func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		pending:  make(map[domain.Address]*pendingBuy),
		holdings: make(map[domain.Address]*domain.ActivePosition),
		copyBy:   make(map[domain.Address]domain.Address),
		realized: make(map[domain.Address]float64),
		exits:    make(map[domain.Address]ExitRequest),
		now:      time.Now,
	}
}

// RecordSubmitted registers a sent buy instruction. No ActivePosition
// exists until the executor confirms.
func (t *Tracker) RecordSubmitted(mint domain.Address, pathway domain.Pathway, copyWallet domain.Address, sizeSOL float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending[mint] = &pendingBuy{
		pathway:     pathway,
		copyWallet:  copyWallet,
		sizeSOL:     sizeSOL,
		submittedAt: t.now(),
	}
}

// HasExposure reports whether a mint has a pending buy or a live position,
// used to suppress duplicate entries.
func (t *Tracker) HasExposure(mint domain.Address) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, pending := t.pending[mint]
	_, held := t.holdings[mint]
	return pending || held
}

// Holdings returns snapshots of all live positions.
func (t *Tracker) Holdings() []domain.ActivePosition {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.ActivePosition, 0, len(t.holdings))
	for _, p := range t.holdings {
		out = append(out, *p)
	}
	return out
}

// OpenCount returns pending plus live positions.
func (t *Tracker) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending) + len(t.holdings)
}

// CommittedSOL returns capital reserved by pending buys plus deployed in
// live positions, the input to portfolio-heat sizing.
func (t *Tracker) CommittedSOL() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var total float64
	for _, p := range t.pending {
		total += p.sizeSOL
	}
	for _, h := range t.holdings {
		total += h.SizeSOL
	}
	return total
}

// HandleConfirmation applies one executor confirmation and reports what
// changed.
func (t *Tracker) HandleConfirmation(c *protocol.ExecutionConfirmation) Update {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c.Side == domain.SideBuy {
		return t.handleBuy(c)
	}
	return t.handleSell(c)
}

func (t *Tracker) handleBuy(c *protocol.ExecutionConfirmation) Update {
	pb, exists := t.pending[c.Mint]
	if !exists {
		return Update{Kind: UpdateIgnored}
	}
	delete(t.pending, c.Mint)

	if !c.Success {
		return Update{
			Kind:       UpdateBuyFailed,
			Position:   domain.ActivePosition{Mint: c.Mint, Pathway: pb.pathway, State: domain.PositionClosed},
			CopyWallet: pb.copyWallet,
		}
	}

	sizeSOL := domain.LamportsToSOL(c.SizeLamports)
	pos := &domain.ActivePosition{
		Mint:            c.Mint,
		Pathway:         pb.pathway,
		State:           domain.PositionHolding,
		EntryPrice:      c.Price(),
		SizeSOL:         sizeSOL,
		OriginalSizeSOL: sizeSOL,
		EntryTime:       t.now(),
		PeakPrice:       c.Price(),
	}
	t.holdings[c.Mint] = pos
	if !pb.copyWallet.IsZero() {
		t.copyBy[c.Mint] = pb.copyWallet
	}

	return Update{Kind: UpdateOpened, Position: *pos, CopyWallet: pb.copyWallet}
}

func (t *Tracker) handleSell(c *protocol.ExecutionConfirmation) Update {
	pos, exists := t.holdings[c.Mint]
	if !exists {
		return Update{Kind: UpdateIgnored}
	}
	wallet := t.copyBy[c.Mint]

	if !c.Success {
		pos.SellAttempts++
		if pos.SellAttempts >= maxSellAttempts {
			update := t.closeLocked(c.Mint, pos, wallet)
			update.Kind = UpdateAbandoned
			return update
		}
		retry := t.exits[c.Mint]
		retry.Attempt = pos.SellAttempts
		return Update{Kind: UpdateSellFailed, Position: *pos, CopyWallet: wallet, Retry: &retry}
	}

	soldSOL := domain.LamportsToSOL(c.SizeLamports)
	if soldSOL > pos.SizeSOL {
		soldSOL = pos.SizeSOL
	}
	pnl := (c.Price() - pos.EntryPrice) * solToTokens(soldSOL, pos.EntryPrice)
	t.realized[c.Mint] += pnl

	pos.SizeSOL -= soldSOL
	pos.SellAttempts = 0
	delete(t.exits, c.Mint)

	// Dust below 1% of the original size closes the position. The update
	// carries the cumulative pnl across all partial exits.
	if pos.SizeSOL <= pos.OriginalSizeSOL*0.01 {
		return t.closeLocked(c.Mint, pos, wallet)
	}

	pos.State = domain.PositionHolding
	return Update{Kind: UpdateReduced, Position: *pos, CopyWallet: wallet, PnLSOL: pnl}
}

// closeLocked finalizes a position and reports the cumulative outcome.
func (t *Tracker) closeLocked(mint domain.Address, pos *domain.ActivePosition, wallet domain.Address) Update {
	total := t.realized[mint]
	pos.State = domain.PositionClosed

	snapshot := *pos
	delete(t.holdings, mint)
	delete(t.copyBy, mint)
	delete(t.realized, mint)
	delete(t.exits, mint)

	return Update{
		Kind:       UpdateClosed,
		Position:   snapshot,
		CopyWallet: wallet,
		PnLSOL:     total,
		Win:        total > 0,
	}
}

// MarkExitPending flags a holding while its sell instruction is in flight,
// stamps profit tiers so they fire once, and remembers the request for
// retries. Returns false when the mint is not held or already exiting.
func (t *Tracker) MarkExitPending(req ExitRequest, tierFlag uint8) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos, exists := t.holdings[req.Mint]
	if !exists || pos.State != domain.PositionHolding {
		return false
	}
	pos.State = domain.PositionExitPending
	pos.TiersHit |= tierFlag
	t.exits[req.Mint] = req
	return true
}

// UpdatePeak raises a holding's peak price, used by gain calculations.
func (t *Tracker) UpdatePeak(mint domain.Address, price float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if pos, exists := t.holdings[mint]; exists && price > pos.PeakPrice {
		pos.PeakPrice = price
	}
}

// solToTokens converts a SOL amount at an entry price to a token quantity,
// so pnl is measured on the tokens actually sold.
func solToTokens(sol, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return sol / price
}
