package domain

import "time"

// Side distinguishes buy and sell instructions. The byte value is carried
// on the wire.
type Side uint8

const (
	SideBuy  Side = 0
	SideSell Side = 1
)

func (s Side) String() string {
	if s == SideSell {
		return "sell"
	}
	return "buy"
}

// PositionState tracks the confirmation-gated lifecycle of a position.
type PositionState uint8

const (
	// PositionHolding: buy confirmed at an executed price, position live.
	// In-flight buys before confirmation exist only as tracker
	// reservations, never as a position state.
	PositionHolding PositionState = iota
	// PositionExitPending: a sell instruction is in flight.
	PositionExitPending
	// PositionClosed: fully exited or abandoned.
	PositionClosed
)

func (s PositionState) String() string {
	switch s {
	case PositionHolding:
		return "holding"
	case PositionExitPending:
		return "exit_pending"
	default:
		return "closed"
	}
}

// Exit reasons recorded on sell instructions and close events.
const (
	ExitReasonProfitTier     = "PROFIT_TIER"
	ExitReasonStopLoss       = "STOP_LOSS"
	ExitReasonMaxHold        = "MAX_HOLD"
	ExitReasonVolumeCollapse = "VOLUME_COLLAPSE"
	ExitReasonAbandoned      = "ABANDONED"
)

// Profit tier bitmask flags. A tier fires at most once per position.
const (
	TierFlag30  uint8 = 1 << 0 // +30% gain, sell 30% of original size
	TierFlag60  uint8 = 1 << 1 // +60% gain, sell 60% of original size
	TierFlag100 uint8 = 1 << 2 // +100% gain, full exit
)

// ActivePosition is a live holding. It is only ever created from a
// successful buy confirmation, never from an instruction send.
type ActivePosition struct {
	Mint            Address
	Pathway         Pathway
	State           PositionState
	EntryPrice      float64   // executed buy price, SOL
	SizeSOL         float64   // remaining size
	OriginalSizeSOL float64   // executed buy size
	EntryTime       time.Time // confirmation arrival time
	PeakPrice       float64   // highest price seen since entry
	TiersHit        uint8     // bitmask of profit tiers already taken
	SellAttempts    uint8     // failed sell confirmations so far
}

// GainPct returns the unrealized gain over entry as a fraction
// (0.30 = +30%). Zero entry price yields zero.
func (p *ActivePosition) GainPct(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return price/p.EntryPrice - 1
}

// HeldFor returns time since entry.
func (p *ActivePosition) HeldFor(now time.Time) time.Duration {
	return now.Sub(p.EntryTime)
}
