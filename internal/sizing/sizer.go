// Package sizing turns a validated trade's base size and confidence into
// the final position size, bounded by portfolio heat.
package sizing

import (
	"math"

	"solana-decision-core/internal/domain"
)

// Strategy selects how confidence maps to size.
type Strategy string

const (
	// StrategyFixed always uses the pathway base size.
	StrategyFixed Strategy = "fixed"
	// StrategyConfidenceScaled interpolates min..max linearly over
	// confidence 0..100.
	StrategyConfidenceScaled Strategy = "confidence_scaled"
	// StrategyTiered uses three fixed steps.
	StrategyTiered Strategy = "tiered"
)

// Config tunes the sizer.
type Config struct {
	Strategy Strategy
	// MinSizeSOL and MaxSizeSOL clamp every result.
	MinSizeSOL float64
	MaxSizeSOL float64
	// PortfolioSOL is the total capital the core may deploy.
	PortfolioSOL float64
	// MaxPositionPct caps one position as a fraction of the portfolio.
	MaxPositionPct float64
	// HeatCapPct is the fraction of the portfolio that may ever be
	// committed at once.
	HeatCapPct float64
	// MaxOpenPositions is the book size utilization scaling is measured
	// against; kept in line with the guardrail concurrency cap.
	MaxOpenPositions int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Strategy:         StrategyConfidenceScaled,
		MinSizeSOL:       0.5,
		MaxSizeSOL:       10,
		PortfolioSOL:     50,
		MaxPositionPct:   0.25,
		HeatCapPct:       0.90,
		MaxOpenPositions: 3,
	}
}

// Sizer computes position sizes. Stateless; committed capital is passed in
// by the caller, which tracks open positions.
type Sizer struct {
	config Config
}

// New creates a Sizer.
func New(config Config) *Sizer {
	return &Sizer{config: config}
}

// Size returns the final size in SOL for a trade, or 0 when portfolio heat
// leaves no room (the caller treats 0 as a veto).
func (s *Sizer) Size(baseSOL float64, confidence uint8, committedSOL float64, openPositions int) float64 {
	size := s.bySizeStrategy(baseSOL, confidence)

	// Portfolio heat: keep headroom below the heat cap, and never let one
	// trade consume all of what is left.
	available := s.config.PortfolioSOL*s.config.HeatCapPct - committedSOL
	if available <= 0 {
		return 0
	}
	size = math.Min(size, available*0.8)

	// Utilization scaling: shrink entries as the book fills up.
	if s.config.MaxOpenPositions > 0 {
		utilization := float64(openPositions) / float64(s.config.MaxOpenPositions)
		switch {
		case utilization >= 0.80:
			size *= 0.5
		case utilization >= 0.60:
			size *= 0.75
		}
	}

	// Clamps.
	size = math.Min(size, s.config.MaxSizeSOL)
	size = math.Min(size, s.config.PortfolioSOL*s.config.MaxPositionPct)
	if size < s.config.MinSizeSOL {
		return 0
	}
	return size
}

func (s *Sizer) bySizeStrategy(baseSOL float64, confidence uint8) float64 {
	conf := math.Min(float64(confidence), 100)

	switch s.config.Strategy {
	case StrategyFixed:
		return baseSOL
	case StrategyTiered:
		switch {
		case conf < 50:
			return s.config.MinSizeSOL
		case conf < 75:
			return (s.config.MinSizeSOL + s.config.MaxSizeSOL) / 2
		default:
			return s.config.MaxSizeSOL
		}
	default: // confidence scaled
		scaled := s.config.MinSizeSOL + (s.config.MaxSizeSOL-s.config.MinSizeSOL)*conf/100
		// The pathway base size is an upper bound on conviction sizing.
		return math.Min(scaled, math.Max(baseSOL, s.config.MinSizeSOL))
	}
}

// Lamports converts a sized position to the wire unit.
func Lamports(sizeSOL float64) uint64 {
	return domain.SOLToLamports(sizeSOL)
}
