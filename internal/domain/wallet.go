package domain

import "time"

// WalletTier classifies a tracked wallet's historical performance.
type WalletTier uint8

const (
	// TierDiscovery is the default for wallets without enough history.
	TierDiscovery WalletTier = iota
	TierC
	TierB
	TierA
)

// String returns the tier letter used in logs and DB rows.
func (t WalletTier) String() string {
	switch t {
	case TierA:
		return "A"
	case TierB:
		return "B"
	case TierC:
		return "C"
	default:
		return "DISCOVERY"
	}
}

// minTrades is the sample size below which a wallet stays in Discovery.
const minTradesForTier = 10

// WalletFeatures holds a tracked wallet's performance profile.
type WalletFeatures struct {
	Wallet         Address    // wallet address
	Tier           WalletTier // classification, computed at refresh
	Trades         uint32     // total closed copy-relevant trades
	Wins           uint32     // winning trades
	RealizedPnLUSD float64    // lifetime realized pnl in USD
	WinRate        float64    // wins / trades, 0 when no trades
	AvgHoldSeconds float64    // mean hold duration of closed trades
	BootstrapScore float64    // provisional quality score for Discovery wallets
	LastUpdate     time.Time  // wall-clock time of the last refresh
}

// ClassifyTier derives the wallet tier from its track record.
// Wallets with fewer than 10 trades stay in Discovery regardless of results.
func ClassifyTier(trades uint32, winRate, pnlUSD float64) WalletTier {
	if trades < minTradesForTier {
		return TierDiscovery
	}
	switch {
	case winRate >= 0.60 && pnlUSD >= 100:
		return TierA
	case winRate >= 0.55 && pnlUSD >= 40:
		return TierB
	case winRate >= 0.50 && pnlUSD >= 15:
		return TierC
	default:
		return TierDiscovery
	}
}

// BootstrapScore estimates quality for wallets still in Discovery:
// 50 baseline, +2 per win, +pnl/5, clamped to [0, 90].
func BootstrapScore(wins uint32, pnlUSD float64) float64 {
	score := 50 + float64(wins)*2 + pnlUSD/5
	if score < 0 {
		return 0
	}
	if score > 90 {
		return 90
	}
	return score
}

// Confidence maps the wallet profile to a copy-trade confidence (0-99).
// Tier base values get small boosts for exceptional win rate and sample size.
func (w *WalletFeatures) Confidence() uint8 {
	var conf float64
	switch w.Tier {
	case TierA:
		conf = 93
	case TierB:
		conf = 87
	case TierC:
		conf = 80
	default:
		conf = w.BootstrapScore
		if conf < 50 {
			conf = 50
		}
	}
	if w.WinRate > 0.70 {
		conf += 3
	}
	if w.Trades > 50 {
		conf += 2
	}
	if conf > 99 {
		conf = 99
	}
	return uint8(conf)
}
