package domain

// ScoreComponents breaks the composite follow-through score into its
// weighted parts. All components are clamped to [0, 100].
type ScoreComponents struct {
	BuyerScore   float64 // 40% weight: distinct-buyer momentum
	VolumeScore  float64 // 40% weight: 60s volume depth
	QualityScore float64 // 20% weight: wallet tier or neutral baseline
	Total        float64 // weighted sum

	// Inputs echoed for structured logging.
	Buyers60s uint32
	Vol60s    float64
}

// FeeEstimate is the modeled round-trip cost of a trade in USD.
type FeeEstimate struct {
	TipUSD       float64 // priority tip per side
	GasUSD       float64 // base fee per side
	SlippageUSD  float64 // size * slippage_bps / 10_000 per side
	RoundTripUSD float64 // 2 * (tip + gas + slippage)
}

// Lamports per SOL.
const LamportsPerSOL = 1_000_000_000

// SOLToLamports converts a SOL amount to lamports, flooring fractions.
func SOLToLamports(sol float64) uint64 {
	if sol <= 0 {
		return 0
	}
	return uint64(sol * LamportsPerSOL)
}

// LamportsToSOL converts lamports to SOL.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSOL
}
