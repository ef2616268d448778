package domain

import "time"

// MintFeatures holds rolling per-mint aggregates used by trigger detection,
// scoring and validation. Values come from the mint window store on refresh
// and are patched live by advisories and the price feed.
type MintFeatures struct {
	Mint         Address   // token mint address
	Price        float64   // last trade price in SOL
	LiquidityUSD float64   // pool liquidity in USD
	MarketCapUSD float64   // fully diluted market cap in USD
	Vol5s        float64   // trade volume over the last 5s, SOL
	Vol60s       float64   // trade volume over the last 60s, SOL
	Buyers2s     uint32    // distinct buyers in the last 2s
	Buyers60s    uint32    // distinct buyers in the last 60s
	UniqueBuyers uint32    // distinct buyers since pool creation
	BuySellRatio float64   // buy volume over sell volume, last 60s
	Creator      Address   // pool creator wallet
	AgeSeconds   uint64    // seconds since first pool activity
	LastUpdate   time.Time // wall-clock time of the last patch or refresh
}

// Fresh reports whether the entry was updated within maxAge. Decision paths
// require freshness; read paths serve stale data and let callers decide.
func (m *MintFeatures) Fresh(now time.Time, maxAge time.Duration) bool {
	return now.Sub(m.LastUpdate) <= maxAge
}
