package featurecache

import (
	"math"
	"sync/atomic"
)

// SolPrice tracks the current SOL/USD rate, updated from producer price
// advisories and read lock-free on the decision hot path.
type SolPrice struct {
	bits atomic.Uint64
}

// NewSolPrice returns a tracker seeded with a fallback rate used until the
// first advisory arrives.
func NewSolPrice(fallbackUSD float64) *SolPrice {
	p := &SolPrice{}
	p.Set(fallbackUSD)
	return p
}

// Set stores a new SOL/USD rate. Non-positive rates are ignored.
func (p *SolPrice) Set(usd float64) {
	if usd <= 0 {
		return
	}
	p.bits.Store(math.Float64bits(usd))
}

// USD returns the current SOL/USD rate.
func (p *SolPrice) USD() float64 {
	return math.Float64frombits(p.bits.Load())
}
