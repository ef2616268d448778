// Package featurecache holds the in-memory feature caches the decision
// pipeline reads on its hot path. Each cache has a single writer (its
// refresh loop plus the advisory receive goroutine) and many readers.
package featurecache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"solana-decision-core/internal/domain"
	"solana-decision-core/internal/storage"
)

// MintCacheConfig configures refresh and eviction behavior.
type MintCacheConfig struct {
	// RefreshInterval is how often the backing store is polled.
	RefreshInterval time.Duration
	// RefreshLimit is how many top-volume mints each refresh pulls.
	RefreshLimit int
	// EvictAfter drops entries that have not been touched for this long.
	EvictAfter time.Duration
	// StalenessWindow is the max entry age usable for a decision.
	StalenessWindow time.Duration
}

// DefaultMintCacheConfig returns production defaults.
func DefaultMintCacheConfig() MintCacheConfig {
	return MintCacheConfig{
		RefreshInterval: 30 * time.Second,
		RefreshLimit:    500,
		EvictAfter:      5 * time.Minute,
		StalenessWindow: 2 * time.Second,
	}
}

// MintCache caches per-mint rolling aggregates. Store outages degrade the
// cache to serving existing entries until they age out; a circuit breaker
// stops hammering a down store.
type MintCache struct {
	config MintCacheConfig
	store  storage.MintWindowStore

	mu   sync.RWMutex
	data map[domain.Address]*domain.MintFeatures

	breaker *gobreaker.CircuitBreaker

	// RefreshErrors is bumped on every failed refresh; wired to metrics
	// by the caller.
	onRefreshError func()
}

// NewMintCache creates a mint cache over the given store.
func NewMintCache(store storage.MintWindowStore, config MintCacheConfig) *MintCache {
	return &MintCache{
		config: config,
		store:  store,
		data:   make(map[domain.Address]*domain.MintFeatures),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "mint-window-store",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		onRefreshError: func() {},
	}
}

// OnRefreshError registers a hook called once per failed refresh.
func (c *MintCache) OnRefreshError(fn func()) {
	if fn != nil {
		c.onRefreshError = fn
	}
}

// Get returns a copy of the cached features for a mint. Stale entries are
// returned as-is; decision paths check Fresh separately.
func (c *MintCache) Get(mint domain.Address) (domain.MintFeatures, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, exists := c.data[mint]
	if !exists {
		return domain.MintFeatures{}, false
	}
	return *m, true
}

// Fresh reports whether the mint's entry is recent enough to trade on.
func (c *MintCache) Fresh(mint domain.Address, now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, exists := c.data[mint]
	return exists && m.Fresh(now, c.config.StalenessWindow)
}

// ApplyAdvisory live-patches the short-window fields from an advisory so
// hot mints stay fresh between refreshes. Missing entries are created.
func (c *MintCache) ApplyAdvisory(mint domain.Address, patch func(*domain.MintFeatures)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, exists := c.data[mint]
	if !exists {
		m = &domain.MintFeatures{Mint: mint}
		c.data[mint] = m
	}
	patch(m)
	m.LastUpdate = time.Now()
}

// ApplyPrice live-patches the price from the held-position price feed.
func (c *MintCache) ApplyPrice(mint domain.Address, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, exists := c.data[mint]
	if !exists {
		return
	}
	m.Price = price
	m.LastUpdate = time.Now()
}

// Len returns the number of cached mints.
func (c *MintCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Warm runs one synchronous refresh, used at startup before serving.
func (c *MintCache) Warm(ctx context.Context) {
	c.refresh(ctx)
}

// Run refreshes the cache until ctx is cancelled. An immediate refresh runs
// on start so the cache is warm before the first advisory.
func (c *MintCache) Run(ctx context.Context) {
	c.refresh(ctx)

	ticker := time.NewTicker(c.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refresh(ctx)
		}
	}
}

func (c *MintCache) refresh(ctx context.Context) {
	rows, err := c.breaker.Execute(func() (interface{}, error) {
		return c.store.TopByVolume(ctx, c.config.RefreshLimit)
	})
	if err != nil {
		c.onRefreshError()
		log.Warn().Err(err).Msg("mint cache refresh failed, serving stale entries")
		c.evict(time.Now())
		return
	}

	now := time.Now()

	c.mu.Lock()
	for _, row := range rows.([]*domain.MintFeatures) {
		existing, exists := c.data[row.Mint]
		// A live advisory newer than the store row wins.
		if exists && existing.LastUpdate.After(row.LastUpdate) {
			continue
		}
		entry := *row
		// Freshness and eviction run off the refresh time, not the row's
		// own data timestamp.
		entry.LastUpdate = now
		c.data[row.Mint] = &entry
	}
	c.mu.Unlock()

	c.evict(now)
}

// evict drops entries untouched for longer than EvictAfter.
func (c *MintCache) evict(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for mint, m := range c.data {
		if now.Sub(m.LastUpdate) > c.config.EvictAfter {
			delete(c.data, mint)
		}
	}
}
