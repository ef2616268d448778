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

// WalletCacheConfig configures refresh and eviction behavior.
type WalletCacheConfig struct {
	RefreshInterval time.Duration
	// RefreshLimit is how many top-pnl wallets each refresh pulls.
	RefreshLimit int
	EvictAfter   time.Duration
}

// DefaultWalletCacheConfig returns production defaults.
func DefaultWalletCacheConfig() WalletCacheConfig {
	return WalletCacheConfig{
		RefreshInterval: 30 * time.Second,
		RefreshLimit:    1000,
		EvictAfter:      10 * time.Minute,
	}
}

// WalletCache caches tracked-wallet performance profiles for the copy-trade
// pathway. Same degradation model as the mint cache.
type WalletCache struct {
	config WalletCacheConfig
	store  storage.WalletStatStore

	mu   sync.RWMutex
	data map[domain.Address]*domain.WalletFeatures

	breaker        *gobreaker.CircuitBreaker
	onRefreshError func()
}

// NewWalletCache creates a wallet cache over the given store.
func NewWalletCache(store storage.WalletStatStore, config WalletCacheConfig) *WalletCache {
	return &WalletCache{
		config: config,
		store:  store,
		data:   make(map[domain.Address]*domain.WalletFeatures),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "wallet-stat-store",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		onRefreshError: func() {},
	}
}

// OnRefreshError registers a hook called once per failed refresh.
func (c *WalletCache) OnRefreshError(fn func()) {
	if fn != nil {
		c.onRefreshError = fn
	}
}

// Get returns a copy of the cached profile for a wallet.
func (c *WalletCache) Get(wallet domain.Address) (domain.WalletFeatures, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	w, exists := c.data[wallet]
	if !exists {
		return domain.WalletFeatures{}, false
	}
	return *w, true
}

// Touch marks a wallet as recently active so live advisories keep tracked
// wallets from aging out between refreshes.
func (c *WalletCache) Touch(wallet domain.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if w, exists := c.data[wallet]; exists {
		w.LastUpdate = time.Now()
	}
}

// Len returns the number of cached wallets.
func (c *WalletCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Warm runs one synchronous refresh, used at startup before serving.
func (c *WalletCache) Warm(ctx context.Context) {
	c.refresh(ctx)
}

// Run refreshes the cache until ctx is cancelled.
func (c *WalletCache) Run(ctx context.Context) {
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

func (c *WalletCache) refresh(ctx context.Context) {
	rows, err := c.breaker.Execute(func() (interface{}, error) {
		return c.store.TopByPnL(ctx, c.config.RefreshLimit)
	})
	if err != nil {
		c.onRefreshError()
		log.Warn().Err(err).Msg("wallet cache refresh failed, serving stale entries")
		c.evict(time.Now())
		return
	}

	now := time.Now()

	c.mu.Lock()
	for _, row := range rows.([]*domain.WalletFeatures) {
		entry := *row
		entry.LastUpdate = now
		c.data[row.Wallet] = &entry
	}
	c.mu.Unlock()

	c.evict(now)
}

func (c *WalletCache) evict(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for wallet, w := range c.data {
		if now.Sub(w.LastUpdate) > c.config.EvictAfter {
			delete(c.data, wallet)
		}
	}
}
