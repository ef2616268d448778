package featurecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-decision-core/internal/domain"
	"solana-decision-core/internal/storage/memory"
)

// failingWalletStore errors on every query, for degradation tests.
type failingWalletStore struct{}

func (failingWalletStore) TopByPnL(context.Context, int) ([]*domain.WalletFeatures, error) {
	return nil, errors.New("store down")
}

func (failingWalletStore) GetByWallet(context.Context, domain.Address) (*domain.WalletFeatures, error) {
	return nil, errors.New("store down")
}

func (failingWalletStore) RecordCopyOutcome(context.Context, domain.Address, domain.Address, float64, bool) error {
	return errors.New("store down")
}

func TestWalletCache_RefreshDerivesTier(t *testing.T) {
	store := memory.NewWalletStatStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &domain.WalletFeatures{
		Wallet: addr(7), Trades: 20, Wins: 16, RealizedPnLUSD: 500,
	}))

	cache := NewWalletCache(store, DefaultWalletCacheConfig())
	cache.Warm(ctx)

	w, ok := cache.Get(addr(7))
	require.True(t, ok)
	assert.Equal(t, domain.TierA, w.Tier)
	assert.Equal(t, 1, cache.Len())

	_, ok = cache.Get(addr(8))
	assert.False(t, ok)
}

func TestWalletCache_EvictionAndTouch(t *testing.T) {
	store := memory.NewWalletStatStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &domain.WalletFeatures{
		Wallet: addr(1), Trades: 12, Wins: 7, RealizedPnLUSD: 50,
	}))

	config := DefaultWalletCacheConfig()
	config.EvictAfter = 50 * time.Millisecond
	cache := NewWalletCache(store, config)
	cache.Warm(ctx)
	require.Equal(t, 1, cache.Len())

	// Touch resets the age so a live wallet survives the sweep.
	time.Sleep(60 * time.Millisecond)
	cache.Touch(addr(1))
	cache.evict(time.Now())
	assert.Equal(t, 1, cache.Len())

	// Without activity the entry ages out.
	cache.evict(time.Now().Add(time.Second))
	assert.Equal(t, 0, cache.Len())
}

func TestWalletCache_ServesStaleOnStoreFailure(t *testing.T) {
	store := memory.NewWalletStatStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &domain.WalletFeatures{
		Wallet: addr(1), Trades: 12, Wins: 7, RealizedPnLUSD: 50,
	}))

	cache := NewWalletCache(store, DefaultWalletCacheConfig())
	cache.Warm(ctx)
	require.Equal(t, 1, cache.Len())

	failures := 0
	cache.OnRefreshError(func() { failures++ })
	cache.store = failingWalletStore{}

	cache.refresh(ctx)
	cache.refresh(ctx)

	assert.Equal(t, 2, failures)
	_, ok := cache.Get(addr(1))
	assert.True(t, ok, "existing entries are served until they age out")
}
