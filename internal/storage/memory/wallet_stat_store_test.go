package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-decision-core/internal/domain"
	"solana-decision-core/internal/storage"
)

func addr(seed byte) domain.Address {
	var a domain.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

func TestWalletStatStore_PutDerivesFields(t *testing.T) {
	store := NewWalletStatStore()
	ctx := context.Background()

	err := store.Put(ctx, &domain.WalletFeatures{
		Wallet:         addr(1),
		Trades:         20,
		Wins:           13,
		RealizedPnLUSD: 150,
	})
	require.NoError(t, err)

	w, err := store.GetByWallet(ctx, addr(1))
	require.NoError(t, err)
	assert.InDelta(t, 0.65, w.WinRate, 1e-9)
	assert.Equal(t, domain.TierA, w.Tier)
}

func TestWalletStatStore_TopByPnLOrder(t *testing.T) {
	store := NewWalletStatStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &domain.WalletFeatures{Wallet: addr(1), RealizedPnLUSD: 10}))
	require.NoError(t, store.Put(ctx, &domain.WalletFeatures{Wallet: addr(2), RealizedPnLUSD: 300}))
	require.NoError(t, store.Put(ctx, &domain.WalletFeatures{Wallet: addr(3), RealizedPnLUSD: 50}))

	top, err := store.TopByPnL(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, addr(2), top[0].Wallet)
	assert.Equal(t, addr(3), top[1].Wallet)
}

func TestWalletStatStore_InvalidInput(t *testing.T) {
	store := NewWalletStatStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.Put(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Put(ctx, &domain.WalletFeatures{}), storage.ErrInvalidInput)

	_, err := store.TopByPnL(ctx, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = store.GetByWallet(ctx, addr(7))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestWalletStatStore_LastCopyWin(t *testing.T) {
	store := NewWalletStatStore()
	ctx := context.Background()

	_, known := store.LastCopyWin(addr(1))
	assert.False(t, known)

	require.NoError(t, store.RecordCopyOutcome(ctx, addr(1), addr(9), 5.0, true))
	win, known := store.LastCopyWin(addr(1))
	assert.True(t, known)
	assert.True(t, win)

	require.NoError(t, store.RecordCopyOutcome(ctx, addr(1), addr(9), -2.0, false))
	win, _ = store.LastCopyWin(addr(1))
	assert.False(t, win)
}
