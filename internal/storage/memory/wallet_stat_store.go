package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-decision-core/internal/domain"
	"solana-decision-core/internal/storage"
)

// WalletStatStore is an in-memory implementation of storage.WalletStatStore.
type WalletStatStore struct {
	mu       sync.RWMutex
	data     map[domain.Address]*domain.WalletFeatures
	outcomes map[domain.Address]copyOutcome
}

type copyOutcome struct {
	mint     domain.Address
	pnlUSD   float64
	win      bool
	closedAt time.Time
}

// NewWalletStatStore creates a new in-memory wallet stat store.
func NewWalletStatStore() *WalletStatStore {
	return &WalletStatStore{
		data:     make(map[domain.Address]*domain.WalletFeatures),
		outcomes: make(map[domain.Address]copyOutcome),
	}
}

// Compile-time interface check.
var _ storage.WalletStatStore = (*WalletStatStore)(nil)

// Put inserts or replaces a wallet's stats, deriving win rate, tier and
// bootstrap score from the raw counters.
func (s *WalletStatStore) Put(_ context.Context, w *domain.WalletFeatures) error {
	if w == nil || w.Wallet.IsZero() {
		return storage.ErrInvalidInput
	}

	row := *w
	if row.Trades > 0 {
		row.WinRate = float64(row.Wins) / float64(row.Trades)
	}
	row.Tier = domain.ClassifyTier(row.Trades, row.WinRate, row.RealizedPnLUSD)
	row.BootstrapScore = domain.BootstrapScore(row.Wins, row.RealizedPnLUSD)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[w.Wallet] = &row
	return nil
}

// TopByPnL retrieves the top wallets by lifetime realized pnl.
func (s *WalletStatStore) TopByPnL(_ context.Context, limit int) ([]*domain.WalletFeatures, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.WalletFeatures, 0, len(s.data))
	for _, w := range s.data {
		row := *w
		result = append(result, &row)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RealizedPnLUSD > result[j].RealizedPnLUSD
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetByWallet retrieves one wallet's stats.
func (s *WalletStatStore) GetByWallet(_ context.Context, wallet domain.Address) (*domain.WalletFeatures, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, exists := s.data[wallet]
	if !exists {
		return nil, storage.ErrNotFound
	}

	row := *w
	return &row, nil
}

// RecordCopyOutcome keeps the most recent copy-trade outcome per wallet.
func (s *WalletStatStore) RecordCopyOutcome(_ context.Context, wallet, mint domain.Address, pnlUSD float64, win bool) error {
	if wallet.IsZero() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[wallet] = copyOutcome{mint: mint, pnlUSD: pnlUSD, win: win, closedAt: time.Now()}
	return nil
}

// LastCopyWin reports whether the last recorded copy of a wallet was a win.
// Second return is false when no outcome has been recorded.
func (s *WalletStatStore) LastCopyWin(wallet domain.Address) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.outcomes[wallet]
	if !exists {
		return false, false
	}
	return o.win, true
}
