package postgres

import (
	"context"
	"fmt"
	"time"

	"solana-decision-core/internal/domain"
	"solana-decision-core/internal/storage"
)

// WalletStatStore implements storage.WalletStatStore using PostgreSQL.
type WalletStatStore struct {
	pool *Pool
}

// NewWalletStatStore creates a new WalletStatStore.
func NewWalletStatStore(pool *Pool) *WalletStatStore {
	return &WalletStatStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WalletStatStore = (*WalletStatStore)(nil)

// TopByPnL retrieves the top wallets by lifetime realized pnl.
func (s *WalletStatStore) TopByPnL(ctx context.Context, limit int) ([]*domain.WalletFeatures, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT wallet, trades, wins, realized_pnl_usd, avg_hold_seconds, updated_at
		FROM wallet_stats
		ORDER BY realized_pnl_usd DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query top wallets: %w", err)
	}
	defer rows.Close()

	var result []*domain.WalletFeatures
	for rows.Next() {
		w, err := scanWalletStats(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}

	return result, nil
}

// GetByWallet retrieves one wallet's stats. Returns ErrNotFound if not tracked.
func (s *WalletStatStore) GetByWallet(ctx context.Context, wallet domain.Address) (*domain.WalletFeatures, error) {
	query := `
		SELECT wallet, trades, wins, realized_pnl_usd, avg_hold_seconds, updated_at
		FROM wallet_stats
		WHERE wallet = $1
	`

	row := s.pool.QueryRow(ctx, query, wallet.String())
	w, err := scanWalletStats(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query wallet %s: %w", wallet.Short(), err)
	}

	return w, nil
}

// RecordCopyOutcome journals the result of a closed copy-trade, keeping the
// most recent outcome per wallet.
func (s *WalletStatStore) RecordCopyOutcome(ctx context.Context, wallet, mint domain.Address, pnlUSD float64, win bool) error {
	query := `
		INSERT INTO copy_outcomes (wallet, mint, pnl_usd, win, closed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (wallet) DO UPDATE SET
			mint = EXCLUDED.mint,
			pnl_usd = EXCLUDED.pnl_usd,
			win = EXCLUDED.win,
			closed_at = EXCLUDED.closed_at
	`

	_, err := s.pool.Exec(ctx, query, wallet.String(), mint.String(), pnlUSD, win, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record copy outcome: %w", err)
	}
	return nil
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWalletStats(row rowScanner) (*domain.WalletFeatures, error) {
	var (
		walletStr string
		w         domain.WalletFeatures
		updatedAt time.Time
	)
	if err := row.Scan(&walletStr, &w.Trades, &w.Wins, &w.RealizedPnLUSD, &w.AvgHoldSeconds, &updatedAt); err != nil {
		return nil, err
	}

	addr, err := domain.AddressFromBase58(walletStr)
	if err != nil {
		return nil, fmt.Errorf("scan wallet address: %w", err)
	}
	w.Wallet = addr
	w.LastUpdate = updatedAt

	if w.Trades > 0 {
		w.WinRate = float64(w.Wins) / float64(w.Trades)
	}
	w.Tier = domain.ClassifyTier(w.Trades, w.WinRate, w.RealizedPnLUSD)
	w.BootstrapScore = domain.BootstrapScore(w.Wins, w.RealizedPnLUSD)

	return &w, nil
}
