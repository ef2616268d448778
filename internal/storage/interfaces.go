package storage

import (
	"context"

	"solana-decision-core/internal/domain"
)

// MintWindowStore provides rolling per-mint window aggregates. Backed by
// ClickHouse in production; the feature cache refreshes from it.
type MintWindowStore interface {
	// TopByVolume retrieves the top mints by 60s volume, most active first.
	TopByVolume(ctx context.Context, limit int) ([]*domain.MintFeatures, error)

	// GetByMint retrieves the latest window row for one mint.
	// Returns ErrNotFound if the mint has no recent activity.
	GetByMint(ctx context.Context, mint domain.Address) (*domain.MintFeatures, error)
}

// WalletStatStore provides tracked-wallet performance rows. Backed by
// Postgres in production.
type WalletStatStore interface {
	// TopByPnL retrieves the top wallets by lifetime realized pnl, with
	// tier and win rate derived from the stored counters.
	TopByPnL(ctx context.Context, limit int) ([]*domain.WalletFeatures, error)

	// GetByWallet retrieves one wallet's stats. Returns ErrNotFound if
	// the wallet is not tracked.
	GetByWallet(ctx context.Context, wallet domain.Address) (*domain.WalletFeatures, error)

	// RecordCopyOutcome journals the result of a closed copy-trade so the
	// cooling bypass can see whether the last copy of a wallet paid off.
	RecordCopyOutcome(ctx context.Context, wallet, mint domain.Address, pnlUSD float64, win bool) error
}
