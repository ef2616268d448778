package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"solana-decision-core/internal/domain"
	"solana-decision-core/internal/storage"
)

// MintWindowStore implements storage.MintWindowStore using ClickHouse.
// Window rows are produced upstream by the data miner; each mint keeps one
// latest row per aggregation run (ReplacingMergeTree on mint).
type MintWindowStore struct {
	conn *Conn
}

// NewMintWindowStore creates a new MintWindowStore.
func NewMintWindowStore(conn *Conn) *MintWindowStore {
	return &MintWindowStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MintWindowStore = (*MintWindowStore)(nil)

const mintWindowColumns = `
	mint, price, liquidity_usd, market_cap_usd,
	vol_5s, vol_60s, buyers_2s, buyers_60s, unique_buyers,
	buy_sell_ratio, creator, age_seconds, updated_at
`

// TopByVolume retrieves the top mints by 60s volume, most active first.
func (s *MintWindowStore) TopByVolume(ctx context.Context, limit int) ([]*domain.MintFeatures, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT ` + mintWindowColumns + `
		FROM mint_windows FINAL
		ORDER BY vol_60s DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query top mints: %w", err)
	}
	defer rows.Close()

	var result []*domain.MintFeatures
	for rows.Next() {
		m, err := scanMintWindow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mint rows: %w", err)
	}

	return result, nil
}

// GetByMint retrieves the latest window row for one mint.
func (s *MintWindowStore) GetByMint(ctx context.Context, mint domain.Address) (*domain.MintFeatures, error) {
	query := `
		SELECT ` + mintWindowColumns + `
		FROM mint_windows FINAL
		WHERE mint = ?
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query, mint.String())
	if err != nil {
		return nil, fmt.Errorf("query mint %s: %w", mint.Short(), err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate mint row: %w", err)
		}
		return nil, storage.ErrNotFound
	}

	return scanMintWindow(rows)
}

func scanMintWindow(rows driver.Rows) (*domain.MintFeatures, error) {
	var (
		mintStr    string
		creatorStr string
		m          domain.MintFeatures
		updatedAt  time.Time
	)
	err := rows.Scan(
		&mintStr, &m.Price, &m.LiquidityUSD, &m.MarketCapUSD,
		&m.Vol5s, &m.Vol60s, &m.Buyers2s, &m.Buyers60s, &m.UniqueBuyers,
		&m.BuySellRatio, &creatorStr, &m.AgeSeconds, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan mint window: %w", err)
	}

	mint, err := domain.AddressFromBase58(mintStr)
	if err != nil {
		return nil, fmt.Errorf("scan mint address: %w", err)
	}
	m.Mint = mint

	// Creator may be absent for pools the miner has not attributed yet.
	if creatorStr != "" {
		creator, err := domain.AddressFromBase58(creatorStr)
		if err != nil {
			return nil, fmt.Errorf("scan creator address: %w", err)
		}
		m.Creator = creator
	}
	m.LastUpdate = updatedAt

	return &m, nil
}
