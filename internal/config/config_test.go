package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  in_memory: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":45100", cfg.Bus.AdvisoryAddr)
	assert.Equal(t, "127.0.0.1:45110", cfg.Bus.DecisionAddr)
	assert.Equal(t, ":45115", cfg.Bus.ConfirmationAddr)
	assert.Equal(t, 30*time.Second, cfg.Cache.MintRefreshInterval.Std())
	assert.Equal(t, 500, cfg.Cache.MintRefreshLimit)
	assert.InDelta(t, 50.0, cfg.Trade.PortfolioSOL, 1e-9)
	assert.Equal(t, "confidence_scaled", cfg.Trade.SizingStrategy)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
store:
  postgres_dsn: postgres://u:p@db:5432/core
  clickhouse_dsn: clickhouse://ch:9000/core
cache:
  mint_refresh_interval: 10s
trade:
  portfolio_sol: 120
  sizing_strategy: tiered
  creator_blacklist:
    - So11111111111111111111111111111111111111112
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "postgres://u:p@db:5432/core", cfg.Store.PostgresDSN)
	assert.Equal(t, 10*time.Second, cfg.Cache.MintRefreshInterval.Std())
	assert.Equal(t, 30*time.Second, cfg.Cache.WalletRefreshInterval.Std())
	assert.InDelta(t, 120.0, cfg.Trade.PortfolioSOL, 1e-9)
	assert.Equal(t, "tiered", cfg.Trade.SizingStrategy)

	blacklist, err := cfg.Blacklist()
	require.NoError(t, err)
	assert.Len(t, blacklist, 1)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
store:
  postgres_dsn: postgres://file
  clickhouse_dsn: clickhouse://file
`)
	t.Setenv("POSTGRES_DSN", "postgres://env")
	t.Setenv("CLICKHOUSE_DSN", "clickhouse://env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.Store.PostgresDSN)
	assert.Equal(t, "clickhouse://env", cfg.Store.ClickHouseDSN)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad level", "log:\n  level: loud\nstore:\n  in_memory: true\n"},
		{"missing dsn", "store:\n  postgres_dsn: postgres://x\n"},
		{"bad strategy", "store:\n  in_memory: true\ntrade:\n  sizing_strategy: martingale\n"},
		{"bad sizes", "store:\n  in_memory: true\ntrade:\n  min_size_sol: 5\n  max_size_sol: 1\n"},
		{"bad blacklist", "store:\n  in_memory: true\ntrade:\n  creator_blacklist: [not-base58!!]\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
			if tc.name != "bad blacklist" {
				assert.True(t, errors.Is(err, ErrInvalidConfig))
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}
