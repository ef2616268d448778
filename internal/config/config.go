// Package config loads the service configuration from YAML with defaults
// and env-var overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"solana-decision-core/internal/domain"
)

// Duration wraps time.Duration so YAML scalars like "30s" parse via
// time.ParseDuration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full service configuration.
type Config struct {
	Log   LogConfig   `yaml:"log"`
	Bus   BusConfig   `yaml:"bus"`
	Store StoreConfig `yaml:"store"`
	Cache CacheConfig `yaml:"cache"`
	Trade TradeConfig `yaml:"trade"`
	Feed  FeedConfig  `yaml:"feed"`
	HTTP  HTTPConfig  `yaml:"http"`
}

// LogConfig controls zerolog.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `yaml:"level"`
	// Pretty enables the console writer for local runs.
	Pretty bool `yaml:"pretty"`
}

// BusConfig holds the UDP endpoints.
type BusConfig struct {
	// AdvisoryAddr is the local address producer advisories arrive on.
	AdvisoryAddr string `yaml:"advisory_addr"`
	// DecisionAddr is the executor's address for trade instructions.
	DecisionAddr string `yaml:"decision_addr"`
	// ConfirmationAddr is the local address executor confirmations arrive on.
	ConfirmationAddr string `yaml:"confirmation_addr"`
}

// StoreConfig holds backing store DSNs. Env vars POSTGRES_DSN and
// CLICKHOUSE_DSN override the file values so secrets stay out of YAML.
type StoreConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
	// InMemory swaps both stores for in-memory fakes, for local runs.
	InMemory bool `yaml:"in_memory"`
}

// CacheConfig tunes the feature caches.
type CacheConfig struct {
	MintRefreshInterval   Duration `yaml:"mint_refresh_interval"`
	MintRefreshLimit      int      `yaml:"mint_refresh_limit"`
	WalletRefreshInterval Duration `yaml:"wallet_refresh_interval"`
	WalletRefreshLimit    int      `yaml:"wallet_refresh_limit"`
}

// TradeConfig tunes sizing, guardrails and validation.
type TradeConfig struct {
	PortfolioSOL   float64 `yaml:"portfolio_sol"`
	MinSizeSOL     float64 `yaml:"min_size_sol"`
	MaxSizeSOL     float64 `yaml:"max_size_sol"`
	SizingStrategy string  `yaml:"sizing_strategy"` // fixed, confidence_scaled, tiered
	// SolPriceFallbackUSD seeds the SOL rate before the first price
	// advisory arrives.
	SolPriceFallbackUSD float64 `yaml:"sol_price_fallback_usd"`
	// CreatorBlacklist is a list of base58 creator addresses to reject.
	CreatorBlacklist []string `yaml:"creator_blacklist"`
}

// FeedConfig holds the live price feed endpoint. Empty disables the feed.
type FeedConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// HTTPConfig holds the metrics/health listener address. Empty disables it.
type HTTPConfig struct {
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the production defaults; Load layers the file over them.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Bus: BusConfig{
			AdvisoryAddr:     ":45100",
			DecisionAddr:     "127.0.0.1:45110",
			ConfirmationAddr: ":45115",
		},
		Cache: CacheConfig{
			MintRefreshInterval:   Duration(30 * time.Second),
			MintRefreshLimit:      500,
			WalletRefreshInterval: Duration(30 * time.Second),
			WalletRefreshLimit:    1000,
		},
		Trade: TradeConfig{
			PortfolioSOL:        50,
			MinSizeSOL:          0.5,
			MaxSizeSOL:          10,
			SizingStrategy:      "confidence_scaled",
			SolPriceFallbackUSD: 150,
		},
		HTTP: HTTPConfig{MetricsAddr: ":9090"},
	}
}

// Load reads a YAML file over the defaults and applies env overrides.
// An empty path returns defaults plus env overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.Store.PostgresDSN = dsn
	}
	if dsn := os.Getenv("CLICKHOUSE_DSN"); dsn != "" {
		cfg.Store.ClickHouseDSN = dsn
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks internal consistency.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q: %w", c.Log.Level, ErrInvalidConfig)
	}

	if c.Bus.AdvisoryAddr == "" || c.Bus.DecisionAddr == "" || c.Bus.ConfirmationAddr == "" {
		return fmt.Errorf("bus addresses must all be set: %w", ErrInvalidConfig)
	}

	if !c.Store.InMemory {
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn required without in_memory: %w", ErrInvalidConfig)
		}
		if c.Store.ClickHouseDSN == "" {
			return fmt.Errorf("store.clickhouse_dsn required without in_memory: %w", ErrInvalidConfig)
		}
	}

	switch c.Trade.SizingStrategy {
	case "fixed", "confidence_scaled", "tiered":
	default:
		return fmt.Errorf("trade.sizing_strategy %q: %w", c.Trade.SizingStrategy, ErrInvalidConfig)
	}

	if c.Trade.MinSizeSOL <= 0 || c.Trade.MaxSizeSOL < c.Trade.MinSizeSOL {
		return fmt.Errorf("trade size bounds min=%v max=%v: %w",
			c.Trade.MinSizeSOL, c.Trade.MaxSizeSOL, ErrInvalidConfig)
	}
	if c.Trade.PortfolioSOL <= 0 {
		return fmt.Errorf("trade.portfolio_sol must be positive: %w", ErrInvalidConfig)
	}

	if _, err := c.Blacklist(); err != nil {
		return err
	}
	return nil
}

// Blacklist parses the creator blacklist into addresses.
func (c *Config) Blacklist() (map[domain.Address]struct{}, error) {
	out := make(map[domain.Address]struct{}, len(c.Trade.CreatorBlacklist))
	for _, entry := range c.Trade.CreatorBlacklist {
		addr, err := domain.AddressFromBase58(entry)
		if err != nil {
			return nil, fmt.Errorf("blacklist entry %q: %w", entry, err)
		}
		out[addr] = struct{}{}
	}
	return out, nil
}
