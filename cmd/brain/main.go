// Package main runs the decision core: advisories in over UDP, trade
// instructions out to the executor, confirmations folded back into
// position state.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"solana-decision-core/internal/bus"
	"solana-decision-core/internal/config"
	"solana-decision-core/internal/engine"
	"solana-decision-core/internal/featurecache"
	"solana-decision-core/internal/guardrails"
	"solana-decision-core/internal/observability"
	"solana-decision-core/internal/position"
	"solana-decision-core/internal/sizing"
	"solana-decision-core/internal/solana"
	"solana-decision-core/internal/storage"
	"solana-decision-core/internal/storage/clickhouse"
	"solana-decision-core/internal/storage/memory"
	"solana-decision-core/internal/storage/migrations"
	pgstore "solana-decision-core/internal/storage/postgres"
	"solana-decision-core/internal/validation"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (empty for defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	setupLogging(cfg.Log)
	log.Info().Str("run_id", uuid.NewString()).Msg("decision core starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	// Stores.
	mintStore, walletStore, closeStores, err := setupStores(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("store setup failed")
	}
	defer closeStores()

	// Feature caches.
	mintCacheCfg := featurecache.DefaultMintCacheConfig()
	mintCacheCfg.RefreshInterval = cfg.Cache.MintRefreshInterval.Std()
	mintCacheCfg.RefreshLimit = cfg.Cache.MintRefreshLimit
	mintCache := featurecache.NewMintCache(mintStore, mintCacheCfg)
	mintCache.OnRefreshError(func() {
		observability.DefaultMetrics.CacheRefreshErrors.WithLabelValues("mint").Inc()
	})

	walletCacheCfg := featurecache.DefaultWalletCacheConfig()
	walletCacheCfg.RefreshInterval = cfg.Cache.WalletRefreshInterval.Std()
	walletCacheCfg.RefreshLimit = cfg.Cache.WalletRefreshLimit
	walletCache := featurecache.NewWalletCache(walletStore, walletCacheCfg)
	walletCache.OnRefreshError(func() {
		observability.DefaultMetrics.CacheRefreshErrors.WithLabelValues("wallet").Inc()
	})

	mintCache.Warm(ctx)
	walletCache.Warm(ctx)

	solPrice := featurecache.NewSolPrice(cfg.Trade.SolPriceFallbackUSD)

	// Validation gate with the configured creator blacklist.
	validatorCfg := validation.DefaultConfig()
	blacklist, err := cfg.Blacklist()
	if err != nil {
		log.Fatal().Err(err).Msg("blacklist parse failed")
	}
	validatorCfg.CreatorBlacklist = blacklist

	// Sizing from portfolio config.
	sizerCfg := sizing.DefaultConfig()
	sizerCfg.Strategy = sizing.Strategy(cfg.Trade.SizingStrategy)
	sizerCfg.MinSizeSOL = cfg.Trade.MinSizeSOL
	sizerCfg.MaxSizeSOL = cfg.Trade.MaxSizeSOL
	sizerCfg.PortfolioSOL = cfg.Trade.PortfolioSOL

	// Outbound instruction socket.
	sender, err := bus.NewSender(cfg.Bus.DecisionAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Bus.DecisionAddr).Msg("decision socket failed")
	}
	defer sender.Close()

	tracker := position.NewTracker()

	eng := engine.New(engine.Options{
		MintCache:   mintCache,
		WalletCache: walletCache,
		SolPrice:    solPrice,
		Validator:   validation.New(validatorCfg),
		Rails:       guardrails.New(guardrails.DefaultConfig()),
		Sizer:       sizing.New(sizerCfg),
		Dedup:       bus.NewDeduplicator(60*time.Second, 1000),
		Tracker:     tracker,
		Sender:      sender,
		WalletStats: walletStore,
	})

	// Live price feed for held mints, optional.
	var feed *solana.PriceFeed
	if cfg.Feed.Endpoint != "" {
		feed, err = solana.NewPriceFeed(ctx, cfg.Feed.Endpoint, nil, eng.HandlePriceTick)
		if err != nil {
			log.Fatal().Err(err).Str("endpoint", cfg.Feed.Endpoint).Msg("price feed connect failed")
		}
		defer feed.Close()
		eng.SetFeed(feed)
	}

	// Inbound sockets.
	advisories, err := bus.NewReceiver(cfg.Bus.AdvisoryAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Bus.AdvisoryAddr).Msg("advisory socket failed")
	}
	advisories.OnDecodeError(observability.RecordDecodeError)

	confirmations, err := bus.NewReceiver(cfg.Bus.ConfirmationAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Bus.ConfirmationAddr).Msg("confirmation socket failed")
	}
	confirmations.OnDecodeError(observability.RecordDecodeError)

	monitor := position.NewMonitor(tracker, mintCache, eng.HandleExit)

	// Metrics/health listener.
	if cfg.HTTP.MetricsAddr != "" {
		go serveMetrics(cfg.HTTP.MetricsAddr)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		mintCache.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		walletCache.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		advisories.RunAdvisories(ctx, eng.HandleAdvisory)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		confirmations.RunConfirmations(ctx, eng.HandleConfirmation)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		monitor.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		gaugeLoop(ctx, mintCache, walletCache)
	}()

	log.Info().
		Str("advisory_addr", cfg.Bus.AdvisoryAddr).
		Str("decision_addr", cfg.Bus.DecisionAddr).
		Str("confirmation_addr", cfg.Bus.ConfirmationAddr).
		Msg("decision core running")

	wg.Wait()
	log.Info().Msg("decision core stopped")
}

// setupLogging configures the global zerolog logger.
func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// setupStores builds the mint window and wallet stat stores per config.
func setupStores(ctx context.Context, cfg config.StoreConfig) (storage.MintWindowStore, storage.WalletStatStore, func(), error) {
	if cfg.InMemory {
		log.Warn().Msg("using in-memory stores")
		return memory.NewMintWindowStore(), memory.NewWalletStatStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		conn.Close()
	}
	return clickhouse.NewMintWindowStore(conn), pgstore.NewWalletStatStore(pool), cleanup, nil
}

// serveMetrics exposes /metrics and /health.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	log.Info().Str("addr", addr).Msg("metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("metrics server failed")
	}
}

// gaugeLoop refreshes cache sizes on a fixed interval.
func gaugeLoop(ctx context.Context, mints *featurecache.MintCache, wallets *featurecache.WalletCache) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			observability.UpdateCacheSizes(mints.Len(), wallets.Len())
		}
	}
}
