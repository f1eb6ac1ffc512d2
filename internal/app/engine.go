package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"lingua.desk/lingod/internal/cache"
	"lingua.desk/lingod/internal/cli"
	"lingua.desk/lingod/internal/config"
	"lingua.desk/lingod/internal/coordinator"
	"lingua.desk/lingod/internal/db"
	"lingua.desk/lingod/internal/logging"
	"lingua.desk/lingod/internal/stats"
	"lingua.desk/lingod/internal/translation"
)

// engine bundles the wired translation stack for one process.
type engine struct {
	cfg      *config.Config
	logger   zerolog.Logger
	pool     *db.Pool
	store    *cache.Store
	coord    *coordinator.Coordinator
	agg      *stats.Aggregator
	registry *translation.Registry
	manager  *translation.Manager
}

func (e *engine) Close() {
	if e == nil || e.pool == nil {
		return
	}
	if err := e.pool.Close(); err != nil {
		e.logger.Warn().Err(err).Msg("database close failed")
	}
}

// buildEngine loads configuration, opens the database, and wires the
// registry, cache, coordinator, and manager. The context bounds database
// initialization only.
func buildEngine(ctx context.Context, envLoader *cli.EnvLoader) (*engine, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	store := cache.NewStore(pool, logger, cache.StoreOptions{
		MemoryEntries: cfg.CacheMemoryEntries,
		TTL:           cfg.CacheTTL(),
	})
	coord := coordinator.New(logger, coordinator.Options{
		Limit:    cfg.MaxConcurrent,
		MaxQueue: cfg.MaxQueue,
		BurstTTL: cfg.BurstCacheTTL(),
	})
	agg := stats.NewAggregator(cfg.StatsRetention())

	manager := translation.NewManager(
		registry,
		store,
		coord,
		agg,
		&accountDefaults{pool: pool},
		logger,
		translation.ManagerOptions{
			MaxTextLength: cfg.MaxTextLength,
			MaxAttempts:   cfg.MaxAttempts,
		},
	)

	return &engine{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		store:    store,
		coord:    coord,
		agg:      agg,
		registry: registry,
		manager:  manager,
	}, nil
}

// buildRegistry registers every provider the configuration describes.
// Unconfigured providers stay registered but report themselves unavailable.
func buildRegistry(cfg *config.Config) (*translation.Registry, error) {
	registry := translation.NewRegistry(cfg.DefaultEngine)

	providers := []translation.Provider{
		translation.NewGoogleProvider(),
		translation.NewMyMemoryProvider(cfg.MyMemoryEmail),
		translation.NewOpenAIProvider(translation.OpenAIConfig{
			Endpoint: cfg.OpenAIEndpoint,
			APIKey:   cfg.OpenAIAPIKey,
			Model:    cfg.OpenAIModel,
		}),
	}
	for _, provider := range providers {
		if err := registry.Register(provider); err != nil {
			return nil, fmt.Errorf("register provider %s: %w", provider.Name(), err)
		}
	}
	return registry, nil
}

// accountDefaults adapts the configuration store to the manager's
// per-account defaults lookup.
type accountDefaults struct {
	pool *db.Pool
}

func (s *accountDefaults) Defaults(ctx context.Context, accountID string) (translation.Defaults, error) {
	row, err := s.pool.GetAccountConfig(ctx, accountID)
	if err != nil {
		return translation.Defaults{}, err
	}
	if row == nil {
		return translation.Defaults{}, nil
	}
	return translation.Defaults{
		Engine:     row.DefaultEngine,
		TargetLang: row.DefaultTargetLang,
		Style:      row.DefaultStyle,
	}, nil
}

// connectEngine is the shared preamble for one-shot commands: a bounded
// context plus a fully wired engine.
func connectEngine(timeout time.Duration, envLoader *cli.EnvLoader) (context.Context, context.CancelFunc, *engine, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	eng, err := buildEngine(ctx, envLoader)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return ctx, cancel, eng, nil
}
