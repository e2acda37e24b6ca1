// vendorsearch-seed loads vendor fixtures from YAML into the configured store.
//
// Usage:
//
//	ENV=local vendorsearch-seed -fixtures fixtures/vendors.yaml -reset
//
// The store connection comes from config/<ENV>.yaml (redis or postgres).
package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vendorsearch/internal/config"
	"github.com/kailas-cloud/vendorsearch/internal/db/memory"
	"github.com/kailas-cloud/vendorsearch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/vendorsearch/internal/db/redis"
	"github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
	logpkg "github.com/kailas-cloud/vendorsearch/internal/logger"
	vendorrepo "github.com/kailas-cloud/vendorsearch/internal/repository/vendors"
	"github.com/kailas-cloud/vendorsearch/internal/version"
)

type options struct {
	fixtures  string
	batchSize int
	reset     bool
}

func parseFlags() options {
	opts := options{}
	flag.StringVar(&opts.fixtures, "fixtures", "", "YAML fixture file (default: database.fixtures_path)")
	flag.IntVar(&opts.batchSize, "batch-size", 100, "vendors per upsert batch")
	flag.BoolVar(&opts.reset, "reset", false, "delete all vendors before loading")
	flag.Parse()
	return opts
}

func main() {
	opts := parseFlags()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vendorsearch seed", zap.String("version", version.String()), zap.String("env", env))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, &cfg, opts, logger); err != nil {
		cancel()
		logger.Fatal("Seed failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *zap.Logger) error {
	path := opts.fixtures
	if path == "" {
		path = cfg.Database.FixturesPath
	}
	if path == "" {
		return fmt.Errorf("no fixture file: pass -fixtures or set database.fixtures_path")
	}

	vs, err := memory.LoadFixtureFile(path)
	if err != nil {
		return err
	}
	logger.Info("Fixtures loaded", zap.String("path", path), zap.Int("vendors", len(vs)))

	target, closeFn, err := openTarget(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	start := time.Now()
	n, err := seed(ctx, target, vs, opts.batchSize, opts.reset, logger)
	if err != nil {
		return err
	}
	logger.Info("Seed complete",
		zap.String("driver", cfg.Database.Driver),
		zap.Int("vendors", n),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// seedTarget is a writable vendor store.
type seedTarget interface {
	UpsertBatch(ctx context.Context, vs []vendors.Vendor) error
	DeleteAll(ctx context.Context) (int, error)
}

func openTarget(ctx context.Context, cfg *config.Config) (seedTarget, func(), error) {
	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second

	switch cfg.Database.Driver {
	case config.DriverRedis:
		rs, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		if err := rs.WaitForReady(ctx, readiness); err != nil {
			rs.Close()
			return nil, nil, fmt.Errorf("redis not ready: %w", err)
		}
		repo := vendorrepo.New(rs, cfg.Storage.KeyPrefix)
		if err := repo.EnsureIndex(ctx); err != nil {
			rs.Close()
			return nil, nil, fmt.Errorf("ensure vendor index: %w", err)
		}
		return repo, rs.Close, nil

	case config.DriverPostgres:
		ps, err := postgres.NewStore(postgres.Config{URL: cfg.Database.URL})
		if err != nil {
			return nil, nil, fmt.Errorf("create postgres store: %w", err)
		}
		if err := ps.WaitForReady(ctx, readiness); err != nil {
			ps.Close()
			return nil, nil, fmt.Errorf("postgres not ready: %w", err)
		}
		if err := ps.Migrate(cfg.Database.MigrationsPath); err != nil {
			ps.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return ps, ps.Close, nil

	default:
		return nil, nil, fmt.Errorf("driver %q cannot be seeded (use redis or postgres)", cfg.Database.Driver)
	}
}

// seed writes vs in batches, optionally clearing the store first.
// Returns the number of vendors written.
func seed(
	ctx context.Context,
	target seedTarget,
	vs []vendors.Vendor,
	batchSize int,
	reset bool,
	logger *zap.Logger,
) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	if reset {
		n, err := target.DeleteAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("reset: %w", err)
		}
		logger.Info("Store reset", zap.Int("deleted", n))
	}

	written := 0
	for start := 0; start < len(vs); start += batchSize {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		end := min(start+batchSize, len(vs))
		if err := target.UpsertBatch(ctx, vs[start:end]); err != nil {
			return written, fmt.Errorf("upsert batch at %d: %w", start, err)
		}
		written = end
		logger.Debug("Batch written", zap.Int("written", written), zap.Int("total", len(vs)))
	}
	return written, nil
}
