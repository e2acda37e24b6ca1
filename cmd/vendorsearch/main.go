package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vendorsearch/internal/config"
	"github.com/kailas-cloud/vendorsearch/internal/db/memory"
	"github.com/kailas-cloud/vendorsearch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/vendorsearch/internal/db/redis"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/query"
	logpkg "github.com/kailas-cloud/vendorsearch/internal/logger"
	"github.com/kailas-cloud/vendorsearch/internal/metrics"
	"github.com/kailas-cloud/vendorsearch/internal/repository/candcache"
	vendorrepo "github.com/kailas-cloud/vendorsearch/internal/repository/vendors"
	chiTransport "github.com/kailas-cloud/vendorsearch/internal/transport/chi"
	healthuc "github.com/kailas-cloud/vendorsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/vendorsearch/internal/usecase/search"
	"github.com/kailas-cloud/vendorsearch/internal/version"
)

func main() {
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

	logger.Info("Starting vendorsearch API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	metrics.RegisterHTTPMetrics()
	metrics.RegisterSearchMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := openStores(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open vendor store", zap.Error(err))
	}
	defer stores.close()

	searchSvc := searchuc.New(stores.vendors, searchuc.Options{
		StoreTimeout:  time.Duration(cfg.Search.StoreTimeoutMs) * time.Millisecond,
		MaxCandidates: cfg.Search.MaxCandidates,
	})

	// Pass nil interface (not typed nil pointer) when the cache is off.
	var cachePinger healthuc.Pinger
	if stores.cache != nil {
		cachePinger = stores.cache
	}
	healthSvc := healthuc.New(stores.pinger, cachePinger)

	server := chiTransport.NewServer(searchSvc, healthSvc, query.Limits{
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
		DefaultRadiusKm: cfg.Search.DefaultRadiusKm,
		MaxRadiusKm:     cfg.Search.MaxRadiusKm,
	}, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.Recoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.RequestLogger(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
		return
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
		return
	}
	logger.Info("Server stopped")
}

// stores bundles the vendor store chain and the backends behind it.
type stores struct {
	vendors searchuc.VendorStore
	pinger  healthuc.Pinger
	cache   *dbRedis.Store
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores connects the configured vendor store and wraps it with the
// candidate cache when enabled.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	s := &stores{}

	var redisStore *dbRedis.Store
	switch cfg.Database.Driver {
	case config.DriverRedis:
		rs, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		s.closers = append(s.closers, rs.Close)
		if err := rs.WaitForReady(ctx, readiness); err != nil {
			s.close()
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		repo := vendorrepo.New(rs, cfg.Storage.KeyPrefix)
		if err := repo.EnsureIndex(ctx); err != nil {
			s.close()
			return nil, fmt.Errorf("ensure vendor index: %w", err)
		}
		redisStore = rs
		s.vendors, s.pinger = repo, rs
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Database.Addrs), zap.String("index", repo.IndexName()))

	case config.DriverPostgres:
		ps, err := postgres.NewStore(postgres.Config{URL: cfg.Database.URL})
		if err != nil {
			return nil, fmt.Errorf("create postgres store: %w", err)
		}
		s.closers = append(s.closers, ps.Close)
		if err := ps.WaitForReady(ctx, readiness); err != nil {
			s.close()
			return nil, fmt.Errorf("postgres not ready: %w", err)
		}
		if err := ps.Migrate(cfg.Database.MigrationsPath); err != nil {
			s.close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		s.vendors, s.pinger = ps, ps
		logger.Info("Connected to postgres", zap.String("migrations", cfg.Database.MigrationsPath))

	case config.DriverMemory:
		ms := memory.NewStore()
		if cfg.Database.FixturesPath != "" {
			vs, err := memory.LoadFixtureFile(cfg.Database.FixturesPath)
			if err != nil {
				return nil, fmt.Errorf("load fixtures: %w", err)
			}
			if err := ms.UpsertBatch(ctx, vs); err != nil {
				return nil, fmt.Errorf("load fixtures: %w", err)
			}
		}
		s.vendors, s.pinger = ms, ms
		logger.Info("Using in-memory vendor store", zap.Int("vendors", ms.Len()))

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if !cfg.Cache.Enabled {
		return s, nil
	}

	cacheStore := redisStore
	if len(cfg.Cache.Addrs) > 0 || cacheStore == nil {
		cs, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			s.close()
			return nil, fmt.Errorf("create cache store: %w", err)
		}
		s.closers = append(s.closers, cs.Close)
		cacheStore = cs
	}
	s.cache = cacheStore
	s.vendors = candcache.New(s.vendors, cacheStore, cfg.Storage.KeyPrefix,
		time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.CandidateCacheTotal, logger)
	logger.Info("Candidate cache enabled", zap.Int("ttl_sec", cfg.Cache.TTLSec))
	return s, nil
}
