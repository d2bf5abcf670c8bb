package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/meridianops/stockroute-backend/internal/centralinv"
	"github.com/meridianops/stockroute-backend/internal/routing"
	"github.com/meridianops/stockroute-backend/internal/shopsync"
	"github.com/meridianops/stockroute-backend/pkg/config"
	"github.com/meridianops/stockroute-backend/pkg/db"
	"github.com/meridianops/stockroute-backend/pkg/logger"
	"github.com/meridianops/stockroute-backend/pkg/metrics"
	"github.com/meridianops/stockroute-backend/pkg/migrate"
	"github.com/meridianops/stockroute-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	routingService, err := routing.NewService(routing.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create routing service", err)
		os.Exit(1)
	}

	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)
	locker := shopsync.NewRedisLocker(redisClient, cfg.Sync.LockTTL)
	syncService, err := shopsync.NewService(
		centralinv.NewRepository(dbClient.DB()),
		shopsync.NewRepository(dbClient.DB()),
		routingService,
		locker,
		syncMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Sync.Interval.String(),
	})
	logg.Info(ctx, "starting sync worker")

	if err := run(ctx, cfg.Sync.Interval, syncService, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sync worker shutting down gracefully")
}

// run performs one pass immediately, then keeps syncing on the configured
// interval until the context is cancelled.
func run(ctx context.Context, interval time.Duration, svc shopsync.Service, logg *logger.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runPass(ctx, svc, logg)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			runPass(ctx, svc, logg)
		}
	}
}

func runPass(ctx context.Context, svc shopsync.Service, logg *logger.Logger) {
	results, err := svc.SyncAll(ctx)
	if err != nil {
		// Per-shop failures come back aggregated; the next tick retries them.
		logg.Error(ctx, "sync pass finished with failures", err)
	}
	for _, result := range results {
		fields := map[string]any{
			"shop_id":   result.ShopID,
			"updated":   result.Updated,
			"unchanged": result.Unchanged,
			"removed":   result.Removed,
			"failed":    result.Failed,
		}
		logg.Info(logg.WithFields(ctx, fields), "shop sync complete")
	}
}
