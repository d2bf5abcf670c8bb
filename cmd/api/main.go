package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/meridianops/stockroute-backend/api/routes"
	"github.com/meridianops/stockroute-backend/internal/bulk"
	"github.com/meridianops/stockroute-backend/internal/centralinv"
	"github.com/meridianops/stockroute-backend/internal/routing"
	"github.com/meridianops/stockroute-backend/internal/shopsync"
	"github.com/meridianops/stockroute-backend/pkg/config"
	"github.com/meridianops/stockroute-backend/pkg/db"
	"github.com/meridianops/stockroute-backend/pkg/logger"
	"github.com/meridianops/stockroute-backend/pkg/metrics"
	"github.com/meridianops/stockroute-backend/pkg/migrate"
	"github.com/meridianops/stockroute-backend/pkg/redis"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	itemsRepo := centralinv.NewRepository(dbClient.DB())
	routingRepo := routing.NewRepository(dbClient.DB())
	shopRepo := shopsync.NewRepository(dbClient.DB())

	routingService, err := routing.NewService(routingRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create routing service", err)
		os.Exit(1)
	}

	itemsService, err := centralinv.NewService(itemsRepo, routingService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)
	locker := shopsync.NewRedisLocker(redisClient, cfg.Sync.LockTTL)
	syncService, err := shopsync.NewService(itemsRepo, shopRepo, routingService, locker, syncMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
		os.Exit(1)
	}

	bulkService, err := bulk.NewService(itemsService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create bulk service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Items:    itemsService,
			Routings: routingService,
			Sync:     syncService,
			Bulk:     bulkService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
