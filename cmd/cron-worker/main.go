package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	cartsvc "github.com/avelezquez/shopcart-backend/internal/cart"
	"github.com/avelezquez/shopcart-backend/internal/cron"
	product "github.com/avelezquez/shopcart-backend/internal/products"
	"github.com/avelezquez/shopcart-backend/pkg/config"
	"github.com/avelezquez/shopcart-backend/pkg/db"
	"github.com/avelezquez/shopcart-backend/pkg/logger"
	"github.com/avelezquez/shopcart-backend/pkg/metrics"
	"github.com/avelezquez/shopcart-backend/pkg/migrate"
	"github.com/avelezquez/shopcart-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	cartService, err := cartsvc.NewService(cartsvc.ServiceParams{
		Repo:     cartsvc.NewRepository(dbClient.DB()),
		Tx:       dbClient,
		Products: product.NewRepository(dbClient.DB()),
		Cache:    redisClient,
		Logger:   logg,
		CacheTTL: cfg.Cart.ReadCacheTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewCartRetentionJob(cron.CartRetentionJobParams{
		Logger:    logg,
		Sweeper:   cartService,
		Retention: cfg.Cart.Retention(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart retention job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(retentionJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		AtHour:   cfg.Cart.SweepHour,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
