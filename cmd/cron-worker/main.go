package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jes-wd/freya-sync/internal/contacts"
	"github.com/jes-wd/freya-sync/internal/cron"
	"github.com/jes-wd/freya-sync/internal/forms"
	"github.com/jes-wd/freya-sync/internal/subscriptions"
	"github.com/jes-wd/freya-sync/internal/sync"
	"github.com/jes-wd/freya-sync/pkg/config"
	"github.com/jes-wd/freya-sync/pkg/db"
	"github.com/jes-wd/freya-sync/pkg/logger"
	"github.com/jes-wd/freya-sync/pkg/metrics"
	"github.com/jes-wd/freya-sync/pkg/migrate"
	"github.com/jes-wd/freya-sync/pkg/omnisend"
	"github.com/jes-wd/freya-sync/pkg/redis"
)

const lockKeyFormat = "fs:cron-worker:lock:%s"

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

	omnisendClient, err := omnisend.NewClient(context.Background(), cfg.Omnisend, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap omnisend client", err)
		os.Exit(1)
	}

	reconciler, err := contacts.NewReconciler(contacts.ReconcilerParams{
		Client: omnisendClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler", err)
		os.Exit(1)
	}

	subscriptionsRepo := subscriptions.NewRepository(dbClient.DB())

	syncService, err := sync.NewService(sync.ServiceParams{
		Logger:        logg,
		Reconciler:    reconciler,
		Contacts:      omnisendClient,
		Forms:         forms.NewRepository(dbClient.DB()),
		Subscriptions: subscriptionsRepo,
		Policy:        subscriptions.NewPolicy(cfg.Sync.ActiveWindow()),
		Deferrer:      redisClient,
		Metrics:       metrics.NewSyncMetrics(prometheus.DefaultRegisterer),
		App:           cfg.App,
		PartialEntry:  cfg.PartialEntry,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewSubscriptionReconcileJob(cron.SubscriptionReconcileJobParams{
		Logger:   logg,
		Source:   subscriptionsRepo,
		Sync:     syncService,
		Limit:    cfg.Cron.ReconcileLimit,
		Lookback: cfg.Cron.ReconcileLookback,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(reconcileJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
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

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
