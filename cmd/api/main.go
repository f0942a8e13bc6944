package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jes-wd/freya-sync/api/routes"
	"github.com/jes-wd/freya-sync/internal/contacts"
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

	syncService, err := sync.NewService(sync.ServiceParams{
		Logger:        logg,
		Reconciler:    reconciler,
		Contacts:      omnisendClient,
		Forms:         forms.NewRepository(dbClient.DB()),
		Subscriptions: subscriptions.NewRepository(dbClient.DB()),
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, syncService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
