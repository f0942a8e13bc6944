package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/jes-wd/freya-sync/internal/backfill"
	"github.com/jes-wd/freya-sync/internal/contacts"
	"github.com/jes-wd/freya-sync/internal/subscriptions"
	"github.com/jes-wd/freya-sync/pkg/config"
	"github.com/jes-wd/freya-sync/pkg/db"
	"github.com/jes-wd/freya-sync/pkg/logger"
	"github.com/jes-wd/freya-sync/pkg/migrate"
	"github.com/jes-wd/freya-sync/pkg/omnisend"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "backfill"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	dryRun := flag.Bool("dry-run", false, "simulate without writing to the CRM or markers")
	limit := flag.Int("limit", 0, "stop after this many processed subscriptions (0 = no cap)")
	offset := flag.Int("offset", 0, "start offset into the oldest-first subscription list")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "backfill"
	if *dryRun {
		cfg.Backfill.DryRun = true
	}
	if *limit > 0 {
		cfg.Backfill.ProcessingLimit = *limit
	}
	if *offset > 0 {
		cfg.Backfill.StartOffset = *offset
	}

	logg = logger.New(logger.Options{
		ServiceName: "backfill",
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

	driver, err := backfill.NewDriver(backfill.DriverParams{
		Logger:        logg,
		Subscriptions: subscriptions.NewRepository(dbClient.DB()),
		Markers:       backfill.NewRepository(dbClient.DB()),
		Prober:        omnisendClient,
		Writer:        reconciler,
		Policy:        subscriptions.NewPolicy(cfg.Sync.ActiveWindow()),
		Config:        cfg.Backfill,
		App:           cfg.App,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create backfill driver", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"dry_run": cfg.Backfill.DryRun,
	})
	logg.Info(ctx, "starting subscription backfill")

	run, err := driver.Run(ctx)
	if err != nil {
		logg.Error(ctx, "backfill failed", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"processed": run.Processed,
		"skipped":   run.Skipped,
		"errored":   run.Errored,
	})
	logg.Info(ctx, "backfill finished")
}
