package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/jes-wd/freya-sync/internal/syncmeta"
	"github.com/jes-wd/freya-sync/pkg/config"
	"github.com/jes-wd/freya-sync/pkg/db"
	"github.com/jes-wd/freya-sync/pkg/logger"
	"github.com/jes-wd/freya-sync/pkg/migrate"
)

const dateLayout = "2006-01-02"

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-meta"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	date := flag.String("date", "", "order payment date to clean, YYYY-MM-DD (defaults to yesterday)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sync-meta",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	day := time.Now().UTC().AddDate(0, 0, -1)
	if *date != "" {
		parsed, err := time.Parse(dateLayout, *date)
		if err != nil {
			logg.Error(context.Background(), "invalid -date value", err)
			os.Exit(1)
		}
		day = parsed
	}

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

	service, err := syncmeta.NewService(syncmeta.ServiceParams{
		Logger: logg,
		DB:     dbClient.DB(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync meta service", err)
		os.Exit(1)
	}

	ctx := logg.WithField(context.Background(), "date", day.Format(dateLayout))
	logg.Info(ctx, "starting sync meta cleanup")

	report, err := service.CleanupDate(ctx, day)
	if err != nil {
		logg.Error(ctx, "sync meta cleanup failed", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"processed": report.Processed,
		"deleted":   report.Deleted,
		"skipped":   report.Skipped,
	})
	logg.Info(ctx, "sync meta cleanup finished")
}
