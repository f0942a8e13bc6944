package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/jes-wd/freya-sync/api/responses"
	"github.com/jes-wd/freya-sync/pkg/config"
	"github.com/jes-wd/freya-sync/pkg/db"
	pkgerrors "github.com/jes-wd/freya-sync/pkg/errors"
	"github.com/jes-wd/freya-sync/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// HealthLive reports process liveness.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"status": "ok",
			"env":    cfg.App.Env,
		})
	}
}

// HealthReady reports readiness by pinging the backing stores.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		checks["db"] = pingStatus(ctx, dbP)
		checks["redis"] = pingStatus(ctx, redisP)
		for _, status := range checks {
			if status != "ok" {
				healthy = false
			}
		}

		if !healthy {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(checks)
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"status": "ok",
			"env":    cfg.App.Env,
			"checks": checks,
		})
	}
}

func pingStatus(ctx context.Context, pinger db.Pinger) string {
	if pinger == nil {
		return "skipped"
	}
	if err := pinger.Ping(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}
