package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jes-wd/freya-sync/api/controllers"
	webhookcontrollers "github.com/jes-wd/freya-sync/api/controllers/webhooks"
	"github.com/jes-wd/freya-sync/api/middleware"
	"github.com/jes-wd/freya-sync/pkg/config"
	"github.com/jes-wd/freya-sync/pkg/db"
	"github.com/jes-wd/freya-sync/pkg/logger"
	"github.com/jes-wd/freya-sync/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	syncService webhookcontrollers.SyncService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Use(middleware.WebhookAuth(cfg.Webhook, logg))
		r.Use(middleware.RateLimit("webhooks", cfg.Webhook.RateLimit, cfg.Webhook.RateWindow, redisClient, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Post("/forms/submission", webhookcontrollers.FormSubmission(syncService, logg))
		r.Post("/forms/partial-entry", webhookcontrollers.PartialEntry(syncService, logg))
		r.Post("/subscriptions/status", webhookcontrollers.SubscriptionStatus(syncService, logg))
	})

	return r
}
