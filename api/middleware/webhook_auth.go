package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/jes-wd/freya-sync/api/responses"
	"github.com/jes-wd/freya-sync/pkg/config"
	pkgerrors "github.com/jes-wd/freya-sync/pkg/errors"
	"github.com/jes-wd/freya-sync/pkg/logger"
)

const webhookTokenHeader = "X-Webhook-Token"

// WebhookAuth rejects webhook deliveries whose shared token does not match
// the configured one. An empty configured token disables the check.
func WebhookAuth(cfg config.WebhookConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Token == "" {
				next.ServeHTTP(w, r)
				return
			}
			provided := strings.TrimSpace(r.Header.Get(webhookTokenHeader))
			if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.Token)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
