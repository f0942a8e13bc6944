package webhooks

import (
	"context"
	"net/http"

	"github.com/jes-wd/freya-sync/api/responses"
	"github.com/jes-wd/freya-sync/api/validators"
	"github.com/jes-wd/freya-sync/pkg/enums"
	pkgerrors "github.com/jes-wd/freya-sync/pkg/errors"
	"github.com/jes-wd/freya-sync/pkg/logger"
)

// SyncService is the contact sync port the webhook surface drives.
type SyncService interface {
	OnFormSubmitted(ctx context.Context, formID int64, entry map[string]string) (map[string]string, error)
	OnSubscriptionStatusChanged(ctx context.Context, subscriptionID int64, newStatus, oldStatus enums.SubscriptionStatus) error
	OnPartialEntrySaved(ctx context.Context, formID int64, entry map[string]string) error
}

type formSubmissionRequest struct {
	FormID int64             `json:"form_id" validate:"required"`
	Entry  map[string]string `json:"entry" validate:"required"`
}

type partialEntryRequest struct {
	FormID int64             `json:"form_id" validate:"required"`
	Entry  map[string]string `json:"entry" validate:"required"`
}

type subscriptionStatusRequest struct {
	SubscriptionID int64  `json:"subscription_id" validate:"required"`
	NewStatus      string `json:"new_status" validate:"required"`
	OldStatus      string `json:"old_status"`
}

// maxEntryValueLen bounds individual entry values; form platforms cap
// field input well below this.
const maxEntryValueLen = 4096

func sanitizeEntry(entry map[string]string) map[string]string {
	clean := make(map[string]string, len(entry))
	for key, value := range entry {
		clean[key] = validators.SanitizeString(value, maxEntryValueLen)
	}
	return clean
}

// FormSubmission handles a completed form submission delivery.
func FormSubmission(service SyncService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req formSubmissionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tracking, err := service.OnFormSubmitted(r.Context(), req.FormID, sanitizeEntry(req.Entry))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"synced":   tracking != nil,
			"tracking": tracking,
		})
	}
}

// PartialEntry handles a saved-but-unsubmitted entry delivery.
func PartialEntry(service SyncService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req partialEntryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := service.OnPartialEntrySaved(r.Context(), req.FormID, sanitizeEntry(req.Entry)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	}
}

// SubscriptionStatus handles a subscription status transition delivery. The
// upstream platform prefixes stored statuses with "wc-", which the parser
// strips.
func SubscriptionStatus(service SyncService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req subscriptionStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		newStatus, err := enums.ParseSubscriptionStatus(req.NewStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown subscription status"))
			return
		}
		// The old status only provides log context, so an unknown value
		// passes through unparsed.
		oldStatus, _ := enums.ParseSubscriptionStatus(req.OldStatus)

		if err := service.OnSubscriptionStatusChanged(r.Context(), req.SubscriptionID, newStatus, oldStatus); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	}
}
