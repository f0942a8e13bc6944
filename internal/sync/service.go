package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jes-wd/freya-sync/internal/conditions"
	"github.com/jes-wd/freya-sync/internal/contacts"
	"github.com/jes-wd/freya-sync/internal/forms"
	"github.com/jes-wd/freya-sync/internal/producttype"
	"github.com/jes-wd/freya-sync/internal/queue"
	"github.com/jes-wd/freya-sync/internal/subscriptions"
	"github.com/jes-wd/freya-sync/pkg/config"
	"github.com/jes-wd/freya-sync/pkg/enums"
	"github.com/jes-wd/freya-sync/pkg/logger"
	"github.com/jes-wd/freya-sync/pkg/metrics"
	"github.com/jes-wd/freya-sync/pkg/omnisend"
)

// Metric source labels, one per trigger path.
const (
	sourceSubscription = "subscription"
	sourceForm         = "form"
	sourcePartialEntry = "partial_entry"
)

// PropertyWriter performs the merge-preserving contact property write.
type PropertyWriter interface {
	SetProperty(ctx context.Context, email, name string, value *string) error
}

// ContactUpserter pushes full contact payloads to the CRM.
type ContactUpserter interface {
	CreateContact(ctx context.Context, contact *omnisend.Contact) (*omnisend.Contact, error)
}

// Deferrer schedules delayed partial-entry work and dedupes it.
type Deferrer interface {
	MarkOnce(ctx context.Context, scope, hash string, ttl time.Duration) (bool, error)
	EnqueueDelayed(ctx context.Context, queue, payload string, at time.Time) error
}

// ServiceParams groups dependencies for the sync service.
type ServiceParams struct {
	Logger        *logger.Logger
	Reconciler    PropertyWriter
	Contacts      ContactUpserter
	Forms         forms.Repository
	Subscriptions subscriptions.Repository
	Policy        subscriptions.Policy
	Deferrer      Deferrer
	Metrics       *metrics.SyncMetrics
	App           config.AppConfig
	PartialEntry  config.PartialEntryConfig
}

// Service is the contact sync port: it receives the three domain events
// (form submitted, subscription status changed, partial entry saved) and
// drives the CRM from them.
type Service struct {
	logg         *logger.Logger
	reconciler   PropertyWriter
	contacts     ContactUpserter
	forms        forms.Repository
	subs         subscriptions.Repository
	policy       subscriptions.Policy
	deferrer     Deferrer
	metrics      *metrics.SyncMetrics
	app          config.AppConfig
	partialEntry config.PartialEntryConfig
	now          func() time.Time
}

// NewService builds the sync service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	if params.Contacts == nil {
		return nil, fmt.Errorf("contact client required")
	}
	if params.Forms == nil {
		return nil, fmt.Errorf("forms repository required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	if params.Deferrer == nil {
		return nil, fmt.Errorf("deferrer required")
	}
	return &Service{
		logg:         params.Logger,
		reconciler:   params.Reconciler,
		contacts:     params.Contacts,
		forms:        params.Forms,
		subs:         params.Subscriptions,
		policy:       params.Policy,
		deferrer:     params.Deferrer,
		metrics:      params.Metrics,
		app:          params.App,
		partialEntry: params.PartialEntry,
		now:          time.Now,
	}, nil
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// OnFormSubmitted maps a completed submission to a contact and pushes it,
// unless the form's suppression conditions match the entry. It returns the
// web-tracking identifiers for the caller to surface, or nil when the sync
// was suppressed or skipped.
func (s *Service) OnFormSubmitted(ctx context.Context, formID int64, entry map[string]string) (map[string]string, error) {
	ctx = s.logg.WithFormID(ctx, formID)

	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("loading form %d: %w", formID, err)
	}

	rules, err := s.forms.ListConditions(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("loading suppression conditions for form %d: %w", formID, err)
	}
	if conditions.ShouldSuppress(rules, forms.EntryResolver(form, entry)) {
		s.logg.Info(ctx, "submission matched a suppression condition, skipping sync")
		s.metrics.IncSuppressed(sourceForm)
		return nil, nil
	}

	mapped := contacts.MapSubmission(form, entry, s.now())
	if mapped == nil {
		s.logg.Info(ctx, "submission has no mappable contact, skipping sync")
		return nil, nil
	}

	ctx = s.logg.WithEmail(ctx, mapped.Contact.Email())
	if _, err := s.contacts.CreateContact(ctx, mapped.Contact); err != nil {
		s.logg.Error(ctx, "failed to push submitted contact", err)
		s.metrics.IncFailure(sourceForm)
		return nil, nil
	}

	s.logg.Info(ctx, "submission synced to contact")
	s.metrics.IncSynced(sourceForm)
	return mapped.TrackingIdentifiers, nil
}

// OnSubscriptionStatusChanged reconciles the subscription-status contact
// property after a status transition. Remote write failures are logged and
// counted but not returned: a bad CRM call must never fail the storefront
// transition that triggered it.
func (s *Service) OnSubscriptionStatusChanged(ctx context.Context, subscriptionID int64, newStatus, oldStatus enums.SubscriptionStatus) error {
	ctx = s.logg.WithSubscriptionID(ctx, fmt.Sprintf("%d", subscriptionID))
	ctx = s.logg.WithFields(ctx, map[string]any{
		"old_status": string(oldStatus),
		"new_status": string(newStatus),
	})

	if !s.policy.Handles(newStatus) {
		s.logg.Debug(ctx, "status transition carries no property update")
		return nil
	}

	sub, err := s.subs.FindByID(ctx, subscriptionID)
	if err != nil {
		return fmt.Errorf("loading subscription %d: %w", subscriptionID, err)
	}

	email := ""
	if sub.User != nil {
		email = strings.TrimSpace(sub.User.Email)
	}
	if email == "" {
		s.logg.Warn(ctx, "subscription has no billing email, skipping property update")
		return nil
	}
	ctx = s.logg.WithEmail(ctx, email)

	if !s.app.IsProductionHost() {
		s.logg.Info(ctx, "not the production host, skipping live contact mutation")
		return nil
	}

	hasSibling := false
	if newStatus == enums.SubscriptionStatusCancelled {
		hasSibling, err = s.subs.HasOtherActiveOrOnHold(ctx, sub.UserID, sub.ID)
		if err != nil {
			return fmt.Errorf("checking sibling subscriptions for user %d: %w", sub.UserID, err)
		}
	}

	value := s.policy.Decide(sub, newStatus, hasSibling)
	tag := producttype.ForSubscription(sub)
	property := producttype.PropertyName(tag)

	if err := s.reconciler.SetProperty(ctx, email, property, value); err != nil {
		s.logg.Error(ctx, "failed to update subscription status property", err)
		s.metrics.IncFailure(sourceSubscription)
		return nil
	}
	if value != nil {
		s.metrics.IncSynced(sourceSubscription)
	}
	return nil
}

// OnPartialEntrySaved schedules deferred tagging for an in-progress entry
// on the one configured form. Saves outside that form, without an email, or
// repeating a recently seen email/tag pair are ignored.
func (s *Service) OnPartialEntrySaved(ctx context.Context, formID int64, entry map[string]string) error {
	if s.partialEntry.FormID == 0 || formID != s.partialEntry.FormID {
		return nil
	}
	ctx = s.logg.WithFormID(ctx, formID)

	email := strings.TrimSpace(entry[s.partialEntry.EmailFieldID])
	if email == "" {
		s.logg.Debug(ctx, "partial entry has no email yet, skipping")
		return nil
	}
	ctx = s.logg.WithEmail(ctx, email)

	task := queue.PartialEntryTask{
		Email: email,
		Tag:   strings.TrimSpace(entry[s.partialEntry.TagFieldID]),
	}

	fresh, err := s.deferrer.MarkOnce(ctx, queue.PartialEntryScope, task.Hash(), s.partialEntry.DedupeTTL)
	if err != nil {
		return fmt.Errorf("marking partial entry: %w", err)
	}
	if !fresh {
		s.logg.Info(ctx, "partial entry already scheduled inside the dedupe window")
		s.metrics.IncSuppressed(sourcePartialEntry)
		return nil
	}

	payload, err := task.Encode()
	if err != nil {
		return fmt.Errorf("encoding partial entry task: %w", err)
	}
	if err := s.deferrer.EnqueueDelayed(ctx, queue.PartialEntryQueue, payload, s.now().Add(s.partialEntry.ProcessDelay)); err != nil {
		return fmt.Errorf("scheduling partial entry task: %w", err)
	}

	s.logg.Info(ctx, "partial entry scheduled for deferred sync")
	return nil
}

// ProcessPartialEntry runs a due partial-entry task: it upserts the contact
// by email and applies the campaign tag when one was captured.
func (s *Service) ProcessPartialEntry(ctx context.Context, task queue.PartialEntryTask) error {
	email := strings.TrimSpace(task.Email)
	if email == "" {
		return fmt.Errorf("partial entry task has no email")
	}
	ctx = s.logg.WithEmail(ctx, email)

	if !s.app.IsProductionHost() {
		s.logg.Info(ctx, "not the production host, skipping live contact mutation")
		return nil
	}

	contact := &omnisend.Contact{
		Identifiers: []omnisend.Identifier{{Type: omnisend.IdentifierTypeEmail, ID: email}},
	}
	if task.Tag != "" {
		contact.AddTag(task.Tag)
	}

	if _, err := s.contacts.CreateContact(ctx, contact); err != nil {
		s.metrics.IncFailure(sourcePartialEntry)
		return fmt.Errorf("tagging partial-entry contact: %w", err)
	}

	s.logg.Info(ctx, "partial-entry contact tagged")
	s.metrics.IncSynced(sourcePartialEntry)
	return nil
}
