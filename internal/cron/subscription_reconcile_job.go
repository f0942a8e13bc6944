package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/jes-wd/freya-sync/pkg/db/models"
	"github.com/jes-wd/freya-sync/pkg/enums"
	"github.com/jes-wd/freya-sync/pkg/logger"
)

const (
	defaultReconcileLimit    = 250
	defaultReconcileLookback = 7 * 24 * time.Hour
)

// subscriptionSource lists subscriptions touched inside the lookback window.
type subscriptionSource interface {
	ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]models.Subscription, error)
}

// statusSyncPort replays one subscription's status against the CRM.
type statusSyncPort interface {
	OnSubscriptionStatusChanged(ctx context.Context, subscriptionID int64, newStatus, oldStatus enums.SubscriptionStatus) error
}

// SubscriptionReconcileJobParams configure the reconcile cron job.
type SubscriptionReconcileJobParams struct {
	Logger   *logger.Logger
	Source   subscriptionSource
	Sync     statusSyncPort
	Limit    int
	Lookback time.Duration
	Now      func() time.Time
}

type subscriptionReconcileJob struct {
	logg     *logger.Logger
	source   subscriptionSource
	sync     statusSyncPort
	limit    int
	lookback time.Duration
	now      func() time.Time
}

// NewSubscriptionReconcileJob builds a job that re-runs the status property
// sync for every subscription updated inside the lookback window. Webhook
// deliveries can be missed; the periodic replay converges the CRM back to
// the store's state.
func NewSubscriptionReconcileJob(params SubscriptionReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Source == nil {
		return nil, fmt.Errorf("subscription source required")
	}
	if params.Sync == nil {
		return nil, fmt.Errorf("sync port required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultReconcileLookback
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &subscriptionReconcileJob{
		logg:     params.Logger,
		source:   params.Source,
		sync:     params.Sync,
		limit:    limit,
		lookback: lookback,
		now:      now,
	}, nil
}

func (j *subscriptionReconcileJob) Name() string { return "subscription_reconcile" }

func (j *subscriptionReconcileJob) Run(ctx context.Context) error {
	since := j.now().Add(-j.lookback)
	subs, err := j.source.ListUpdatedSince(ctx, since, j.limit)
	if err != nil {
		return fmt.Errorf("listing recently updated subscriptions: %w", err)
	}
	if len(subs) == 0 {
		j.logg.Info(ctx, "no recently updated subscriptions to reconcile")
		return nil
	}

	var errs error
	for i := range subs {
		sub := &subs[i]
		// Replaying treats the stored status as both sides of the
		// transition.
		if err := j.sync.OnSubscriptionStatusChanged(ctx, sub.ID, sub.Status, sub.Status); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("subscription %d: %w", sub.ID, err))
		}
	}

	summary := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(subs),
		"failed":     len(multierr.Errors(errs)),
	})
	j.logg.Info(summary, "subscription reconcile pass complete")
	return errs
}
