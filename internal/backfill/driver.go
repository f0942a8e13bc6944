package backfill

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/jes-wd/freya-sync/internal/producttype"
	"github.com/jes-wd/freya-sync/internal/subscriptions"
	"github.com/jes-wd/freya-sync/pkg/config"
	"github.com/jes-wd/freya-sync/pkg/db/models"
	dbtypes "github.com/jes-wd/freya-sync/pkg/db/types"
	"github.com/jes-wd/freya-sync/pkg/enums"
	"github.com/jes-wd/freya-sync/pkg/logger"
	"github.com/jes-wd/freya-sync/pkg/pagination"
)

// releaseEvery bounds memory growth on large runs by freeing between
// batches of items.
const releaseEvery = 50

// siblingCheckedStatus is the one status whose property write depends on
// the customer's other subscriptions.
const siblingCheckedStatus = enums.SubscriptionStatusCancelled

// Prober checks whether a contact already exists remotely. The backfill
// only patches existing contacts and must never create new ones.
type Prober interface {
	Exists(ctx context.Context, email string) (bool, error)
}

// PropertyWriter performs the merge-preserving contact property write.
type PropertyWriter interface {
	SetProperty(ctx context.Context, email, name string, value *string) error
}

// DriverParams configure the batch reconciliation driver.
type DriverParams struct {
	Logger        *logger.Logger
	Subscriptions subscriptions.Repository
	Markers       Repository
	Prober        Prober
	Writer        PropertyWriter
	Policy        subscriptions.Policy
	Config        config.BackfillConfig
	App           config.AppConfig

	// ReleaseHook runs every releaseEvery items. Defaults to runtime.GC.
	ReleaseHook func()
	// Sleep throttles between pages. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Driver walks every subscription oldest-first and replays the status
// property reconciliation against the CRM. It is restart-safe through
// processed markers and tolerates any single bad record.
type Driver struct {
	logg    *logger.Logger
	subs    subscriptions.Repository
	markers Repository
	prober  Prober
	writer  PropertyWriter
	policy  subscriptions.Policy
	cfg     config.BackfillConfig
	app     config.AppConfig
	release func()
	sleep   func(time.Duration)
}

// NewDriver builds a backfill driver.
func NewDriver(params DriverParams) (*Driver, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	if params.Markers == nil {
		return nil, fmt.Errorf("markers repository required")
	}
	if params.Prober == nil {
		return nil, fmt.Errorf("prober required")
	}
	if params.Writer == nil {
		return nil, fmt.Errorf("writer required")
	}
	release := params.ReleaseHook
	if release == nil {
		release = runtime.GC
	}
	sleep := params.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Driver{
		logg:    params.Logger,
		subs:    params.Subscriptions,
		markers: params.Markers,
		prober:  params.Prober,
		writer:  params.Writer,
		policy:  params.Policy,
		cfg:     params.Config,
		app:     params.App,
		release: release,
		sleep:   sleep,
	}, nil
}

// Run executes the backfill and returns the finished run record. Live runs
// refuse to start off the production host; dry runs may run anywhere.
func (d *Driver) Run(ctx context.Context) (*models.BackfillRun, error) {
	if !d.cfg.DryRun && !d.app.IsProductionHost() {
		return nil, fmt.Errorf("live backfill refused outside the production host")
	}

	run := &models.BackfillRun{
		DryRun: d.cfg.DryRun,
		Params: dbtypes.JSONMap{
			"batch_size":       d.cfg.BatchSize,
			"processing_limit": d.cfg.ProcessingLimit,
			"start_offset":     d.cfg.StartOffset,
		},
	}
	if err := d.markers.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	ctx = d.logg.WithFields(ctx, map[string]any{
		"run_id":  run.ID.String(),
		"dry_run": d.cfg.DryRun,
	})
	d.logg.Info(ctx, "backfill starting")

	offset := d.cfg.StartOffset
	seen := 0
	capped := false

pages:
	for {
		page := pagination.Page{Limit: d.cfg.BatchSize, Offset: offset}
		subs, err := d.subs.ListPage(ctx, page)
		if err != nil {
			d.finish(ctx, run)
			return run, fmt.Errorf("fetching subscription page at offset %d: %w", offset, err)
		}
		if len(subs) == 0 {
			break
		}

		for i := range subs {
			if d.cfg.ProcessingLimit > 0 && run.Processed >= d.cfg.ProcessingLimit {
				capped = true
				break pages
			}
			d.processItem(ctx, run, &subs[i])
			seen++
			if seen%releaseEvery == 0 {
				d.release()
				progress := d.logg.WithFields(ctx, map[string]any{
					"seen":      seen,
					"processed": run.Processed,
					"skipped":   run.Skipped,
					"errored":   run.Errored,
				})
				d.logg.Info(progress, "backfill progress")
			}
		}

		offset += len(subs)
		if d.cfg.PageDelay > 0 {
			d.sleep(d.cfg.PageDelay)
		}
	}

	if capped {
		d.logg.Info(ctx, "processing limit reached, stopping")
	}
	d.finish(ctx, run)
	return run, nil
}

func (d *Driver) finish(ctx context.Context, run *models.BackfillRun) {
	if err := d.markers.FinishRun(ctx, run); err != nil {
		d.logg.Error(ctx, "failed to finish backfill run record", err)
	}
	elapsed := time.Since(run.StartedAt)
	fields := map[string]any{
		"processed":       run.Processed,
		"skipped":         run.Skipped,
		"errored":         run.Errored,
		"elapsed_seconds": elapsed.Seconds(),
	}
	if run.Processed > 0 {
		fields["avg_item_ms"] = float64(elapsed.Milliseconds()) / float64(run.Processed)
	}
	d.logg.Info(d.logg.WithFields(ctx, fields), "backfill finished")
}

// processItem reconciles one subscription. Every failure is absorbed into
// the run's error counter so one bad record never aborts the batch.
func (d *Driver) processItem(ctx context.Context, run *models.BackfillRun, sub *models.Subscription) {
	ctx = d.logg.WithSubscriptionID(ctx, fmt.Sprintf("%d", sub.ID))

	defer func() {
		if r := recover(); r != nil {
			run.Errored++
			d.logg.Error(ctx, "panic while reconciling subscription", fmt.Errorf("panic: %v", r))
		}
	}()

	email := ""
	if sub.User != nil {
		email = sub.User.Email
	}
	if email == "" {
		run.Skipped++
		return
	}
	ctx = d.logg.WithEmail(ctx, email)

	// The marker checkpoint only applies to full live runs. Capped runs
	// are test slices and dry runs never mark, so consulting the
	// checkpoint there would make results depend on earlier live runs.
	useMarkers := !d.cfg.DryRun && d.cfg.ProcessingLimit == 0
	if useMarkers {
		done, err := d.markers.IsProcessed(ctx, sub.UserID, sub.ID)
		if err != nil {
			d.logg.Error(ctx, "marker lookup failed", err)
			run.Errored++
			return
		}
		if done {
			run.Skipped++
			return
		}
	}

	tag := producttype.ForSubscription(sub)
	property := producttype.PropertyName(tag)

	hasSibling := false
	if sub.Status == siblingCheckedStatus {
		var err error
		hasSibling, err = d.subs.HasOtherActiveOrOnHoldWithTag(ctx, sub.UserID, sub.ID, tag)
		if err != nil {
			d.logg.Error(ctx, "sibling check failed", err)
			run.Errored++
			return
		}
	}

	value := d.policy.Decide(sub, sub.Status, hasSibling)
	if value == nil {
		run.Skipped++
		return
	}

	exists, err := d.prober.Exists(ctx, email)
	if err != nil {
		d.logg.Error(ctx, "contact existence probe failed", err)
		run.Errored++
		return
	}
	if !exists {
		run.Skipped++
		return
	}

	if d.cfg.DryRun {
		dry := d.logg.WithFields(ctx, map[string]any{
			"property": property,
			"value":    *value,
		})
		d.logg.Info(dry, "dry run, would update contact property")
		run.Processed++
		return
	}

	if err := d.writer.SetProperty(ctx, email, property, value); err != nil {
		d.logg.Error(ctx, "contact property update failed", err)
		run.Errored++
		return
	}
	if useMarkers {
		if err := d.markers.MarkProcessed(ctx, sub.UserID, sub.ID, tag); err != nil {
			d.logg.Error(ctx, "failed to write processed marker", err)
		}
	}
	run.Processed++
}
