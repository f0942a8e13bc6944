package backfill

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jes-wd/freya-sync/internal/repo"
	"github.com/jes-wd/freya-sync/pkg/db"
	"github.com/jes-wd/freya-sync/pkg/db/models"
	pkgerrors "github.com/jes-wd/freya-sync/pkg/errors"
)

// Repository persists backfill checkpoints and run records.
type Repository interface {
	IsProcessed(ctx context.Context, userID, subscriptionID int64) (bool, error)
	MarkProcessed(ctx context.Context, userID, subscriptionID int64, productTag string) error
	CreateRun(ctx context.Context, run *models.BackfillRun) error
	FinishRun(ctx context.Context, run *models.BackfillRun) error
}

type repository struct {
	repo.Base
}

// NewRepository builds a backfill repository over the given connection.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(conn)}
}

// IsProcessed reports whether the subscription was already reconciled in a
// previous run.
func (r *repository) IsProcessed(ctx context.Context, userID, subscriptionID int64) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.ProcessedSubscription{}).
		Where("user_id = ? AND subscription_id = ?", userID, subscriptionID).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking processed marker")
	}
	return count > 0, nil
}

// MarkProcessed records the checkpoint. A marker that already exists is not
// an error, so interrupted runs can re-mark safely.
func (r *repository) MarkProcessed(ctx context.Context, userID, subscriptionID int64, productTag string) error {
	marker := models.ProcessedSubscription{
		UserID:         userID,
		SubscriptionID: subscriptionID,
		ProductTag:     productTag,
	}
	err := r.DB(ctx).Create(&marker).Error
	if err != nil && !db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing processed marker")
	}
	return nil
}

// CreateRun opens a run record.
func (r *repository) CreateRun(ctx context.Context, run *models.BackfillRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if err := r.DB(ctx).Create(run).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating backfill run")
	}
	return nil
}

// FinishRun stamps the run finished and persists its counters.
func (r *repository) FinishRun(ctx context.Context, run *models.BackfillRun) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	if err := r.DB(ctx).Save(run).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finishing backfill run")
	}
	return nil
}
