package syncmeta

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jes-wd/freya-sync/internal/repo"
	"github.com/jes-wd/freya-sync/pkg/db/models"
	pkgerrors "github.com/jes-wd/freya-sync/pkg/errors"
	"github.com/jes-wd/freya-sync/pkg/logger"
)

// SyncMetaKey is the per-order marker written by the upstream CRM plugin.
const SyncMetaKey = "omnisend_last_sync"

// BackupSuffix is appended to SyncMetaKey when preserving a value before
// deletion.
const BackupSuffix = "_backup"

// Report summarizes one cleanup pass.
type Report struct {
	Processed int
	Deleted   int
	Skipped   int
}

// ServiceParams group the cleanup service dependencies.
type ServiceParams struct {
	Logger *logger.Logger
	DB     *gorm.DB
}

// Service removes the sync marker from orders paid on a target date. Each
// value is copied to a backup key in the same transaction before the
// original row is deleted, so a bad run can be reverted.
type Service struct {
	logg *logger.Logger
	base repo.Base
}

// NewService builds a sync-meta cleanup service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db required")
	}
	return &Service{logg: params.Logger, base: repo.NewBase(params.DB)}, nil
}

// CleanupDate deletes the sync marker from every order paid on the given
// day, in the day's location. Orders without the marker count as skipped.
func (s *Service) CleanupDate(ctx context.Context, day time.Time) (*Report, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	ctx = s.logg.WithField(ctx, "target_date", start.Format("2006-01-02"))

	var orders []models.Order
	err := s.base.DB(ctx).
		Preload("Meta").
		Where("paid_at >= ? AND paid_at < ?", start, end).
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders for cleanup")
	}
	if len(orders) == 0 {
		s.logg.Info(ctx, "no orders paid on the target date")
		return &Report{}, nil
	}

	report := &Report{}
	for i := range orders {
		if err := s.cleanupOrder(ctx, &orders[i], report); err != nil {
			return report, err
		}
	}

	summary := s.logg.WithFields(ctx, map[string]any{
		"processed": report.Processed,
		"deleted":   report.Deleted,
		"skipped":   report.Skipped,
	})
	s.logg.Info(summary, "sync meta cleanup complete")
	return report, nil
}

func (s *Service) cleanupOrder(ctx context.Context, order *models.Order, report *Report) error {
	report.Processed++

	var marker *models.OrderMeta
	for i := range order.Meta {
		if order.Meta[i].Key == SyncMetaKey && order.Meta[i].Value != "" {
			marker = &order.Meta[i]
			break
		}
	}
	if marker == nil {
		report.Skipped++
		return nil
	}

	orderCtx := s.logg.WithField(ctx, "order_id", order.ID)
	err := s.base.DB(ctx).Transaction(func(tx *gorm.DB) error {
		backup := models.OrderMeta{
			OrderID: order.ID,
			Key:     SyncMetaKey + BackupSuffix,
			Value:   marker.Value,
		}
		if err := tx.Create(&backup).Error; err != nil {
			return err
		}
		return tx.
			Where("order_id = ? AND meta_key = ?", order.ID, SyncMetaKey).
			Delete(&models.OrderMeta{}).Error
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("cleaning order %d", order.ID))
	}

	report.Deleted++
	s.logg.Info(orderCtx, "deleted sync meta, backup written")
	return nil
}
