package forms

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jes-wd/freya-sync/internal/repo"
	"github.com/jes-wd/freya-sync/pkg/db/models"
	pkgerrors "github.com/jes-wd/freya-sync/pkg/errors"
)

// Repository provides form definition lookups.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*models.Form, error)
	ListConditions(ctx context.Context, formID int64) ([]models.SuppressionCondition, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a form repository over the given connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

// FindByID loads a form with its fields and settings.
func (r *repository) FindByID(ctx context.Context, id int64) (*models.Form, error) {
	var form models.Form
	err := r.DB(ctx).
		Preload("Fields", func(db *gorm.DB) *gorm.DB {
			return db.Order("form_fields.field_id ASC")
		}).
		Preload("Settings").
		First(&form, "forms.id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "form not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finding form")
	}
	return &form, nil
}

// ListConditions returns the form's suppression rules in position order.
func (r *repository) ListConditions(ctx context.Context, formID int64) ([]models.SuppressionCondition, error) {
	var rules []models.SuppressionCondition
	err := r.DB(ctx).
		Where("form_id = ?", formID).
		Order("position ASC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing suppression conditions")
	}
	return rules, nil
}
