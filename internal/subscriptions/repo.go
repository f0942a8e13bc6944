package subscriptions

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jes-wd/freya-sync/internal/producttype"
	"github.com/jes-wd/freya-sync/internal/repo"
	"github.com/jes-wd/freya-sync/pkg/db/models"
	"github.com/jes-wd/freya-sync/pkg/enums"
	pkgerrors "github.com/jes-wd/freya-sync/pkg/errors"
	"github.com/jes-wd/freya-sync/pkg/pagination"
)

// siblingStatuses are the states that keep a customer "subscribed" for the
// purposes of the cancelled-status check.
var siblingStatuses = []enums.SubscriptionStatus{
	enums.SubscriptionStatusActive,
	enums.SubscriptionStatusOnHold,
}

// Repository provides subscription lookups for sync and backfill.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*models.Subscription, error)
	ListPage(ctx context.Context, page pagination.Page) ([]models.Subscription, error)
	ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]models.Subscription, error)
	HasOtherActiveOrOnHold(ctx context.Context, userID, excludeID int64) (bool, error)
	HasOtherActiveOrOnHoldWithTag(ctx context.Context, userID, excludeID int64, tag string) (bool, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a subscription repository over the given connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) preloaded(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("subscription_items.position ASC, subscription_items.id ASC")
		}).
		Preload("Items.Product")
}

// FindByID loads a subscription with its user, items, and products.
func (r *repository) FindByID(ctx context.Context, id int64) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.preloaded(ctx).First(&sub, "subscriptions.id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finding subscription")
	}
	return &sub, nil
}

// ListPage returns one page of subscriptions ordered oldest-first, with
// items and products preloaded.
func (r *repository) ListPage(ctx context.Context, page pagination.Page) ([]models.Subscription, error) {
	page = page.Normalize()
	var subs []models.Subscription
	err := r.preloaded(ctx).
		Order("subscriptions.start_date ASC, subscriptions.id ASC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&subs).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing subscriptions")
	}
	return subs, nil
}

// ListUpdatedSince returns subscriptions touched after the cutoff, most
// recently updated first, with the full graph preloaded.
func (r *repository) ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	query := r.preloaded(ctx).
		Where("subscriptions.updated_at >= ?", since).
		Order("subscriptions.updated_at DESC, subscriptions.id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&subs).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing recently updated subscriptions")
	}
	return subs, nil
}

// HasOtherActiveOrOnHold reports whether the user holds any other active or
// on-hold subscription, regardless of product type.
func (r *repository) HasOtherActiveOrOnHold(ctx context.Context, userID, excludeID int64) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ? AND id <> ? AND status IN ?", userID, excludeID, siblingStatuses).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting sibling subscriptions")
	}
	return count > 0, nil
}

// HasOtherActiveOrOnHoldWithTag reports whether the user holds any other
// active or on-hold subscription whose resolved product type tag matches.
// The tag comparison runs after normalization, so it happens here rather
// than in SQL.
func (r *repository) HasOtherActiveOrOnHoldWithTag(ctx context.Context, userID, excludeID int64, tag string) (bool, error) {
	// An empty tag means the subscription's product type is unknown;
	// matching it against siblings that also lack items would suppress
	// writes on unrelated product lines.
	if tag == "" {
		return false, nil
	}
	var siblings []models.Subscription
	err := r.preloaded(ctx).
		Where("user_id = ? AND id <> ? AND status IN ?", userID, excludeID, siblingStatuses).
		Find(&siblings).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading sibling subscriptions")
	}
	for i := range siblings {
		if producttype.ForSubscription(&siblings[i]) == tag {
			return true, nil
		}
	}
	return false, nil
}
