package models

import "time"

// ProcessedSubscription marks a subscription as handled by the backfill so
// reruns skip it. One row per user/subscription pair.
type ProcessedSubscription struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID         int64     `gorm:"column:user_id;not null;uniqueIndex:idx_processed_user_sub,priority:1"`
	SubscriptionID int64     `gorm:"column:subscription_id;not null;uniqueIndex:idx_processed_user_sub,priority:2"`
	ProductTag     string    `gorm:"column:product_tag;not null;default:''"`
	ProcessedAt    time.Time `gorm:"column:processed_at;autoCreateTime"`
}
