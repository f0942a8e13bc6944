package models

import "time"

// Order mirrors a storefront order. Only the fields the sync and cleanup
// paths read are carried over.
type Order struct {
	ID        int64       `gorm:"column:id;primaryKey;autoIncrement:false"`
	UserID    int64       `gorm:"column:user_id;not null;index"`
	Status    string      `gorm:"column:status;not null"`
	PaidAt    *time.Time  `gorm:"column:paid_at;index"`
	Meta      []OrderMeta `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}
