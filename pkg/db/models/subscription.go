package models

import (
	"time"

	"github.com/jes-wd/freya-sync/pkg/enums"
)

// Subscription mirrors a recurring storefront subscription.
type Subscription struct {
	ID            int64                    `gorm:"column:id;primaryKey;autoIncrement:false"`
	UserID        int64                    `gorm:"column:user_id;not null;index"`
	Status        enums.SubscriptionStatus `gorm:"column:status;not null;index"`
	StartDate     time.Time                `gorm:"column:start_date;not null"`
	NextPaymentAt *time.Time               `gorm:"column:next_payment_at"`
	CancelledAt   *time.Time               `gorm:"column:cancelled_at"`
	User          *User                    `gorm:"foreignKey:UserID"`
	Items         []SubscriptionItem       `gorm:"foreignKey:SubscriptionID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
