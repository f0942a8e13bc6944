package models

import "time"

// User mirrors a storefront customer account. IDs come from the upstream
// platform, so they are assigned rather than generated.
type User struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement:false"`
	Email     string     `gorm:"type:text;not null;uniqueIndex"`
	FirstName string     `gorm:"column:first_name;not null;default:''"`
	LastName  string     `gorm:"column:last_name;not null;default:''"`
	Phone     *string    `gorm:"column:phone"`
	LastSeen  *time.Time `gorm:"column:last_seen"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
