package models

import "time"

// Form mirrors a captured lead form definition.
type Form struct {
	ID        int64        `gorm:"column:id;primaryKey;autoIncrement:false"`
	Title     string       `gorm:"column:title;not null"`
	IsActive  bool         `gorm:"column:is_active;not null;default:true"`
	Fields    []FormField  `gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE"`
	Settings  *FormSetting `gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}
