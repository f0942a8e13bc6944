package models

import "time"

// Product mirrors a storefront catalog entry. The product type field drives
// which contact property a subscription for this product writes to.
type Product struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement:false"`
	SKU              *string   `gorm:"column:sku"`
	Title            string    `gorm:"column:title;not null"`
	FreyaProductType *string   `gorm:"column:freya_product_type"`
	IsActive         bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
