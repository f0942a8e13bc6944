package models

// SubscriptionItem is a line item on a subscription. Ordering matters: the
// first item's product determines the subscription's product type.
type SubscriptionItem struct {
	ID             int64    `gorm:"column:id;primaryKey;autoIncrement"`
	SubscriptionID int64    `gorm:"column:subscription_id;not null;index"`
	ProductID      int64    `gorm:"column:product_id;not null"`
	Quantity       int      `gorm:"column:quantity;not null;default:1"`
	Position       int      `gorm:"column:position;not null;default:0"`
	Product        *Product `gorm:"foreignKey:ProductID"`
}
