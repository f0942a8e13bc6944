package models

// OrderMeta is a key/value row attached to an order, matching the upstream
// platform's free-form meta storage.
type OrderMeta struct {
	ID      int64  `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID int64  `gorm:"column:order_id;not null;index:idx_order_meta_key,priority:1"`
	Key     string `gorm:"column:meta_key;not null;index:idx_order_meta_key,priority:2"`
	Value   string `gorm:"column:meta_value;not null;default:''"`
}

// TableName keeps the legacy singular-style name used by the importer.
func (OrderMeta) TableName() string {
	return "order_meta"
}
