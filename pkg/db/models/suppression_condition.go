package models

import (
	"github.com/jes-wd/freya-sync/pkg/enums"
)

// SuppressionCondition is one rule in a form's suppression list. Rules are
// evaluated in position order and any match suppresses the sync.
type SuppressionCondition struct {
	ID       int64                   `gorm:"column:id;primaryKey;autoIncrement"`
	FormID   int64                   `gorm:"column:form_id;not null;index"`
	FieldID  string                  `gorm:"column:field_id;not null"`
	Operator enums.ConditionOperator `gorm:"column:operator;not null"`
	Value    string                  `gorm:"column:value;not null;default:''"`
	Position int                     `gorm:"column:position;not null;default:0"`
}
