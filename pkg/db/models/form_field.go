package models

import (
	"encoding/json"

	"github.com/jes-wd/freya-sync/pkg/enums"
)

// FormField is one field on a form. Multi-input fields (checkbox, name,
// address) carry their sub-inputs as JSON, keyed like "4.1".
type FormField struct {
	ID      int64               `gorm:"column:id;primaryKey;autoIncrement"`
	FormID  int64               `gorm:"column:form_id;not null;index"`
	FieldID int64               `gorm:"column:field_id;not null"`
	Label   string              `gorm:"column:label;not null"`
	Type    enums.FormFieldType `gorm:"column:type;not null"`
	Inputs  json.RawMessage     `gorm:"column:inputs;type:jsonb"`
	Choices json.RawMessage     `gorm:"column:choices;type:jsonb"`
}

// FieldInput is one sub-input of a multi-input field.
type FieldInput struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// FieldChoice is one selectable option on a choice-based field.
type FieldChoice struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// ParsedInputs decodes the sub-input definitions, returning nil for
// scalar fields.
func (f FormField) ParsedInputs() ([]FieldInput, error) {
	if len(f.Inputs) == 0 {
		return nil, nil
	}
	var inputs []FieldInput
	if err := json.Unmarshal(f.Inputs, &inputs); err != nil {
		return nil, err
	}
	return inputs, nil
}

// ParsedChoices decodes the choice definitions, returning nil when the
// field has none.
func (f FormField) ParsedChoices() ([]FieldChoice, error) {
	if len(f.Choices) == 0 {
		return nil, nil
	}
	var choices []FieldChoice
	if err := json.Unmarshal(f.Choices, &choices); err != nil {
		return nil, err
	}
	return choices, nil
}
