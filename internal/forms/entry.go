package forms

import (
	"strconv"

	"github.com/jes-wd/freya-sync/internal/conditions"
	"github.com/jes-wd/freya-sync/pkg/db/models"
)

// EntryResolver adapts a submitted entry to the condition evaluator. For
// checkbox-style fields the resolved value is the set of non-empty
// sub-input values; for every other field it is the single scalar value,
// empty string when absent.
func EntryResolver(form *models.Form, entry map[string]string) conditions.Resolver {
	fieldsByID := make(map[string]*models.FormField, len(form.Fields))
	for i := range form.Fields {
		fieldsByID[strconv.FormatInt(form.Fields[i].FieldID, 10)] = &form.Fields[i]
	}

	return func(fieldID string) conditions.Value {
		field, ok := fieldsByID[fieldID]
		if !ok || !field.Type.IsMultiInput() {
			return conditions.Scalar(entry[fieldID])
		}

		inputs, err := field.ParsedInputs()
		if err != nil || len(inputs) == 0 {
			return conditions.List()
		}
		var values []string
		for _, input := range inputs {
			if v := entry[input.ID]; v != "" {
				values = append(values, v)
			}
		}
		return conditions.List(values...)
	}
}
