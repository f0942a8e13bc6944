package forms

import (
	"encoding/json"
	"testing"

	"github.com/jes-wd/freya-sync/internal/conditions"
	"github.com/jes-wd/freya-sync/pkg/db/models"
	"github.com/jes-wd/freya-sync/pkg/enums"
)

func checkboxForm(t *testing.T) *models.Form {
	t.Helper()
	inputs, err := json.Marshal([]models.FieldInput{
		{ID: "4.1", Label: "Option A"},
		{ID: "4.2", Label: "Option B"},
		{ID: "4.3", Label: "Option C"},
	})
	if err != nil {
		t.Fatalf("marshal inputs: %v", err)
	}
	return &models.Form{
		ID: 1,
		Fields: []models.FormField{
			{FieldID: 2, Label: "Reason", Type: enums.FormFieldTypeText},
			{FieldID: 4, Label: "Choices", Type: enums.FormFieldTypeCheckbox, Inputs: inputs},
		},
	}
}

func TestEntryResolverScalarField(t *testing.T) {
	form := checkboxForm(t)
	resolve := EntryResolver(form, map[string]string{"2": "curiosity"})

	rule := models.SuppressionCondition{FieldID: "2", Operator: enums.ConditionOperatorIs, Value: "curiosity"}
	if !conditions.Matches(rule, resolve("2")) {
		t.Fatal("scalar value should resolve from the entry")
	}
}

func TestEntryResolverUnknownFieldResolvesEmptyScalar(t *testing.T) {
	form := checkboxForm(t)
	resolve := EntryResolver(form, map[string]string{})

	rule := models.SuppressionCondition{FieldID: "99", Operator: enums.ConditionOperatorEmpty}
	if !conditions.Matches(rule, resolve("99")) {
		t.Fatal("absent field should resolve to an empty scalar")
	}
}

func TestEntryResolverCheckboxCollectsNonEmptySubInputs(t *testing.T) {
	form := checkboxForm(t)
	resolve := EntryResolver(form, map[string]string{
		"4.1": "Option A",
		"4.2": "",
		"4.3": "Option C",
	})

	value := resolve("4")
	memberA := models.SuppressionCondition{FieldID: "4", Operator: enums.ConditionOperatorIs, Value: "Option A"}
	if !conditions.Matches(memberA, value) {
		t.Fatal("checked sub-input should be a set member")
	}
	memberB := models.SuppressionCondition{FieldID: "4", Operator: enums.ConditionOperatorIs, Value: ""}
	if conditions.Matches(memberB, value) {
		t.Fatal("empty sub-input should be excluded from the set")
	}
}

func TestEntryResolverCheckboxNothingChecked(t *testing.T) {
	form := checkboxForm(t)
	resolve := EntryResolver(form, map[string]string{})

	value := resolve("4")
	empty := models.SuppressionCondition{FieldID: "4", Operator: enums.ConditionOperatorEmpty}
	if !conditions.Matches(empty, value) {
		t.Fatal("unchecked checkbox should resolve to an empty set")
	}
	isNot := models.SuppressionCondition{FieldID: "4", Operator: enums.ConditionOperatorIsNot, Value: "x"}
	if !conditions.Matches(isNot, value) {
		t.Fatal("is_not on an empty set should hold vacuously")
	}
}
