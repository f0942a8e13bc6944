package conditions

import (
	"testing"

	"github.com/jes-wd/freya-sync/pkg/db/models"
	"github.com/jes-wd/freya-sync/pkg/enums"
)

func rule(fieldID string, op enums.ConditionOperator, value string) models.SuppressionCondition {
	return models.SuppressionCondition{FieldID: fieldID, Operator: op, Value: value}
}

func TestMatchesScalarOperators(t *testing.T) {
	tests := []struct {
		name  string
		rule  models.SuppressionCondition
		value Value
		want  bool
	}{
		{"is match", rule("1", enums.ConditionOperatorIs, "yes"), Scalar("yes"), true},
		{"is mismatch", rule("1", enums.ConditionOperatorIs, "yes"), Scalar("no"), false},
		{"is_not match", rule("1", enums.ConditionOperatorIsNot, "yes"), Scalar("no"), true},
		{"is_not mismatch", rule("1", enums.ConditionOperatorIsNot, "yes"), Scalar("yes"), false},
		{"contains match", rule("1", enums.ConditionOperatorContains, "oo"), Scalar("foobar"), true},
		{"contains mismatch", rule("1", enums.ConditionOperatorContains, "zz"), Scalar("foobar"), false},
		{"not_contains match", rule("1", enums.ConditionOperatorNotContains, "zz"), Scalar("foobar"), true},
		{"not_contains mismatch", rule("1", enums.ConditionOperatorNotContains, "oo"), Scalar("foobar"), false},
		{"empty on blank", rule("1", enums.ConditionOperatorEmpty, ""), Scalar(""), true},
		{"empty on value", rule("1", enums.ConditionOperatorEmpty, ""), Scalar("x"), false},
		{"not_empty on value", rule("1", enums.ConditionOperatorNotEmpty, ""), Scalar("x"), true},
		{"not_empty on blank", rule("1", enums.ConditionOperatorNotEmpty, ""), Scalar(""), false},
		{"unknown operator", rule("1", "between", "x"), Scalar("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.rule, tt.value); got != tt.want {
				t.Fatalf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchesSetOperators(t *testing.T) {
	checked := List("Option A", "Option B")

	if !Matches(rule("4", enums.ConditionOperatorIs, "Option A"), checked) {
		t.Fatal("is should match a member of the set")
	}
	if Matches(rule("4", enums.ConditionOperatorIs, "Option C"), checked) {
		t.Fatal("is should not match a non-member")
	}
	if !Matches(rule("4", enums.ConditionOperatorIsNot, "Option C"), checked) {
		t.Fatal("is_not should match when value is absent from the set")
	}
	if !Matches(rule("4", enums.ConditionOperatorContains, "B"), checked) {
		t.Fatal("contains should match a substring of any element")
	}
	if !Matches(rule("4", enums.ConditionOperatorNotContains, "Z"), checked) {
		t.Fatal("not_contains should match when no element contains the value")
	}
}

func TestMatchesEmptySetIsVacuouslyTrueForNegations(t *testing.T) {
	empty := List()

	if Matches(rule("4", enums.ConditionOperatorIs, "x"), empty) {
		t.Fatal("is on empty set should be false")
	}
	if !Matches(rule("4", enums.ConditionOperatorIsNot, "x"), empty) {
		t.Fatal("is_not on empty set should be true")
	}
	if Matches(rule("4", enums.ConditionOperatorContains, "x"), empty) {
		t.Fatal("contains on empty set should be false")
	}
	if !Matches(rule("4", enums.ConditionOperatorNotContains, "x"), empty) {
		t.Fatal("not_contains on empty set should be true")
	}
	if !Matches(rule("4", enums.ConditionOperatorEmpty, ""), empty) {
		t.Fatal("empty should match an empty set")
	}
}

func TestShouldSuppressShortCircuitsOnFirstMatch(t *testing.T) {
	rules := []models.SuppressionCondition{
		rule("1", enums.ConditionOperatorIs, "skip"),
		rule("2", enums.ConditionOperatorIs, "never-checked"),
	}

	var resolved []string
	resolve := func(fieldID string) Value {
		resolved = append(resolved, fieldID)
		if fieldID == "1" {
			return Scalar("skip")
		}
		return Scalar("")
	}

	if !ShouldSuppress(rules, resolve) {
		t.Fatal("expected suppression")
	}
	if len(resolved) != 1 || resolved[0] != "1" {
		t.Fatalf("expected short-circuit after first rule, resolved %v", resolved)
	}
}

func TestShouldSuppressSkipsIncompleteRules(t *testing.T) {
	rules := []models.SuppressionCondition{
		{FieldID: "", Operator: enums.ConditionOperatorIs, Value: "x"},
		{FieldID: "-1", Operator: enums.ConditionOperatorIs, Value: "x"},
		{FieldID: "3", Operator: "", Value: "x"},
	}
	resolve := func(string) Value { return Scalar("x") }
	if ShouldSuppress(rules, resolve) {
		t.Fatal("incomplete rules should never match")
	}
}

func TestShouldSuppressEmptyList(t *testing.T) {
	if ShouldSuppress(nil, func(string) Value { return Scalar("x") }) {
		t.Fatal("no rules should never suppress")
	}
}
