package conditions

import (
	"strings"

	"github.com/jes-wd/freya-sync/pkg/db/models"
	"github.com/jes-wd/freya-sync/pkg/enums"
)

// unmappedFieldID marks a rule whose field was never chosen in the UI.
const unmappedFieldID = "-1"

// Value is a resolved field value under test: a single scalar for regular
// fields, or the set of non-empty sub-input values for checkbox-style fields.
type Value struct {
	scalar string
	items  []string
	isList bool
}

// Scalar wraps a single field value.
func Scalar(v string) Value {
	return Value{scalar: v}
}

// List wraps a set of sub-input values. The set may be empty.
func List(items ...string) Value {
	return Value{items: items, isList: true}
}

// IsEmpty reports whether the value is an empty string or an empty set.
func (v Value) IsEmpty() bool {
	if v.isList {
		return len(v.items) == 0
	}
	return v.scalar == ""
}

// Resolver maps a condition's field id to the submitted value.
type Resolver func(fieldID string) Value

// ShouldSuppress reports whether any rule matches the submission. Rules are
// OR'd with short-circuit, so order affects only performance. Rules with a
// missing field id or operator never match.
func ShouldSuppress(rules []models.SuppressionCondition, resolve Resolver) bool {
	if len(rules) == 0 || resolve == nil {
		return false
	}
	for _, rule := range rules {
		if rule.FieldID == "" || rule.FieldID == unmappedFieldID || rule.Operator == "" {
			continue
		}
		if Matches(rule, resolve(rule.FieldID)) {
			return true
		}
	}
	return false
}

// Matches evaluates one rule against a resolved value.
//
// For set values, is/is_not test membership and contains/not_contains test
// substring presence in any element. The negated operators are vacuously
// true on an empty set: "x" is not a member of, and is not contained in,
// nothing.
func Matches(rule models.SuppressionCondition, value Value) bool {
	switch rule.Operator {
	case enums.ConditionOperatorIs:
		if value.isList {
			return containsExact(value.items, rule.Value)
		}
		return value.scalar == rule.Value

	case enums.ConditionOperatorIsNot:
		if value.isList {
			return !containsExact(value.items, rule.Value)
		}
		return value.scalar != rule.Value

	case enums.ConditionOperatorContains:
		if value.isList {
			return containsSubstring(value.items, rule.Value)
		}
		return strings.Contains(value.scalar, rule.Value)

	case enums.ConditionOperatorNotContains:
		if value.isList {
			return !containsSubstring(value.items, rule.Value)
		}
		return !strings.Contains(value.scalar, rule.Value)

	case enums.ConditionOperatorEmpty:
		return value.IsEmpty()

	case enums.ConditionOperatorNotEmpty:
		return !value.IsEmpty()

	default:
		return false
	}
}

func containsExact(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

func containsSubstring(items []string, target string) bool {
	for _, item := range items {
		if strings.Contains(item, target) {
			return true
		}
	}
	return false
}
