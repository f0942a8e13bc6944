package enums

import "fmt"

// ConditionOperator identifies how a suppression rule compares a field value.
type ConditionOperator string

const (
	ConditionOperatorIs          ConditionOperator = "is"
	ConditionOperatorIsNot       ConditionOperator = "is_not"
	ConditionOperatorContains    ConditionOperator = "contains"
	ConditionOperatorNotContains ConditionOperator = "not_contains"
	ConditionOperatorEmpty       ConditionOperator = "empty"
	ConditionOperatorNotEmpty    ConditionOperator = "not_empty"
)

var validConditionOperators = []ConditionOperator{
	ConditionOperatorIs,
	ConditionOperatorIsNot,
	ConditionOperatorContains,
	ConditionOperatorNotContains,
	ConditionOperatorEmpty,
	ConditionOperatorNotEmpty,
}

// String implements fmt.Stringer.
func (o ConditionOperator) String() string {
	return string(o)
}

// IsValid reports whether the value is known.
func (o ConditionOperator) IsValid() bool {
	for _, candidate := range validConditionOperators {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseConditionOperator converts raw input into a ConditionOperator.
func ParseConditionOperator(value string) (ConditionOperator, error) {
	for _, candidate := range validConditionOperators {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid condition operator %q", value)
}
