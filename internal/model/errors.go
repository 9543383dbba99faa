package model

import "fmt"

// InvalidModifierError reports a modifier that cannot be applied to a profile:
// an attribute outside the schema, an attribute the profile does not define,
// an unknown operation or stacking rule, or a non-finite value.
type InvalidModifierError struct {
	Modifier string
	Field    string
	Value    string
	Reason   string
}

func (e *InvalidModifierError) Error() string {
	return fmt.Sprintf("invalid modifier %q: %s=%s: %s", e.Modifier, e.Field, e.Value, e.Reason)
}

// UnknownDamageTypeError reports a damage type outside {physical, arts, true}.
type UnknownDamageTypeError struct {
	Value string
}

func (e *UnknownDamageTypeError) Error() string {
	return fmt.Sprintf("unknown damage type %q", e.Value)
}

// InvalidScenarioError reports a scenario field that makes a run meaningless.
type InvalidScenarioError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidScenarioError) Error() string {
	return fmt.Sprintf("invalid scenario: %s=%s: %s", e.Field, e.Value, e.Reason)
}

// EmptyOperatorSetError is returned when a comparison receives no operators.
type EmptyOperatorSetError struct{}

func (e *EmptyOperatorSetError) Error() string {
	return "comparison requires at least one operator"
}

// InvalidProfileError reports a resolved attribute outside its valid range,
// e.g. a zero attack interval or a negative attack after debuffs.
type InvalidProfileError struct {
	Operator string
	Field    string
	Value    float64
	Reason   string
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("operator %q: %s=%g: %s", e.Operator, e.Field, e.Value, e.Reason)
}

// DuplicateOperatorError is returned when two comparison entries share the
// same identity, or when a stored operator name is already taken.
type DuplicateOperatorError struct {
	Name string
}

func (e *DuplicateOperatorError) Error() string {
	return fmt.Sprintf("duplicate operator %q", e.Name)
}
