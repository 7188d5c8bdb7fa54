package flow

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Operator identifies an assertion comparison. The set is closed: an
// unrecognized operator string is rejected while decoding, so downstream
// dispatch can match exhaustively.
type Operator string

// Operator values.
const (
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "notEquals"
	OpContains           Operator = "contains"
	OpNotContains        Operator = "notContains"
	OpExists             Operator = "exists"
	OpNotExists          Operator = "notExists"
	OpGreaterThan        Operator = "greaterThan"
	OpGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OpLessThan           Operator = "lessThan"
	OpLessThanOrEqual    Operator = "lessThanOrEqual"
	OpMatches            Operator = "matches"
	OpAIEvaluate         Operator = "ai-evaluate"
)

var operators = map[Operator]bool{
	OpEquals:             true,
	OpNotEquals:          true,
	OpContains:           true,
	OpNotContains:        true,
	OpExists:             true,
	OpNotExists:          true,
	OpGreaterThan:        true,
	OpGreaterThanOrEqual: true,
	OpLessThan:           true,
	OpLessThanOrEqual:    true,
	OpMatches:            true,
	OpAIEvaluate:         true,
}

// pollOperators is the restricted set allowed in waitUntil conditions.
var pollOperators = map[Operator]bool{
	OpEquals:    true,
	OpNotEquals: true,
	OpExists:    true,
	OpNotExists: true,
}

// Valid reports whether op is a known assertion operator.
func (op Operator) Valid() bool {
	return operators[op]
}

// ValidForPoll reports whether op may be used in a waitUntil condition.
func (op Operator) ValidForPoll() bool {
	return pollOperators[op]
}

// UnmarshalYAML decodes and validates an operator string.
func (op *Operator) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	candidate := Operator(s)
	if !candidate.Valid() {
		return fmt.Errorf("line %d: unknown operator %q", node.Line, s)
	}
	*op = candidate
	return nil
}
