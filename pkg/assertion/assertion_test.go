package assertion

import (
	"strings"
	"testing"

	"github.com/restflow-dev/restflow-runner/pkg/flow"
)

func TestEvaluate_Equals(t *testing.T) {
	tests := []struct {
		name    string
		actual  any
		found   bool
		value   any
		success bool
	}{
		{"string match", "active", true, "active", true},
		{"string mismatch", "pending", true, "active", false},
		{"numeric cross-type", float64(3), true, 3, true},
		{"bool match", true, true, true, true},
		{"object match ignores key order", map[string]any{"a": float64(1), "b": "x"}, true, map[string]any{"b": "x", "a": float64(1)}, true},
		{"null equals null", nil, true, nil, true},
		{"absent never equals", nil, false, "active", false},
		{"number vs numeric string", float64(200), true, "200", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := flow.Assertion{Path: "p", Operator: flow.OpEquals, Value: tt.value}
			r := Evaluate(a, tt.actual, tt.found)
			if r.Success != tt.success {
				t.Errorf("success=%v, want %v (message: %s)", r.Success, tt.success, r.Message)
			}
		})
	}
}

func TestEvaluate_NotEquals(t *testing.T) {
	a := flow.Assertion{Path: "p", Operator: flow.OpNotEquals, Value: "done"}

	if r := Evaluate(a, "pending", true); !r.Success {
		t.Errorf("differing value should pass: %s", r.Message)
	}
	if r := Evaluate(a, "done", true); r.Success {
		t.Error("equal value should fail")
	}
	// An absent value differs from anything.
	if r := Evaluate(a, nil, false); !r.Success {
		t.Errorf("absent value should pass notEquals: %s", r.Message)
	}
}

func TestEvaluate_Exists(t *testing.T) {
	exists := flow.Assertion{Path: "p", Operator: flow.OpExists}
	notExists := flow.Assertion{Path: "p", Operator: flow.OpNotExists}

	// Falsy values still exist.
	for _, v := range []any{float64(0), false, ""} {
		if r := Evaluate(exists, v, true); !r.Success {
			t.Errorf("exists should pass for %#v: %s", v, r.Message)
		}
		if r := Evaluate(notExists, v, true); r.Success {
			t.Errorf("notExists should fail for %#v", v)
		}
	}

	// Explicit null does not exist.
	if r := Evaluate(exists, nil, true); r.Success {
		t.Error("exists should fail for explicit null")
	}
	if r := Evaluate(notExists, nil, true); !r.Success {
		t.Error("notExists should pass for explicit null")
	}

	// Absent does not exist.
	if r := Evaluate(exists, nil, false); r.Success {
		t.Error("exists should fail for absent value")
	}
	if r := Evaluate(notExists, nil, false); !r.Success {
		t.Error("notExists should pass for absent value")
	}
}

func TestEvaluate_Contains(t *testing.T) {
	tests := []struct {
		name    string
		actual  any
		value   any
		success bool
	}{
		{"substring", "hello world", "lo wo", true},
		{"substring miss", "hello world", "bye", false},
		{"substring of stringified number", "error 404 returned", float64(404), true},
		{"array element", []any{"a", "b"}, "b", true},
		{"array element miss", []any{"a", "b"}, "c", false},
		{"array structural element", []any{map[string]any{"id": float64(1)}}, map[string]any{"id": float64(1)}, true},
		{"number is not a container", float64(42), "4", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := flow.Assertion{Path: "p", Operator: flow.OpContains, Value: tt.value}
			r := Evaluate(a, tt.actual, true)
			if r.Success != tt.success {
				t.Errorf("success=%v, want %v (message: %s)", r.Success, tt.success, r.Message)
			}

			// notContains is the exact complement.
			a.Operator = flow.OpNotContains
			if r := Evaluate(a, tt.actual, true); r.Success == tt.success {
				t.Errorf("notContains success=%v, want %v", r.Success, !tt.success)
			}
		})
	}

	// contains on an absent value fails; notContains passes.
	miss := flow.Assertion{Path: "p", Operator: flow.OpContains, Value: "x"}
	if r := Evaluate(miss, nil, false); r.Success {
		t.Error("contains should fail for absent value")
	}
	miss.Operator = flow.OpNotContains
	if r := Evaluate(miss, nil, false); !r.Success {
		t.Error("notContains should pass for absent value")
	}
}

func TestEvaluate_Numeric(t *testing.T) {
	tests := []struct {
		op      flow.Operator
		actual  any
		value   any
		success bool
	}{
		{flow.OpGreaterThan, float64(5), 3, true},
		{flow.OpGreaterThan, float64(3), 3, false},
		{flow.OpGreaterThanOrEqual, float64(3), 3, true},
		{flow.OpGreaterThanOrEqual, float64(2), 3, false},
		{flow.OpLessThan, float64(2), 3, true},
		{flow.OpLessThan, float64(3), 3, false},
		{flow.OpLessThanOrEqual, float64(3), 3, true},
		{flow.OpLessThanOrEqual, float64(4), 3, false},
	}

	for _, tt := range tests {
		a := flow.Assertion{Path: "p", Operator: tt.op, Value: tt.value}
		r := Evaluate(a, tt.actual, true)
		if r.Success != tt.success {
			t.Errorf("%s(%v, %v) success=%v, want %v", tt.op, tt.actual, tt.value, r.Success, tt.success)
		}
	}

	// Non-numeric actual fails rather than erroring.
	a := flow.Assertion{Path: "p", Operator: flow.OpGreaterThan, Value: 3}
	if r := Evaluate(a, "five", true); r.Success {
		t.Error("non-numeric actual should fail")
	}
	if r := Evaluate(a, nil, false); r.Success {
		t.Error("absent actual should fail")
	}
}

func TestEvaluate_Matches(t *testing.T) {
	a := flow.Assertion{Path: "p", Operator: flow.OpMatches, Value: `^ord-\d+$`}

	if r := Evaluate(a, "ord-123", true); !r.Success {
		t.Errorf("expected match: %s", r.Message)
	}
	if r := Evaluate(a, "order-123", true); r.Success {
		t.Error("expected mismatch")
	}
	if r := Evaluate(a, float64(123), true); r.Success {
		t.Error("non-string actual should fail")
	}

	bad := flow.Assertion{Path: "p", Operator: flow.OpMatches, Value: `([`}
	r := Evaluate(bad, "anything", true)
	if r.Success {
		t.Error("invalid regex should fail, not panic")
	}
	if !strings.Contains(r.Message, "invalid regex") {
		t.Errorf("expected invalid regex message, got %q", r.Message)
	}
}

func TestEvaluate_MessageOverride(t *testing.T) {
	a := flow.Assertion{
		Path:     "status",
		Operator: flow.OpEquals,
		Value:    "done",
		Message:  "job should be finished",
	}

	r := Evaluate(a, "pending", true)
	if r.Success {
		t.Fatal("expected failure")
	}
	if r.Message != "job should be finished" {
		t.Errorf("custom message not applied: %q", r.Message)
	}

	// The override applies on success too.
	r = Evaluate(a, "done", true)
	if !r.Success || r.Message != "job should be finished" {
		t.Errorf("custom message not applied on success: %q", r.Message)
	}
}

func TestEvaluate_FailureMessageNamesBothValues(t *testing.T) {
	a := flow.Assertion{Path: "httpStatus", Operator: flow.OpEquals, Value: 200}
	r := Evaluate(a, 500, true)
	if r.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(r.Message, "200") || !strings.Contains(r.Message, "500") {
		t.Errorf("message should name expected and actual: %q", r.Message)
	}
}

func TestEvaluate_AIWithoutEvaluator(t *testing.T) {
	a := flow.Assertion{Path: "body", Operator: flow.OpAIEvaluate, Value: "looks sane"}
	r := Evaluate(a, "data", true)
	if r.Success {
		t.Error("ai-evaluate without an evaluator should fail")
	}
}
