// Package assertion evaluates declarative assertions against values
// extracted from HTTP responses. Evaluation never returns an error and never
// panics: unsupported or missing data yields a failed result with an
// explanatory message.
package assertion

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/restflow-dev/restflow-runner/pkg/flow"
	"github.com/restflow-dev/restflow-runner/pkg/vars"
)

// Result holds the outcome of evaluating a single assertion.
type Result struct {
	Assertion flow.Assertion `json:"assertion"`
	Success   bool           `json:"success"`
	Actual    any            `json:"actual,omitempty"`
	Message   string         `json:"message"`
}

// Evaluate checks one assertion against the actual value extracted at its
// path. found is false when the path did not resolve; operators treat the
// absent value per their own semantics. A caller-supplied message on the
// assertion overrides the computed one.
func Evaluate(a flow.Assertion, actual any, found bool) Result {
	var success bool
	var message string

	switch a.Operator {
	case flow.OpEquals:
		success = found && canonical(actual) == canonical(a.Value)
		if success {
			message = fmt.Sprintf("%s equals %s", a.Path, canonical(a.Value))
		} else {
			message = fmt.Sprintf("expected %s to equal %s, got %s", a.Path, canonical(a.Value), describe(actual, found))
		}
	case flow.OpNotEquals:
		success = !found || canonical(actual) != canonical(a.Value)
		if success {
			message = fmt.Sprintf("%s does not equal %s", a.Path, canonical(a.Value))
		} else {
			message = fmt.Sprintf("expected %s to differ from %s", a.Path, canonical(a.Value))
		}
	case flow.OpContains:
		success, message = evalContains(a, actual, found)
	case flow.OpNotContains:
		contains, _ := evalContains(a, actual, found)
		success = !contains
		if success {
			message = fmt.Sprintf("%s does not contain %s", a.Path, canonical(a.Value))
		} else {
			message = fmt.Sprintf("expected %s not to contain %s", a.Path, canonical(a.Value))
		}
	case flow.OpExists:
		success = found && actual != nil
		if success {
			message = fmt.Sprintf("%s exists", a.Path)
		} else {
			message = fmt.Sprintf("expected %s to exist", a.Path)
		}
	case flow.OpNotExists:
		success = !found || actual == nil
		if success {
			message = fmt.Sprintf("%s does not exist", a.Path)
		} else {
			message = fmt.Sprintf("expected %s not to exist, got %s", a.Path, canonical(actual))
		}
	case flow.OpGreaterThan:
		success, message = evalNumeric(a, actual, found, ">", func(x, y float64) bool { return x > y })
	case flow.OpGreaterThanOrEqual:
		success, message = evalNumeric(a, actual, found, ">=", func(x, y float64) bool { return x >= y })
	case flow.OpLessThan:
		success, message = evalNumeric(a, actual, found, "<", func(x, y float64) bool { return x < y })
	case flow.OpLessThanOrEqual:
		success, message = evalNumeric(a, actual, found, "<=", func(x, y float64) bool { return x <= y })
	case flow.OpMatches:
		success, message = evalMatches(a, actual, found)
	case flow.OpAIEvaluate:
		// Needs the external AI collaborator; the step executor dispatches
		// these before reaching the synchronous engine.
		success = false
		message = fmt.Sprintf("%s: ai-evaluate requires an AI evaluator", a.Path)
	default:
		success = false
		message = fmt.Sprintf("unknown operator %q", a.Operator)
	}

	if a.Message != "" {
		message = a.Message
	}

	return Result{
		Assertion: a,
		Success:   success,
		Actual:    actual,
		Message:   message,
	}
}

func evalContains(a flow.Assertion, actual any, found bool) (bool, string) {
	if !found {
		return false, fmt.Sprintf("expected %s to contain %s, but it is missing", a.Path, canonical(a.Value))
	}
	switch t := actual.(type) {
	case string:
		if strings.Contains(t, vars.Stringify(a.Value)) {
			return true, fmt.Sprintf("%s contains %q", a.Path, vars.Stringify(a.Value))
		}
		return false, fmt.Sprintf("expected %s to contain %q, got %q", a.Path, vars.Stringify(a.Value), truncate(t, 200))
	case []any:
		want := canonical(a.Value)
		for _, elem := range t {
			if canonical(elem) == want {
				return true, fmt.Sprintf("%s contains %s", a.Path, want)
			}
		}
		return false, fmt.Sprintf("expected %s to contain %s", a.Path, want)
	default:
		return false, fmt.Sprintf("expected %s to be a string or array, got %s", a.Path, canonical(actual))
	}
}

func evalNumeric(a flow.Assertion, actual any, found bool, symbol string, cmp func(x, y float64) bool) (bool, string) {
	af, aok := toFloat(actual)
	ef, eok := toFloat(a.Value)
	if !found || !aok {
		return false, fmt.Sprintf("expected %s to be numeric, got %s", a.Path, describe(actual, found))
	}
	if !eok {
		return false, fmt.Sprintf("expected value %s for %s is not numeric", canonical(a.Value), a.Path)
	}
	if cmp(af, ef) {
		return true, fmt.Sprintf("%s is %s %s", a.Path, symbol, canonical(a.Value))
	}
	return false, fmt.Sprintf("expected %s %s %s, got %s", a.Path, symbol, canonical(a.Value), canonical(actual))
}

func evalMatches(a flow.Assertion, actual any, found bool) (bool, string) {
	s, ok := actual.(string)
	if !found || !ok {
		return false, fmt.Sprintf("expected %s to be a string, got %s", a.Path, describe(actual, found))
	}
	pattern, ok := a.Value.(string)
	if !ok {
		return false, fmt.Sprintf("pattern for %s must be a string, got %s", a.Path, canonical(a.Value))
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid regex for %s: %v", a.Path, err)
	}
	if re.MatchString(s) {
		return true, fmt.Sprintf("%s matches /%s/", a.Path, pattern)
	}
	return false, fmt.Sprintf("expected %s to match /%s/, got %q", a.Path, pattern, truncate(s, 200))
}

// canonical renders a value as canonical JSON text. encoding/json sorts map
// keys, so equal structures always render identically.
func canonical(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func describe(actual any, found bool) string {
	if !found {
		return "nothing"
	}
	return canonical(actual)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
