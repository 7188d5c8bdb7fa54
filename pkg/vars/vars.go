// Package vars implements the flow-scoped variable bag and ${...} token
// interpolation, both textual and recursive over structured values.
package vars

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/restflow-dev/restflow-runner/pkg/jsonpath"
)

// tokenPattern matches ${path} references: an identifier with optional [N]
// suffixes, optionally chained with further dot segments.
var tokenPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*(?:\[\d+\])*(?:\.[A-Za-z0-9_]+(?:\[\d+\])*)*)\}`)

// Bag holds variables captured during one flow execution. It is owned by a
// single FlowRunner and must not be shared across concurrent flows.
type Bag map[string]any

// NewBag creates an empty variable bag.
func NewBag() Bag {
	return make(Bag)
}

// Set stores a captured value under name.
func (b Bag) Set(name string, value any) {
	b[name] = value
}

// Get returns the value stored under name.
func (b Bag) Get(name string) (any, bool) {
	v, ok := b[name]
	return v, ok
}

// Snapshot returns a shallow copy of the bag for inclusion in results.
func (b Bag) Snapshot() map[string]any {
	out := make(map[string]any, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Interpolate substitutes every resolvable ${...} token in text with the
// value found in the bag. Unresolved tokens are left verbatim so broken
// references stay visible in the request that finally fails. Structured
// values substitute as their canonical JSON text.
func Interpolate(text string, bag Bag) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		path := token[2 : len(token)-1]
		value, ok := jsonpath.Extract(map[string]any(bag), path)
		if !ok {
			return token
		}
		return Stringify(value)
	})
}

// Resolve recursively interpolates every string inside v, descending through
// maps and arrays. A string that looks like a JSON object or array after
// substitution is parsed back into structured data, so a captured object
// referenced as ${var} is spliced into a request body as real structure; if
// parsing fails the interpolated string is kept as-is.
func Resolve(v any, bag Bag) any {
	switch t := v.(type) {
	case string:
		s := Interpolate(t, bag)
		trimmed := strings.TrimSpace(s)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			var parsed any
			if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
				return parsed
			}
		}
		return s
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Resolve(val, bag)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Resolve(val, bag)
		}
		return out
	default:
		return v
	}
}

// Stringify renders a value the way it should appear inside interpolated
// text: structured values as canonical JSON, scalars in their plain form.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
