// Package jsonpath extracts values from arbitrary JSON-shaped data using
// dot-separated paths with optional array indexing, e.g. "data.items[0].id".
package jsonpath

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// segmentPattern matches one path segment: an identifier followed by zero or
// more [N] index suffixes.
var segmentPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)((?:\[\d+\])*)$`)

type segment struct {
	key     string
	indexes []int
}

// Extract resolves path against v. The second return value is false when the
// path does not resolve: a nil value mid-walk, a key lookup on a non-object,
// indexing a non-array, or an out-of-bounds index. Extract never panics and
// never returns an error; a malformed path simply does not resolve.
//
// A path that resolves to an explicit JSON null returns (nil, true), so
// callers can distinguish "present but null" from "absent".
func Extract(v any, path string) (any, bool) {
	segments, ok := parsePath(path)
	if !ok || v == nil {
		return nil, false
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	cur := gjson.ParseBytes(data)

	for _, seg := range segments {
		if cur.Type == gjson.Null {
			return nil, false
		}
		if !cur.IsObject() {
			return nil, false
		}
		cur = cur.Get(escapeKey(seg.key))
		if !cur.Exists() {
			return nil, false
		}
		for _, idx := range seg.indexes {
			if cur.Type == gjson.Null {
				return nil, false
			}
			if !cur.IsArray() {
				return nil, false
			}
			cur = cur.Get(strconv.Itoa(idx))
			if !cur.Exists() {
				return nil, false
			}
		}
	}

	return cur.Value(), true
}

func parsePath(path string) ([]segment, bool) {
	if path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	segments := make([]segment, 0, len(parts))
	for _, part := range parts {
		m := segmentPattern.FindStringSubmatch(part)
		if m == nil {
			return nil, false
		}
		seg := segment{key: m[1]}
		for _, raw := range strings.Split(m[2], "]") {
			if raw == "" {
				continue
			}
			idx, err := strconv.Atoi(strings.TrimPrefix(raw, "["))
			if err != nil {
				return nil, false
			}
			seg.indexes = append(seg.indexes, idx)
		}
		segments = append(segments, seg)
	}
	return segments, true
}

// escapeKey guards gjson's own wildcard characters; identifiers matched by
// segmentPattern cannot contain them, but keys are escaped anyway so the
// lookup is always literal.
func escapeKey(key string) string {
	replacer := strings.NewReplacer("*", `\*`, "?", `\?`, ".", `\.`)
	return replacer.Replace(key)
}
