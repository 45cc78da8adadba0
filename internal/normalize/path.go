package normalize

import (
	"strconv"
	"strings"
)

// lookupPath navigates a decoded payload by dot path. Numeric segments index
// arrays. An empty path returns the node itself. The boolean reports whether
// every segment resolved.
func lookupPath(node any, path string) (any, bool) {
	if path == "" {
		return node, true
	}
	current := node
	for _, segment := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			child, ok := v[segment]
			if !ok {
				return nil, false
			}
			current = child
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			current = v[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// asString coerces a payload value to string, defaulting to empty. Numbers
// are rendered without a trailing ".0" so rule ids like 404 stay readable.
func asString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// asInt coerces a payload value to int, defaulting to zero.
func asInt(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case int:
		return val
	case int64:
		return int(val)
	case string:
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return 0
}

// field reads a named field from a raw record, tolerating missing fields and
// wrong shapes. Dot paths descend into nested records.
func field(record map[string]any, name string) (any, bool) {
	if name == "" {
		return nil, false
	}
	return lookupPath(record, name)
}

// stringField reads a string-valued field with an empty default.
func stringField(record map[string]any, name string) string {
	v, ok := field(record, name)
	if !ok {
		return ""
	}
	return asString(v)
}

// intField reads an int-valued field with a zero default.
func intField(record map[string]any, name string) int {
	v, ok := field(record, name)
	if !ok {
		return 0
	}
	return asInt(v)
}
