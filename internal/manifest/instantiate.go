// Package manifest resolves typed placeholders in command argument lists and
// nested configuration templates, and extracts scoped plugin package
// references from manifest templates.
package manifest

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/climateandtech/carbonara-sub002/internal/catalog"
	"github.com/climateandtech/carbonara-sub002/internal/types"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Instantiate walks the template and replaces {name} placeholders with the
// given values. A string that is exactly one placeholder token is replaced
// by the raw typed value, so boolean and numeric parameters survive with
// their runtime type; a placeholder embedded inside a larger string is
// replaced by its string representation. Placeholders without a value are
// left in place for required-parameter validation.
func Instantiate(template any, values map[string]any) any {
	switch node := template.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, v := range node {
			out[k] = Instantiate(v, values)
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, v := range node {
			out[i] = Instantiate(v, values)
		}
		return out
	case string:
		return substitute(node, values)
	default:
		return node
	}
}

// InstantiateArgs resolves placeholders in a command argument list. Argument
// values are always strings, so every substitution stringifies.
func InstantiateArgs(args []string, values map[string]any) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = placeholderRe.ReplaceAllStringFunc(arg, func(match string) string {
			name := match[1 : len(match)-1]
			if v, ok := values[name]; ok {
				return stringify(v)
			}
			return match
		})
	}
	return out
}

// substitute resolves placeholders inside one string value. Full-token
// substitution preserves the value's type; partial substitution stringifies.
func substitute(s string, values map[string]any) any {
	if m := placeholderRe.FindStringSubmatch(s); m != nil && m[0] == s {
		if v, ok := values[m[1]]; ok {
			return v
		}
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		name := match[1 : len(match)-1]
		if v, ok := values[name]; ok {
			return stringify(v)
		}
		return match
	})
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// ValidateRequired scans the resolved structure for placeholders of declared
// required parameters that are still unresolved, failing the invocation
// before any process is spawned.
func ValidateRequired(params []catalog.Parameter, resolved any) error {
	remaining := make(map[string]struct{})
	collectPlaceholders(resolved, remaining)

	for _, p := range params {
		if !p.Required {
			continue
		}
		if _, unresolved := remaining[p.Name]; unresolved {
			return types.NewError(types.MANIFEST_MISSING_PARAMETER,
				fmt.Sprintf("required parameter %q was not provided", p.Name))
		}
	}
	return nil
}

// ValidateRequiredArgs is ValidateRequired over a resolved argument list.
func ValidateRequiredArgs(params []catalog.Parameter, args []string) error {
	resolved := make([]any, len(args))
	for i, a := range args {
		resolved[i] = a
	}
	return ValidateRequired(params, resolved)
}

func collectPlaceholders(node any, into map[string]struct{}) {
	switch v := node.(type) {
	case map[string]any:
		for _, child := range v {
			collectPlaceholders(child, into)
		}
	case []any:
		for _, child := range v {
			collectPlaceholders(child, into)
		}
	case string:
		for _, m := range placeholderRe.FindAllStringSubmatch(v, -1) {
			into[m[1]] = struct{}{}
		}
	}
}

// scopeMarker distinguishes scoped package references in manifest templates.
const scopeMarker = "@"

// ExtractPluginPackages recursively scans a manifest template for scoped
// package references (values beginning with the ecosystem scope marker and
// containing a path separator) and returns the deduplicated set in
// first-seen order. Bare names and relative paths are ignored.
func ExtractPluginPackages(template any) []string {
	var out []string
	seen := make(map[string]struct{})
	extractPackages(template, seen, &out)
	return out
}

func extractPackages(node any, seen map[string]struct{}, out *[]string) {
	switch v := node.(type) {
	case map[string]any:
		// Map iteration order is randomized; walk keys sorted so the
		// first-seen order is stable across runs.
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			extractPackages(v[k], seen, out)
		}
	case []any:
		for _, child := range v {
			extractPackages(child, seen, out)
		}
	case string:
		if !isScopedPackage(v) {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		*out = append(*out, v)
	}
}

func isScopedPackage(s string) bool {
	if !strings.HasPrefix(s, scopeMarker) {
		return false
	}
	rest := s[len(scopeMarker):]
	slash := strings.Index(rest, "/")
	// Needs a non-empty scope and a non-empty package path.
	return slash > 0 && slash < len(rest)-1
}
