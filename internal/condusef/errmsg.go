package condusef

import (
	"fmt"
	"sort"
	"strings"
)

// Keys probed, in order, for a human-readable message in API error bodies.
var messageKeys = []string{"message", "msg", "detail", "error"}

// Containers the API nests error details under.
var nestedKeys = []string{"data", "user", "errors", "response"}

// extractMessage digs a concise human-readable message out of a JSON error
// body. The API reports errors in several shapes, so this probes known
// message keys first, then known nested containers, then falls back to the
// first string-valued field. Returns "" when nothing usable is found.
func extractMessage(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}

	for _, key := range messageKeys {
		switch val := m[key].(type) {
		case string:
			if s := strings.TrimSpace(val); s != "" {
				return s
			}
		case []any:
			if len(val) > 0 {
				parts := make([]string, 0, len(val))
				for _, item := range val {
					parts = append(parts, fmt.Sprint(item))
				}
				return strings.Join(parts, "; ")
			}
		}
	}

	for _, key := range nestedKeys {
		if nested, ok := m[key].(map[string]any); ok {
			if msg := extractMessage(nested); msg != "" {
				return msg
			}
		}
	}

	// Fallback: first string-valued field. Keys are sorted so the result does
	// not depend on map iteration order.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}
