package condusef

import (
	"sort"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// extractToken pulls the access token out of an auth response. The token
// endpoint has returned several shapes over time:
//
//	{"token": "..."} or {"access": "..."}
//	{"data": {"token_access": "..."}}
//	{"msg": "Login exitoso!!!", "user": {"token_access": "..."}}
//
// As a last resort any string value shaped like a token is accepted: a
// parseable JWT wins, otherwise any value with exactly two dots (the API
// has returned opaque dotted tokens). Returns "" when no token is found.
func extractToken(data map[string]any) string {
	if tok := stringField(data, "token", "access"); tok != "" {
		return tok
	}

	for _, container := range []string{"data", "user"} {
		if nested, ok := data[container].(map[string]any); ok {
			if tok := stringField(nested, "token_access", "token", "access"); tok != "" {
				return tok
			}
		}
	}

	// Fallback: scan for anything token-shaped. Keys are sorted so the
	// result does not depend on map iteration order.
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parser := jwt.NewParser()
	for _, k := range keys {
		if s, ok := data[k].(string); ok && s != "" {
			if _, _, err := parser.ParseUnverified(s, jwt.MapClaims{}); err == nil {
				return s
			}
		}
	}
	for _, k := range keys {
		if s, ok := data[k].(string); ok && strings.Count(s, ".") == 2 {
			return s
		}
	}
	return ""
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
