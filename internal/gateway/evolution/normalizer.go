// internal/gateway/evolution/normalizer.go
package evolution

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// The upstream gateway does not keep a stable key name or nesting depth for
// connection-state information across endpoints and versions. These synonym
// sets drive a tolerant, case-insensitive search over whatever shape arrives.
var stateKeySynonyms = []string{"state", "status", "connectionstate", "connection_state"}

var nestedFallbackKeys = []string{"state", "status", "name", "code", "value"}

var qrKeySynonyms = []string{"base64", "code", "qrcode", "pairingcode"}

// ExtractState pulls a canonical connection-state string out of an arbitrary
// upstream payload. Returns nil when nothing usable is found. The function is
// pure and deterministic: synonym priority breaks ties inside an object, and
// recursion visits child keys in sorted order. A visited set guards against
// self-referential payloads.
func ExtractState(payload interface{}) *string {
	if s, ok := payload.(string); ok {
		return usableScalar(s)
	}

	// Shallowest match wins: direct synonym search first, then descend.
	if v := matchObject(payload); v != nil {
		return v
	}
	return searchNested(payload, make(map[uintptr]bool))
}

// matchObject checks the object's own keys (not array indices) for a state
// synonym and coerces the matched value. Inspection depth is bounded, so no
// cycle guard is needed here.
func matchObject(payload interface{}) *string {
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return nil
	}

	for _, synonym := range stateKeySynonyms {
		for _, key := range sortedKeys(obj) {
			if strings.ToLower(key) != synonym {
				continue
			}
			if v := coerceStateValue(obj[key]); v != nil {
				return v
			}
		}
	}
	return nil
}

// coerceStateValue turns a matched value into a state string. A nested object
// gets one level of fallback-key resolution before the branch is abandoned.
func coerceStateValue(value interface{}) *string {
	if v := usableAny(value); v != nil {
		return v
	}

	nested, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}

	for _, fallback := range nestedFallbackKeys {
		for _, key := range sortedKeys(nested) {
			if strings.ToLower(key) != fallback {
				continue
			}
			if v := usableAny(nested[key]); v != nil {
				return v
			}
		}
	}
	return nil
}

// searchNested walks objects and arrays depth-first, applying the same
// matcher at every level. First match wins. Each map or slice is descended
// into at most once.
func searchNested(payload interface{}, visited map[uintptr]bool) *string {
	if !markVisited(payload, visited) {
		return nil
	}

	switch node := payload.(type) {
	case map[string]interface{}:
		for _, key := range sortedKeys(node) {
			child := node[key]
			if v := matchObject(child); v != nil {
				return v
			}
			if v := searchNested(child, visited); v != nil {
				return v
			}
		}
	case []interface{}:
		for _, child := range node {
			if v := matchObject(child); v != nil {
				return v
			}
			if v := searchNested(child, visited); v != nil {
				return v
			}
		}
	}
	return nil
}

// ExtractQR pulls a QR/pairing payload (base64 image or pairing code) out of
// an instance connect response.
func ExtractQR(payload interface{}) *string {
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return nil
	}

	for _, synonym := range qrKeySynonyms {
		for _, key := range sortedKeys(obj) {
			if strings.ToLower(key) != synonym {
				continue
			}
			if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
				trimmed := strings.TrimSpace(s)
				return &trimmed
			}
			// qrcode is usually a nested {base64, code} object
			if nested, ok := obj[key].(map[string]interface{}); ok {
				if v := ExtractQR(nested); v != nil {
					return v
				}
			}
		}
	}
	return nil
}

// markVisited records a map or slice reference, returning false when the node
// was already seen.
func markVisited(node interface{}, visited map[uintptr]bool) bool {
	rv := reflect.ValueOf(node)
	if rv.Kind() != reflect.Map && rv.Kind() != reflect.Slice {
		return true
	}
	ptr := rv.Pointer()
	if visited[ptr] {
		return false
	}
	visited[ptr] = true
	return true
}

func sortedKeys(obj map[string]interface{}) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// usableAny accepts a non-empty string or a number and returns it as an
// uppercased state string.
func usableAny(value interface{}) *string {
	switch v := value.(type) {
	case string:
		return usableScalar(v)
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		return &s
	}
	return nil
}

func usableScalar(s string) *string {
	trimmed := strings.ToUpper(strings.TrimSpace(s))
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
