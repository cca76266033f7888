package queue

import (
	"encoding/json"
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

var newlineVariants = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// slugLikeKeys are parameter fields treated as slugs during
// normalization: non-alphanumerics are stripped entirely rather than
// just trimmed/collapsed, so "My Spec!" and "my-spec" compare equal.
var slugLikeKeys = map[string]bool{
	"specId": true, "storyId": true, "taskId": true, "task_number": true,
}

// NormalizeParams trims whitespace, collapses newline variants to \n,
// and (for slug-like fields) strips non-alphanumerics, recursively
// over a parameter map's string values.
func NormalizeParams(params map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		out[k] = normalizeValue(k, v)
	}
	return out
}

func normalizeValue(key string, v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(newlineVariants.Replace(val))
		if slugLikeKeys[key] {
			s = nonAlphanumeric.ReplaceAllString(strings.ToLower(s), "")
		}
		return s
	case map[string]interface{}:
		return NormalizeParams(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalizeValue(key, item)
		}
		return out
	default:
		return v
	}
}

// Signature is the (type, normalized_params) pair used both for
// idempotency short-circuiting (4.I step 4) and duplicate-conflict
// detection (4.H). It is computed as a stable JSON encoding so it can
// serve directly as a cache/map key.
func Signature(op *Operation) string {
	// encoding/json sorts map[string]interface{} keys alphabetically,
	// so marshaling directly yields a stable encoding.
	data, err := json.Marshal(NormalizeParams(op.Params))
	if err != nil {
		data = []byte("{}")
	}
	return string(op.Type) + "|" + string(data)
}
