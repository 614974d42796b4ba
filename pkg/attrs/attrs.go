// Package attrs reads values back out of slog-style key/value argument lists.
package attrs

// String returns the string stored under key in kv, an alternating
// key/value list. Missing keys and non-string values yield "".
func String(kv []any, key string) string {
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok && k == key {
			v, _ := kv[i+1].(string)
			return v
		}
	}
	return ""
}

// First returns the first non-empty string found under keys, in key order.
func First(kv []any, keys ...string) string {
	for _, key := range keys {
		if v := String(kv, key); v != "" {
			return v
		}
	}
	return ""
}
