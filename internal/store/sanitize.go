package store

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Sanitize prepares records for the wire. NaN, infinities and zero-value
// timestamps become explicit nulls, nested structures are walked
// recursively, and anything JSON cannot represent is coerced to its text
// form, because the payload must reach the store without dropping keys.
//
// Each record is marshal-checked after cleaning; a record that still fails
// is replaced by a flattened key → text-or-null form rather than abandoning
// its whole batch.
func Sanitize(records []map[string]any) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, rec := range records {
		clean := sanitizeMap(rec)
		if _, err := json.Marshal(clean); err != nil {
			clean = flatten(clean)
		}
		out[i] = clean
	}
	return out
}

func sanitizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case time.Time:
		if val.IsZero() {
			return nil
		}
		return val.Format("2006-01-02T15:04:05")
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return val
	case map[string]any:
		return sanitizeMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeValue(item)
		}
		return out
	case *string:
		if val == nil {
			return nil
		}
		return *val
	case *float64:
		if val == nil {
			return nil
		}
		return sanitizeValue(*val)
	case *int64:
		if val == nil {
			return nil
		}
		return *val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// flatten is the last-resort shape: every value as text or null.
func flatten(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if v == nil {
			out[k] = nil
			continue
		}
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}
