package store

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestSanitize_NonFiniteNumbers(t *testing.T) {
	records := []map[string]any{{
		"ok":   42.5,
		"nan":  math.NaN(),
		"pinf": math.Inf(1),
		"ninf": math.Inf(-1),
	}}

	out := Sanitize(records)[0]
	if out["ok"] != 42.5 {
		t.Errorf("ok = %v", out["ok"])
	}
	for _, key := range []string{"nan", "pinf", "ninf"} {
		if out[key] != nil {
			t.Errorf("%s = %v, want nil", key, out[key])
		}
	}
}

func TestSanitize_ZeroTimeIsNull(t *testing.T) {
	records := []map[string]any{{
		"missing": time.Time{},
		"present": time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC),
	}}

	out := Sanitize(records)[0]
	if out["missing"] != nil {
		t.Errorf("missing = %v, want nil", out["missing"])
	}
	if out["present"] != "2026-01-16T08:00:00" {
		t.Errorf("present = %v", out["present"])
	}
}

func TestSanitize_NestedStructures(t *testing.T) {
	records := []map[string]any{{
		"nested": map[string]any{"inner": math.NaN()},
		"list":   []any{1.0, math.Inf(1), "x"},
	}}

	out := Sanitize(records)[0]
	nested := out["nested"].(map[string]any)
	if nested["inner"] != nil {
		t.Errorf("nested inner = %v, want nil", nested["inner"])
	}
	list := out["list"].([]any)
	if list[1] != nil {
		t.Errorf("list[1] = %v, want nil", list[1])
	}
}

func TestSanitize_NonScalarBecomesText(t *testing.T) {
	records := []map[string]any{{
		"weird": struct{ A int }{A: 7},
	}}

	out := Sanitize(records)[0]
	s, ok := out["weird"].(string)
	if !ok || s == "" {
		t.Errorf("weird = %v (%T), want text form", out["weird"], out["weird"])
	}
}

func TestSanitize_NilPointers(t *testing.T) {
	var sp *string
	var fp *float64
	v := "x"
	records := []map[string]any{{"sp": sp, "fp": fp, "set": &v}}

	out := Sanitize(records)[0]
	if out["sp"] != nil || out["fp"] != nil {
		t.Errorf("nil pointers = %v / %v, want nils", out["sp"], out["fp"])
	}
	if out["set"] != "x" {
		t.Errorf("set = %v, want x", out["set"])
	}
}

func TestSanitize_OutputAlwaysSerializable(t *testing.T) {
	records := []map[string]any{{
		"nan":    math.NaN(),
		"nested": map[string]any{"deep": []any{math.Inf(-1)}},
		"ch":     struct{ X func() }{},
	}}

	for _, rec := range Sanitize(records) {
		if _, err := json.Marshal(rec); err != nil {
			t.Errorf("record not serializable after sanitize: %v", err)
		}
	}
}
