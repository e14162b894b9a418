// Package normalize applies the generic cleanup pass shared by every import
// path: per-column type coercion, column mapping or identifier fallback, and
// optional splitting of timestamp columns into separate date and time parts.
package normalize

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/hotelops/rmsync/internal/coerce"
	"github.com/hotelops/rmsync/internal/ident"
	"github.com/hotelops/rmsync/internal/table"
)

// Options configures one normalization pass. All keys refer to the table's
// ORIGINAL column labels: types are applied before any renaming.
type Options struct {
	// Types forces per-column coercion: "date", "numeric" or "text".
	// Unknown type names and absent columns are skipped silently.
	Types map[string]string

	// Mapping renames source columns to destination identifiers and drops
	// everything unmapped. Nil means no mapping: every column is normalized
	// through ident instead. A mapping that matches zero columns also falls
	// back to ident, with a warning, so a stale template degrades instead of
	// producing an empty table.
	Mapping map[string]string

	// SplitDateTime detects timestamp-bearing columns by sampling and
	// replaces each with date_<name> and heure_<name> columns.
	SplitDateTime bool
}

const sampleSize = 10

// Apply runs the normalization pass and returns a new table; the input is
// not modified.
func Apply(log *slog.Logger, t *table.Table, opts Options) *table.Table {
	out := clone(t)

	applyTypes(out, opts.Types)
	out = applyMapping(log, out, opts.Mapping)
	if opts.SplitDateTime {
		splitTimestampColumns(out)
	}
	return out
}

func clone(t *table.Table) *table.Table {
	out := table.New(append([]string(nil), t.Columns...))
	out.Rows = make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = append([]any(nil), row...)
	}
	return out
}

func applyTypes(t *table.Table, types map[string]string) {
	for col, kind := range types {
		idx := t.Index(col)
		if idx < 0 {
			continue
		}

		var fn func(any) any
		switch kind {
		case "date":
			fn = func(v any) any { return deref(coerce.Date(v)) }
		case "numeric":
			fn = func(v any) any {
				if n := coerce.Number(v); n != nil {
					return *n
				}
				return nil
			}
		case "text":
			fn = func(v any) any { return deref(coerce.Text(v)) }
		default:
			continue
		}

		for _, row := range t.Rows {
			row[idx] = fn(row[idx])
		}
	}
}

func applyMapping(log *slog.Logger, t *table.Table, mapping map[string]string) *table.Table {
	if mapping == nil {
		for i, col := range t.Columns {
			t.Columns[i] = ident.Column(col)
		}
		return t
	}

	// Keep mapped columns in their source order.
	var srcIdx []int
	var dstNames []string
	for i, col := range t.Columns {
		if dst, ok := mapping[col]; ok && dst != "" {
			srcIdx = append(srcIdx, i)
			dstNames = append(dstNames, dst)
		}
	}

	if len(srcIdx) == 0 {
		log.Warn("column mapping matched nothing, falling back to identifier normalization",
			"mapping_keys", mapKeys(mapping),
			"table_columns", t.Columns)
		for i, col := range t.Columns {
			t.Columns[i] = ident.Column(col)
		}
		return t
	}

	out := table.New(dstNames)
	out.Rows = make([][]any, len(t.Rows))
	for r, row := range t.Rows {
		projected := make([]any, len(srcIdx))
		for j, i := range srcIdx {
			projected[j] = row[i]
		}
		out.Rows[r] = projected
	}
	return out
}

// splitTimestampColumns samples each column and, where the samples carry both
// a date and a clock component, replaces the column with date_<name> and
// heure_<name> columns at the end of the table.
func splitTimestampColumns(t *table.Table) {
	for _, col := range append([]string(nil), t.Columns...) {
		idx := t.Index(col)
		if idx < 0 {
			continue
		}

		samples := sampleColumn(t, idx)
		if len(samples) == 0 || !looksLikeTimestamp(samples) {
			continue
		}

		dates := make([]any, len(t.Rows))
		clocks := make([]any, len(t.Rows))
		for i, row := range t.Rows {
			d, h := coerce.DateTime(row[idx])
			dates[i] = deref(d)
			clocks[i] = deref(h)
		}

		t.DropColumns([]string{col})
		t.AddColumn("date_"+col, dates)
		t.AddColumn("heure_"+col, clocks)
	}
}

func sampleColumn(t *table.Table, idx int) []any {
	var samples []any
	for _, row := range t.Rows {
		v := row[idx]
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		samples = append(samples, v)
		if len(samples) == sampleSize {
			break
		}
	}
	return samples
}

func looksLikeTimestamp(samples []any) bool {
	hasDate, hasTime := false, false
	for _, v := range samples {
		switch val := v.(type) {
		case time.Time:
			hasDate = true
			if val.Hour() != 0 || val.Minute() != 0 || val.Second() != 0 {
				hasTime = true
			}
		case float64, int, int64:
			f := asFloat(val)
			// Spreadsheet serial range for modern dates.
			if f > 10000 && f < 60000 {
				hasDate = true
				if f != math.Trunc(f) {
					hasTime = true
				}
			}
		case string:
			if (strings.Contains(val, " ") || strings.Contains(val, "T")) && strings.Contains(val, ":") {
				hasDate, hasTime = true, true
			} else if (strings.Contains(val, "/") || strings.Contains(val, "-")) && len(val) > 6 {
				hasDate = true
			}
		}
		if hasDate && hasTime {
			break
		}
	}
	return hasDate && hasTime
}

func asFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	}
	return 0
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func mapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
