// Package report contains the layout-specific transformers that turn raw
// hotel revenue reports into normalized record sets, plus the selector that
// picks a transformer from a report category label.
//
// Each transformer owns the full capability set for its layout: locating the
// header or axis rows, reshaping, coercing columns and naming the target
// tables. A transformer either fully succeeds or returns an error before
// producing any output; there is no partial record set to clean up after.
package report

import (
	"context"
	"strings"

	"github.com/hotelops/rmsync/internal/coerce"
)

// Output is one normalized record set bound for a destination table.
// Multi-sheet reports produce several.
type Output struct {
	Table   string
	Records []map[string]any
}

// A Transformer reshapes one report file into its output record sets.
// Transform is idempotent: no state survives between calls.
type Transformer interface {
	Transform(ctx context.Context) ([]Output, error)
}

func cellAt(grid [][]string, r, c int) string {
	if r < 0 || r >= len(grid) {
		return ""
	}
	row := grid[r]
	if c < 0 || c >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[c])
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// textOrNil turns a raw cell into a record value: blank cells become nil so
// the store receives explicit nulls instead of empty strings.
func textOrNil(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

// matchToken does the category/tab comparisons used across the package:
// case-insensitive, accent-insensitive substring.
func matchToken(s, token string) bool {
	return strings.Contains(foldKey(s), token)
}

func foldKey(s string) string {
	return strings.ToLower(coerce.StripAccents(s))
}
