// Package table defines the in-memory tabular dataset exchanged between the
// reader, the normalization routine, and the report transformers.
//
// A Table is built fresh for each request, reshaped or replaced during
// transformation, and discarded once records have been extracted. It is never
// persisted and never shared between requests.
package table

import "fmt"

// Table is an ordered set of named columns over heterogeneously typed cells.
// Cells hold one of: string, float64, int64, bool, time.Time, or nil.
type Table struct {
	Columns []string
	Rows    [][]any
}

// New creates an empty table with the given column names.
func New(columns []string) *Table {
	return &Table{Columns: columns}
}

// PositionalColumns returns generated column names ("col_0", "col_1", ...)
// for datasets read without a header row.
func PositionalColumns(n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = fmt.Sprintf("col_%d", i)
	}
	return cols
}

// Index returns the position of the named column, or -1 if absent.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, col), or nil when the row is ragged and
// does not extend to col.
func (t *Table) Cell(row, col int) any {
	if row < 0 || row >= len(t.Rows) {
		return nil
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return nil
	}
	return r[col]
}

// DropRows removes the rows at the given zero-based indices.
// Out-of-range indices are ignored.
func (t *Table) DropRows(indices []int) {
	if len(indices) == 0 {
		return
	}
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		drop[i] = true
	}
	kept := t.Rows[:0]
	for i, row := range t.Rows {
		if !drop[i] {
			kept = append(kept, row)
		}
	}
	t.Rows = kept
}

// DropColumns removes the named columns and their cells.
// Unknown names are ignored.
func (t *Table) DropColumns(names []string) {
	if len(names) == 0 {
		return
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var keepIdx []int
	var keepCols []string
	for i, c := range t.Columns {
		if !drop[c] {
			keepIdx = append(keepIdx, i)
			keepCols = append(keepCols, c)
		}
	}
	t.Columns = keepCols
	for r, row := range t.Rows {
		next := make([]any, 0, len(keepIdx))
		for _, i := range keepIdx {
			if i < len(row) {
				next = append(next, row[i])
			} else {
				next = append(next, nil)
			}
		}
		t.Rows[r] = next
	}
}

// AddColumn appends a column with the given values. Ragged rows are padded
// with nil first, and missing trailing values are filled with nil, so every
// row stays aligned with Columns.
func (t *Table) AddColumn(name string, values []any) {
	width := len(t.Columns)
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		for len(t.Rows[i]) < width {
			t.Rows[i] = append(t.Rows[i], nil)
		}
		var v any
		if i < len(values) {
			v = values[i]
		}
		t.Rows[i] = append(t.Rows[i], v)
	}
}

// Records converts the table to one map per row, keyed by column name.
// Ragged rows yield nil for their missing cells.
func (t *Table) Records() []map[string]any {
	records := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = nil
			}
		}
		records = append(records, rec)
	}
	return records
}
