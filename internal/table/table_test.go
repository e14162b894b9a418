package table

import (
	"reflect"
	"testing"
)

func sample() *Table {
	t := New([]string{"a", "b", "c"})
	t.Rows = [][]any{
		{"x", 1.0, "keep"},
		{"y", 2.0, "drop"},
		{"z", 3.0},
	}
	return t
}

func TestPositionalColumns(t *testing.T) {
	got := PositionalColumns(3)
	want := []string{"col_0", "col_1", "col_2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PositionalColumns(3) = %v, want %v", got, want)
	}
}

func TestIndex(t *testing.T) {
	tbl := sample()
	if got := tbl.Index("b"); got != 1 {
		t.Errorf("Index(b) = %d, want 1", got)
	}
	if got := tbl.Index("missing"); got != -1 {
		t.Errorf("Index(missing) = %d, want -1", got)
	}
}

func TestCell_RaggedAndOutOfRange(t *testing.T) {
	tbl := sample()
	if got := tbl.Cell(0, 1); got != 1.0 {
		t.Errorf("Cell(0,1) = %v", got)
	}
	// Third row is ragged; the missing cell reads as nil.
	if got := tbl.Cell(2, 2); got != nil {
		t.Errorf("Cell(2,2) = %v, want nil", got)
	}
	if got := tbl.Cell(9, 0); got != nil {
		t.Errorf("Cell(9,0) = %v, want nil", got)
	}
}

func TestDropRows(t *testing.T) {
	tbl := sample()
	tbl.DropRows([]int{1, 99})

	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(tbl.Rows))
	}
	if tbl.Rows[0][0] != "x" || tbl.Rows[1][0] != "z" {
		t.Errorf("rows = %v", tbl.Rows)
	}
}

func TestDropColumns(t *testing.T) {
	tbl := sample()
	tbl.DropColumns([]string{"b", "missing"})

	if !reflect.DeepEqual(tbl.Columns, []string{"a", "c"}) {
		t.Fatalf("columns = %v", tbl.Columns)
	}
	if !reflect.DeepEqual(tbl.Rows[0], []any{"x", "keep"}) {
		t.Errorf("row 0 = %v", tbl.Rows[0])
	}
	// Ragged row pads the absent cell with nil.
	if !reflect.DeepEqual(tbl.Rows[2], []any{"z", nil}) {
		t.Errorf("row 2 = %v", tbl.Rows[2])
	}
}

func TestAddColumn(t *testing.T) {
	tbl := sample()
	tbl.AddColumn("d", []any{10, 20})

	if tbl.Columns[len(tbl.Columns)-1] != "d" {
		t.Fatalf("columns = %v", tbl.Columns)
	}
	if tbl.Rows[0][3] != 10 {
		t.Errorf("row 0 = %v", tbl.Rows[0])
	}
	// The ragged third row is padded out to the old width before the new
	// value lands, so every row ends up aligned with Columns.
	if len(tbl.Rows[2]) != 4 || tbl.Rows[2][2] != nil {
		t.Errorf("row 2 = %v, want padded to 4 cells", tbl.Rows[2])
	}
	// Value list shorter than rows: remaining rows get nil.
	if tbl.Rows[2][3] != nil {
		t.Errorf("row 2 = %v", tbl.Rows[2])
	}
}

func TestRecords(t *testing.T) {
	tbl := sample()
	records := tbl.Records()

	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if records[0]["a"] != "x" || records[0]["c"] != "keep" {
		t.Errorf("record 0 = %v", records[0])
	}
	if v, ok := records[2]["c"]; !ok || v != nil {
		t.Errorf("ragged record = %v, want explicit nil for c", records[2])
	}
}
