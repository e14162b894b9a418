package normalize

import (
	"io"
	"log/slog"
	"testing"

	"github.com/hotelops/rmsync/internal/table"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleTable() *table.Table {
	t := table.New([]string{"Date d'arrivée", "Prix Total", "Statut"})
	t.Rows = [][]any{
		{"16/01/2026", "1 200,50", "Confirmé"},
		{"17/01/2026", "980,00", "Annulé"},
	}
	return t
}

func TestApply_TypesBeforeMapping(t *testing.T) {
	in := sampleTable()
	out := Apply(discard(), in, Options{
		Types: map[string]string{
			"Date d'arrivée": "date",
			"Prix Total":     "numeric",
		},
		Mapping: map[string]string{
			"Date d'arrivée": "arrivee",
			"Prix Total":     "montant",
		},
	})

	if len(out.Columns) != 2 {
		t.Fatalf("columns = %v, want mapped pair only", out.Columns)
	}
	if out.Columns[0] != "arrivee" || out.Columns[1] != "montant" {
		t.Fatalf("columns = %v", out.Columns)
	}
	if out.Rows[0][0] != "2026-01-16" {
		t.Errorf("date cell = %v, want 2026-01-16", out.Rows[0][0])
	}
	if out.Rows[0][1] != 1200.5 {
		t.Errorf("numeric cell = %v, want 1200.5", out.Rows[0][1])
	}
}

func TestApply_NilMappingUsesIdentifiers(t *testing.T) {
	out := Apply(discard(), sampleTable(), Options{})

	want := []string{"date_d_arrivee", "prix_total", "statut"}
	for i, col := range want {
		if out.Columns[i] != col {
			t.Errorf("column[%d] = %q, want %q", i, out.Columns[i], col)
		}
	}
}

func TestApply_StaleMappingFallsBack(t *testing.T) {
	// Mapping keys match nothing: the pass degrades to identifier
	// normalization instead of returning an empty table.
	out := Apply(discard(), sampleTable(), Options{
		Mapping: map[string]string{"does_not_exist": "x"},
	})

	if len(out.Columns) != 3 {
		t.Fatalf("columns = %v, want all 3 preserved", out.Columns)
	}
	if out.Columns[2] != "statut" {
		t.Errorf("column = %q, want statut", out.Columns[2])
	}
}

func TestApply_MappingSkipsEmptyTargets(t *testing.T) {
	out := Apply(discard(), sampleTable(), Options{
		Mapping: map[string]string{
			"Prix Total": "montant",
			"Statut":     "",
		},
	})

	if len(out.Columns) != 1 || out.Columns[0] != "montant" {
		t.Fatalf("columns = %v, want [montant]", out.Columns)
	}
}

func TestApply_SplitDateTime(t *testing.T) {
	in := table.New([]string{"ref", "creation"})
	in.Rows = [][]any{
		{"A1", "2026-01-16 08:45:00"},
		{"A2", "2026-01-17 19:05:00"},
		{"A3", ""},
	}

	out := Apply(discard(), in, Options{SplitDateTime: true})

	want := []string{"ref", "date_creation", "heure_creation"}
	if len(out.Columns) != 3 {
		t.Fatalf("columns = %v, want %v", out.Columns, want)
	}
	for i, col := range want {
		if out.Columns[i] != col {
			t.Errorf("column[%d] = %q, want %q", i, out.Columns[i], col)
		}
	}
	if out.Rows[0][1] != "2026-01-16" || out.Rows[0][2] != "08:45:00" {
		t.Errorf("split row = %v", out.Rows[0])
	}
	if out.Rows[2][1] != nil || out.Rows[2][2] != nil {
		t.Errorf("blank cell should split to nils, got %v", out.Rows[2])
	}
}

func TestApply_SplitLeavesBareDatesAlone(t *testing.T) {
	in := table.New([]string{"jour"})
	in.Rows = [][]any{{"16/01/2026"}, {"17/01/2026"}}

	out := Apply(discard(), in, Options{SplitDateTime: true})

	if len(out.Columns) != 1 || out.Columns[0] != "jour" {
		t.Fatalf("columns = %v, want [jour] untouched", out.Columns)
	}
}

func TestApply_InputNotModified(t *testing.T) {
	in := sampleTable()
	Apply(discard(), in, Options{
		Types: map[string]string{"Prix Total": "numeric"},
	})

	if in.Rows[0][1] != "1 200,50" {
		t.Errorf("input table was mutated: %v", in.Rows[0][1])
	}
}
