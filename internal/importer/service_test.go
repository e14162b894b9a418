package importer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hotelops/rmsync/internal/config"
	"github.com/hotelops/rmsync/internal/store"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// storeStub records inserts and confirms every batch.
type storeStub struct {
	inserts map[string][][]map[string]any
}

func (st *storeStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
		var records []map[string]any
		json.NewDecoder(r.Body).Decode(&records)
		st.inserts[table] = append(st.inserts[table], records)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(records)
	}
}

func newTestService(t *testing.T) (*Service, *storeStub) {
	t.Helper()
	stub := &storeStub{inserts: make(map[string][][]map[string]any)}
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Upload.Dir = t.TempDir()
	cfg.Upload.MaxFileSize = 1 << 20
	cfg.Upload.BatchSize = 1000
	cfg.Upload.Timeout = time.Minute
	cfg.Upload.FailureLogDir = t.TempDir()
	cfg.Store.URL = srv.URL
	cfg.Store.APIKey = "k"
	cfg.Store.Timeout = 5 * time.Second

	client := store.NewClient(cfg.Store.URL, cfg.Store.APIKey, cfg.Store.Timeout, discard())
	return New(cfg, client, discard()), stub
}

func stage(t *testing.T, s *Service, content string) string {
	t.Helper()
	info, err := s.SaveUpload("report.csv", strings.NewReader(content))
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	return info.Filename
}

func TestSaveUpload(t *testing.T) {
	s, _ := newTestService(t)

	info, err := s.SaveUpload("Rapport Été.csv", strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if info.OriginalName != "Rapport Été.csv" {
		t.Errorf("original name = %q", info.OriginalName)
	}
	if !strings.HasSuffix(info.Filename, ".csv") || info.Filename == "Rapport Été.csv" {
		t.Errorf("stored name = %q, want generated name with .csv", info.Filename)
	}
	if info.Size != 8 {
		t.Errorf("size = %d, want 8", info.Size)
	}
	if _, err := os.Stat(filepath.Join(s.cfg.Upload.Dir, info.Filename)); err != nil {
		t.Errorf("stored file missing: %v", err)
	}
}

func TestSaveUpload_RejectsExtension(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.SaveUpload("malware.exe", strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected error for disallowed extension")
	}
	if KindOf(err) != KindBadInput {
		t.Errorf("kind = %v, want KindBadInput", KindOf(err))
	}
}

func TestPreview(t *testing.T) {
	s, _ := newTestService(t)
	name := stage(t, s, "Date d'arrivée,Prix Total\n16/01/2026,120\n17/01/2026,130\n")

	p, err := s.Preview(context.Background(), PreviewRequest{Filename: name})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if p.TotalRows != 2 || p.TotalColumns != 2 {
		t.Errorf("counts = %d rows, %d cols", p.TotalRows, p.TotalColumns)
	}
	if p.Columns[0] != "Date d'arrivée" {
		t.Errorf("columns = %v", p.Columns)
	}
	if p.NormalizedColumns[0] != "date_d_arrivee" || p.NormalizedColumns[1] != "prix_total" {
		t.Errorf("normalized = %v", p.NormalizedColumns)
	}
	if len(p.Sample) != 2 {
		t.Errorf("sample = %d records", len(p.Sample))
	}
}

func TestPreview_MissingFile(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Preview(context.Background(), PreviewRequest{Filename: "nope.csv"})
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != KindNotFound {
		t.Errorf("kind = %v, want KindNotFound", KindOf(err))
	}
}

func TestProcess_AppliesNormalization(t *testing.T) {
	s, _ := newTestService(t)
	name := stage(t, s, "Date,Montant\n16/01/2026,\"1 200,50\"\n")

	p, err := s.Process(context.Background(), ProcessRequest{
		PreviewRequest: PreviewRequest{Filename: name},
		Types:          map[string]string{"Montant": "numeric", "Date": "date"},
		Mapping:        map[string]string{"Date": "date", "Montant": "montant"},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(p.Columns) != 2 {
		t.Fatalf("columns = %v", p.Columns)
	}
	if p.Sample[0]["date"] != "2026-01-16" || p.Sample[0]["montant"] != 1200.5 {
		t.Errorf("sample = %v", p.Sample[0])
	}
}

func TestImportAppend(t *testing.T) {
	s, stub := newTestService(t)
	name := stage(t, s, "Nom,Valeur\nA,1\nB,2\nC,3\n")

	result, err := s.ImportAppend(context.Background(), ImportRequest{
		ProcessRequest: ProcessRequest{PreviewRequest: PreviewRequest{Filename: name}},
		TargetTable:    "mesures",
	})
	if err != nil {
		t.Fatalf("ImportAppend: %v", err)
	}
	if result.Succeeded != 3 || len(result.Failed) != 0 {
		t.Errorf("result = %+v", result)
	}

	batches := stub.inserts["mesures"]
	if len(batches) != 1 || len(batches[0]) != 3 {
		t.Fatalf("store received %v", batches)
	}
	if batches[0][0]["nom"] != "A" {
		t.Errorf("record = %v", batches[0][0])
	}
}

func TestImportAppend_IgnoresRowsAndColumns(t *testing.T) {
	s, stub := newTestService(t)
	name := stage(t, s, "Nom,Interne,Valeur\nA,x,1\nB,y,2\n")

	_, err := s.ImportAppend(context.Background(), ImportRequest{
		ProcessRequest: ProcessRequest{PreviewRequest: PreviewRequest{Filename: name}},
		TargetTable:    "mesures",
		IgnoreRows:     []int{0},
		IgnoreColumns:  []string{"Interne"},
	})
	if err != nil {
		t.Fatalf("ImportAppend: %v", err)
	}

	batch := stub.inserts["mesures"][0]
	if len(batch) != 1 {
		t.Fatalf("records = %d, want 1", len(batch))
	}
	if _, ok := batch[0]["interne"]; ok {
		t.Error("ignored column leaked")
	}
	if batch[0]["nom"] != "B" {
		t.Errorf("record = %v", batch[0])
	}
}

func TestImportAppend_RequiresTable(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.ImportAppend(context.Background(), ImportRequest{})
	if err == nil || KindOf(err) != KindBadInput {
		t.Fatalf("err = %v, want bad input", err)
	}
}

func TestAutoProcess_Planning(t *testing.T) {
	s, stub := newTestService(t)
	grid := ",,,,\n,,,,\n,,Tarifs,16/01/2026,17/01/2026\n,,,,\nDouble,Flex,Price (EUR),120,130\n"
	name := stage(t, s, grid)

	results, err := s.AutoProcess(context.Background(), AutoRequest{
		Filename: name,
		Category: "RAPPORT PLANNING D-EDGE",
		HotelID:  "H1",
	})
	if err != nil {
		t.Fatalf("AutoProcess: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Table != "planning_tarifs_dispo" || results[0].Succeeded != 2 {
		t.Errorf("result = %+v", results[0])
	}
	if len(stub.inserts["planning_tarifs_dispo"]) != 1 {
		t.Errorf("store inserts = %v", stub.inserts)
	}
}

func TestAutoProcess_UnknownCategory(t *testing.T) {
	s, _ := newTestService(t)
	name := stage(t, s, "a,b\n1,2\n")

	_, err := s.AutoProcess(context.Background(), AutoRequest{
		Filename: name,
		Category: "RAPPORT MYSTÈRE",
		HotelID:  "H1",
	})
	if err == nil || KindOf(err) != KindShape {
		t.Fatalf("err = %v, want shape error", err)
	}
}

func TestCleanup(t *testing.T) {
	s, _ := newTestService(t)
	name := stage(t, s, "a,b\n1,2\n")

	if err := s.Cleanup(name); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.cfg.Upload.Dir, name)); !os.IsNotExist(err) {
		t.Error("file still present after cleanup")
	}
}

func TestCleanup_PathTraversal(t *testing.T) {
	s, _ := newTestService(t)

	outside := filepath.Join(filepath.Dir(s.cfg.Upload.Dir), "victim.txt")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatalf("write outside file: %v", err)
	}

	err := s.Cleanup("../victim.txt")
	if err == nil {
		t.Fatal("expected error: base name does not exist in upload dir")
	}
	if _, statErr := os.Stat(outside); statErr != nil {
		t.Error("file outside upload dir was removed")
	}
}

func TestMapError(t *testing.T) {
	cases := []struct {
		text string
		code string
	}{
		{"planning grid: no date axis found in first 10 rows of column 3", "SHP001"},
		{"rate report tab \"Tarifs\": no header row found in first 15 rows", "SHP002"},
		{"unrecognized report category \"X\"", "SHP004"},
		{"store POST /rest/v1/t: status 401: denied", "ST002"},
		{"something completely different", "ERR000"},
	}

	for _, tc := range cases {
		got := MapError(&Error{Kind: KindInternal, Msg: tc.text})
		if got.Code != tc.code {
			t.Errorf("MapError(%q).Code = %s, want %s", tc.text, got.Code, tc.code)
		}
	}
}
