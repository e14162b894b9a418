package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hotelops/rmsync/internal/config"
	"github.com/hotelops/rmsync/internal/ident"
	"github.com/hotelops/rmsync/internal/normalize"
	"github.com/hotelops/rmsync/internal/reader"
	"github.com/hotelops/rmsync/internal/report"
	"github.com/hotelops/rmsync/internal/store"
	"github.com/hotelops/rmsync/internal/table"
)

// allowedExtensions is the upload allow-list. Everything else is rejected
// before touching disk.
var allowedExtensions = map[string]bool{
	".csv":  true,
	".txt":  true,
	".tsv":  true,
	".xlsx": true,
	".xlsm": true,
}

const previewRows = 10

// Service runs the import pipeline. One instance serves all requests;
// it holds no per-request state.
type Service struct {
	cfg    *config.Config
	store  *store.Client
	loader *store.Loader
	log    *slog.Logger
}

// New builds the service and its batch loader.
func New(cfg *config.Config, client *store.Client, log *slog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		store:  client,
		loader: store.NewLoader(client, cfg.Upload.BatchSize, cfg.Upload.FailureLogDir, log),
		log:    log,
	}
}

// Store exposes the underlying store client for table and template routes.
func (s *Service) Store() *store.Client { return s.store }

// ============================================================================
// Uploads
// ============================================================================

// UploadInfo describes a staged upload.
type UploadInfo struct {
	Filename     string   `json:"filename"`
	OriginalName string   `json:"original_name"`
	Size         int64    `json:"size"`
	Sheets       []string `json:"sheets,omitempty"`
}

// SaveUpload stages an uploaded report under a fresh name, keeping only the
// original extension. Returns the stored name the client must use in later
// calls, plus workbook sheet names when the file is a spreadsheet.
func (s *Service) SaveUpload(originalName string, r io.Reader) (*UploadInfo, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return nil, badInput("file type %q not allowed", ext)
	}

	if err := os.MkdirAll(s.cfg.Upload.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	stored := uuid.New().String() + ext
	path := filepath.Join(s.cfg.Upload.Dir, stored)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	size, err := io.Copy(f, io.LimitReader(r, s.cfg.Upload.MaxFileSize))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write upload: %w", err)
	}

	info := &UploadInfo{Filename: stored, OriginalName: originalName, Size: size}
	if sheets, err := reader.Sheets(path); err == nil {
		info.Sheets = sheets
	} else {
		s.log.Warn("could not list sheets of upload", "file", stored, "error", err)
	}
	return info, nil
}

// Cleanup removes a staged upload. The name is reduced to its base so a
// crafted path cannot reach outside the upload directory.
func (s *Service) Cleanup(filename string) error {
	path, err := s.filePath(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func (s *Service) filePath(filename string) (string, error) {
	if filename == "" {
		return "", badInput("filename is required")
	}
	path := filepath.Join(s.cfg.Upload.Dir, filepath.Base(filename))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", notFound("file %s not found", filepath.Base(filename))
		}
		return "", fmt.Errorf("stat upload: %w", err)
	}
	return path, nil
}

// ============================================================================
// Preview / Process
// ============================================================================

// PreviewRequest identifies a staged file and how to frame its table.
type PreviewRequest struct {
	Filename  string `json:"filename"`
	Sheet     string `json:"sheet_name,omitempty"`
	HeaderRow *int   `json:"header_row,omitempty"`
}

// ProcessRequest adds normalization parameters to a preview request.
type ProcessRequest struct {
	PreviewRequest
	Types         map[string]string `json:"column_types,omitempty"`
	Mapping       map[string]string `json:"column_mapping,omitempty"`
	SplitDatetime bool              `json:"split_datetime,omitempty"`
}

// Preview is the bounded view of a table returned by the analysis routes.
type Preview struct {
	Columns           []string         `json:"columns"`
	NormalizedColumns []string         `json:"normalized_columns,omitempty"`
	Sample            []map[string]any `json:"sample"`
	TotalRows         int              `json:"total_rows"`
	TotalColumns      int              `json:"total_columns"`
}

// Preview reads a staged file and returns its columns, their normalized
// identifiers and a bounded sample, without touching the store.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (*Preview, error) {
	t, err := s.readTable(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		normalized[i] = ident.Column(col)
	}

	return &Preview{
		Columns:           t.Columns,
		NormalizedColumns: normalized,
		Sample:            sampleRecords(t),
		TotalRows:         len(t.Rows),
		TotalColumns:      len(t.Columns),
	}, nil
}

// Process runs the full normalization pass and returns a preview of its
// output, so a mapping or template can be verified before committing.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (*Preview, error) {
	t, err := s.readTable(req.PreviewRequest)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := normalize.Apply(s.log, t, normalize.Options{
		Types:         req.Types,
		Mapping:       req.Mapping,
		SplitDateTime: req.SplitDatetime,
	})

	return &Preview{
		Columns:      out.Columns,
		Sample:       sampleRecords(out),
		TotalRows:    len(out.Rows),
		TotalColumns: len(out.Columns),
	}, nil
}

func (s *Service) readTable(req PreviewRequest) (*table.Table, error) {
	path, err := s.filePath(req.Filename)
	if err != nil {
		return nil, err
	}
	t, err := reader.Table(path, reader.Options{Sheet: req.Sheet, HeaderRow: req.HeaderRow})
	if err != nil {
		return nil, shapeErr(err)
	}
	return t, nil
}

func sampleRecords(t *table.Table) []map[string]any {
	records := t.Records()
	if len(records) > previewRows {
		records = records[:previewRows]
	}
	if records == nil {
		records = []map[string]any{}
	}
	return records
}

// ============================================================================
// Import
// ============================================================================

// ImportRequest commits a normalized table to a destination table.
type ImportRequest struct {
	ProcessRequest
	TargetTable   string   `json:"table_name"`
	IgnoreRows    []int    `json:"ignore_rows,omitempty"`
	IgnoreColumns []string `json:"ignore_columns,omitempty"`
}

// ImportAppend reads, normalizes and loads a staged file into its target
// table. Batch failures are reported in the result, not as an error.
func (s *Service) ImportAppend(ctx context.Context, req ImportRequest) (*store.BatchResult, error) {
	if req.TargetTable == "" {
		return nil, badInput("table_name is required")
	}

	t, err := s.readTable(req.PreviewRequest)
	if err != nil {
		return nil, err
	}
	if len(req.IgnoreRows) > 0 {
		t.DropRows(req.IgnoreRows)
	}
	if len(req.IgnoreColumns) > 0 {
		t.DropColumns(req.IgnoreColumns)
	}

	out := normalize.Apply(s.log, t, normalize.Options{
		Types:         req.Types,
		Mapping:       req.Mapping,
		SplitDateTime: req.SplitDatetime,
	})

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Upload.Timeout)
	defer cancel()

	result, err := s.loader.Load(ctx, req.TargetTable, out.Records())
	if err != nil {
		return result, storeErr(err)
	}
	s.log.Info("import finished",
		"table", req.TargetTable,
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed_batches", len(result.Failed))
	return result, nil
}

// ============================================================================
// Auto-process
// ============================================================================

// AutoRequest runs a known report through its transformer.
type AutoRequest struct {
	Filename string `json:"filename"`
	Category string `json:"category"`
	Tab      string `json:"tab_name,omitempty"`
	HotelID  string `json:"hotel_id"`
}

// AutoProcess selects the transformer for the report category, runs it, and
// loads every produced record set. Results are aggregated per target table.
func (s *Service) AutoProcess(ctx context.Context, req AutoRequest) ([]*store.BatchResult, error) {
	if req.HotelID == "" {
		return nil, badInput("hotel_id is required")
	}
	path, err := s.filePath(req.Filename)
	if err != nil {
		return nil, err
	}

	tr, err := report.Select(report.Request{
		Category: req.Category,
		Path:     path,
		Tab:      req.Tab,
		HotelID:  req.HotelID,
	})
	if err != nil {
		return nil, shapeErr(err)
	}

	outputs, err := tr.Transform(ctx)
	if err != nil {
		return nil, shapeErr(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Upload.Timeout)
	defer cancel()

	results := make([]*store.BatchResult, 0, len(outputs))
	for _, out := range outputs {
		result, err := s.loader.Load(ctx, out.Table, out.Records)
		if result != nil {
			results = append(results, result)
		}
		if err != nil {
			return results, storeErr(err)
		}
	}
	return results, nil
}
