package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const defaultBatchSize = 1000

// inserter is the slice of Client the loader needs; tests substitute it.
type inserter interface {
	Insert(ctx context.Context, table string, records []map[string]any) (int, error)
}

// Loader submits record sets in fixed-size batches and tracks per-batch
// failures without letting one bad batch stop the rest of the run.
type Loader struct {
	store      inserter
	batchSize  int
	failureDir string
	log        *slog.Logger
}

// FailedBatch describes one batch that did not make it, with the original
// row range so the failed slice can be replayed.
type FailedBatch struct {
	Index    int    `json:"batch_index"`
	FirstRow int    `json:"first_row"`
	LastRow  int    `json:"last_row"`
	Error    string `json:"error"`
}

// BatchResult is the aggregate outcome of one Load call.
type BatchResult struct {
	Table     string        `json:"table"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    []FailedBatch `json:"failed_batches,omitempty"`
}

// NewLoader builds a loader. batchSize <= 0 selects the default; failureDir
// is where failed-batch descriptors are persisted for replay.
func NewLoader(store inserter, batchSize int, failureDir string, log *slog.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Loader{store: store, batchSize: batchSize, failureDir: failureDir, log: log}
}

// Load sanitizes records and submits them batch by batch. Batch failures are
// recorded and the run continues; only context cancellation stops it early,
// and then the unsubmitted row range is recorded in the result so the caller
// can see exactly what never reached the store.
func (l *Loader) Load(ctx context.Context, table string, records []map[string]any) (*BatchResult, error) {
	records = Sanitize(records)

	result := &BatchResult{Table: table, Total: len(records)}
	for start := 0; start < len(records); start += l.batchSize {
		end := start + l.batchSize
		if end > len(records) {
			end = len(records)
		}
		index := start / l.batchSize

		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, FailedBatch{
				Index:    index,
				FirstRow: start,
				LastRow:  len(records) - 1,
				Error:    "canceled before submission: " + err.Error(),
			})
			l.persistFailures(result)
			return result, err
		}

		n, err := l.store.Insert(ctx, table, records[start:end])
		if err != nil {
			l.log.Error("batch insert failed",
				"table", table,
				"batch", index,
				"rows", fmt.Sprintf("%d-%d", start, end-1),
				"error", err)
			result.Failed = append(result.Failed, FailedBatch{
				Index:    index,
				FirstRow: start,
				LastRow:  end - 1,
				Error:    err.Error(),
			})
			continue
		}
		result.Succeeded += n
	}

	if len(result.Failed) > 0 {
		l.persistFailures(result)
	}
	return result, nil
}

// persistFailures writes the failed-batch descriptors to a timestamped JSON
// file so the rows can be replayed. This is best-effort: a persistence
// problem is logged, never escalated over the actual load outcome.
func (l *Loader) persistFailures(result *BatchResult) {
	if l.failureDir == "" {
		return
	}
	if err := os.MkdirAll(l.failureDir, 0o755); err != nil {
		l.log.Warn("could not create failure log dir", "dir", l.failureDir, "error", err)
		return
	}

	name := fmt.Sprintf("failed_batches_%s_%s.json", result.Table, time.Now().Format("20060102_150405"))
	path := filepath.Join(l.failureDir, name)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		l.log.Warn("could not encode failure log", "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		l.log.Warn("could not write failure log", "path", path, "error", err)
		return
	}
	l.log.Info("failed batches persisted", "path", path, "failed", len(result.Failed))
}
