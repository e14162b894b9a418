// Package reader loads delimited and spreadsheet report files into tables.
//
// Source files come from several reporting tools that agree on nothing:
// encoding varies between UTF-8 and the Windows single-byte charsets, and
// the delimiter can be comma, semicolon, tab or pipe. CSV reading is
// therefore a search over encoding × delimiter candidates, accepting the
// first combination that yields a plausible multi-column parse.
package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/hotelops/rmsync/internal/table"
)

// ErrUnreadable means no supported encoding/delimiter combination produced a
// usable parse.
var ErrUnreadable = errors.New("file could not be parsed with any supported encoding and delimiter")

// Options controls how a file is shaped into a Table.
type Options struct {
	// Sheet selects a workbook sheet by name. Empty means the first sheet.
	// Ignored for delimited files.
	Sheet string

	// HeaderRow is the zero-based index of the header row. Nil means row 0.
	HeaderRow *int

	// NoHeader treats every row as data and assigns positional column names.
	NoHeader bool
}

// spreadsheetExts are the workbook formats handled by excelize. Legacy .xls
// is intentionally absent; those files fail with a clear open error rather
// than being misparsed as text.
var spreadsheetExts = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// IsSpreadsheet reports whether the path looks like a workbook rather than a
// delimited text file.
func IsSpreadsheet(path string) bool {
	return spreadsheetExts[strings.ToLower(filepath.Ext(path))]
}

// Sheets lists the sheet names of a workbook. Delimited files have no
// sheets and return nil.
func Sheets(path string) ([]string, error) {
	if !IsSpreadsheet(path) {
		return nil, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// Grid reads a file into a raw cell grid with no header interpretation.
// Report transformers that locate their own header rows start here.
func Grid(path string, sheet string) ([][]string, error) {
	if IsSpreadsheet(path) {
		return workbookGrid(path, sheet)
	}
	return delimitedGrid(path)
}

// Table reads a file into a Table according to opts.
func Table(path string, opts Options) (*table.Table, error) {
	grid, err := Grid(path, opts.Sheet)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("%s: empty file", filepath.Base(path))
	}

	if opts.NoHeader {
		width := 0
		for _, row := range grid {
			if len(row) > width {
				width = len(row)
			}
		}
		t := table.New(table.PositionalColumns(width))
		for _, row := range grid {
			t.Rows = append(t.Rows, padRow(row, width))
		}
		return t, nil
	}

	headerIdx := 0
	if opts.HeaderRow != nil {
		headerIdx = *opts.HeaderRow
	}
	if headerIdx >= len(grid) {
		return nil, fmt.Errorf("%s: header row %d beyond end of file", filepath.Base(path), headerIdx)
	}

	columns := make([]string, len(grid[headerIdx]))
	for i, cell := range grid[headerIdx] {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			cell = fmt.Sprintf("col_%d", i)
		}
		columns[i] = cell
	}

	t := table.New(columns)
	for _, row := range grid[headerIdx+1:] {
		t.Rows = append(t.Rows, padRow(row, len(columns)))
	}
	return t, nil
}

func padRow(row []string, width int) []any {
	out := make([]any, width)
	for i := range out {
		if i < len(row) {
			out[i] = row[i]
		} else {
			out[i] = ""
		}
	}
	return out
}

// ============================================================================
// Workbook Reading
// ============================================================================

func workbookGrid(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = list[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// ============================================================================
// Delimited Reading
// ============================================================================

// codec pairs an encoding label with its byte decoder. Order matters: UTF-8
// is tried first because its validation actually rejects foreign bytes;
// Windows-1252 comes before Latin-1 because both accept every byte but 1252
// maps the 0x80–0x9F range to the punctuation the reports actually use.
type codec struct {
	name   string
	decode func([]byte) (string, bool)
}

var codecs = []codec{
	{"utf-8", decodeUTF8},
	{"windows-1252", charmapDecoder(charmap.Windows1252)},
	{"iso-8859-1", charmapDecoder(charmap.ISO8859_1)},
}

var delimiters = []rune{',', ';', '\t', '|'}

const sniffSample = 2048

func delimitedGrid(path string) ([][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	raw = trimBOM(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: empty file", filepath.Base(path))
	}

	// A single-column parse is kept as a fallback in case the file genuinely
	// has one column, but the search keeps going for a multi-column one.
	var fallback [][]string

	for _, c := range codecs {
		text, ok := c.decode(raw)
		if !ok {
			continue
		}

		candidates := delimiters
		if d, ok := sniffDelimiter(text); ok {
			candidates = append([]rune{d}, otherDelimiters(d)...)
		}

		for _, delim := range candidates {
			grid := parseDelimited(text, delim)
			if len(grid) == 0 {
				continue
			}
			if len(grid[0]) > 1 {
				return grid, nil
			}
			if fallback == nil {
				fallback = grid
			}
		}
	}

	if fallback != nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnreadable)
}

func decodeUTF8(b []byte) (string, bool) {
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

func charmapDecoder(cm *charmap.Charmap) func([]byte) (string, bool) {
	return func(b []byte) (string, bool) {
		out, err := cm.NewDecoder().Bytes(b)
		if err != nil {
			return "", false
		}
		return string(out), true
	}
}

// sniffDelimiter guesses the delimiter from the leading sample: the winning
// candidate appears on every sampled line with a consistent per-line count.
// Ties and inconsistent counts fall back to raw frequency.
func sniffDelimiter(text string) (rune, bool) {
	sample := text
	if len(sample) > sniffSample {
		sample = sample[:sniffSample]
	}
	lines := nonEmptyLines(sample)
	if len(lines) == 0 {
		return 0, false
	}

	best := rune(0)
	bestScore := 0
	for _, delim := range delimiters {
		first := strings.Count(lines[0], string(delim))
		if first == 0 {
			continue
		}
		consistent := true
		total := first
		for _, line := range lines[1:] {
			n := strings.Count(line, string(delim))
			if n != first {
				consistent = false
			}
			total += n
		}
		score := total
		if consistent {
			// Strongly prefer a delimiter with identical counts per line.
			score *= 100
		}
		if score > bestScore {
			best = delim
			bestScore = score
		}
	}
	if best == 0 {
		return 0, false
	}
	return best, true
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
		if len(out) == 20 {
			break
		}
	}
	// The last sampled line may be cut mid-record; drop it when there is
	// more than one.
	if len(out) > 1 {
		out = out[:len(out)-1]
	}
	return out
}

func otherDelimiters(first rune) []rune {
	var out []rune
	for _, d := range delimiters {
		if d != first {
			out = append(out, d)
		}
	}
	return out
}

// parseDelimited parses the whole text, skipping lines the CSV parser cannot
// make sense of rather than failing the file.
func parseDelimited(text string, delim rune) [][]string {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var grid [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			break
		}
		grid = append(grid, record)
	}
	return grid
}
