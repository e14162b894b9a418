package report

import (
	"context"
	"fmt"

	"github.com/hotelops/rmsync/internal/coerce"
	"github.com/hotelops/rmsync/internal/ident"
	"github.com/hotelops/rmsync/internal/reader"
)

// CompetitiveRates handles the rate-shopper workbook: one tab per view
// (overview, competitor rates, day-over-day deltas), each with decorative
// rows above a real header row.
type CompetitiveRates struct {
	Path    string
	Tab     string
	HotelID string
}

const otaHeaderScanRows = 15

// headerKeywords mark a row as the real header: rate-shopper exports always
// carry a date or demand column.
var headerKeywords = []string{"date", "jour", "day", "demande", "demand"}

// otaTabTables maps a tab name, matched fuzzily, to its destination table.
// The delta tabs are checked first so "vs. 3 jours" never falls through to a
// broader token.
var otaTabTables = []struct {
	token string
	table string
}{
	{"hier", "ota_vs_hier"},
	{"3", "ota_vs_3_jours"},
	{"7", "ota_vs_7_jours"},
	{"aper", "ota_apercu"},
	{"overview", "ota_apercu"},
	{"tarif", "ota_tarifs"},
	{"rate", "ota_tarifs"},
}

func (o *CompetitiveRates) Transform(ctx context.Context) ([]Output, error) {
	table, err := otaTable(o.Tab)
	if err != nil {
		return nil, err
	}

	grid, err := reader.Grid(o.Path, o.Tab)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	headerRow := findOTAHeader(grid)
	if headerRow < 0 {
		return nil, fmt.Errorf("rate report tab %q: no header row found in first %d rows", o.Tab, otaHeaderScanRows)
	}

	// Columns without a real header are placeholders from the export tool
	// and are dropped; the rest get normalized identifiers.
	header := grid[headerRow]
	names := make([]string, len(header))
	dateCol := -1
	for c, cell := range header {
		if blank(cell) {
			continue
		}
		names[c] = ident.Column(cell)
		if dateCol < 0 && isDateName(names[c]) {
			dateCol = c
		}
	}

	numeric := otaNumericColumns(grid, headerRow, names, dateCol)

	var records []map[string]any
	for r := headerRow + 1; r < len(grid); r++ {
		var primaryDate *string
		if dateCol >= 0 {
			primaryDate = coerce.Date(cellAt(grid, r, dateCol))
			if primaryDate == nil {
				// Trailing summary or separator row.
				continue
			}
		}

		rec := make(map[string]any, len(names)+1)
		for c, name := range names {
			if name == "" {
				continue
			}
			if c == dateCol {
				rec[name] = *primaryDate
				continue
			}
			if isDateName(name) {
				rec[name] = derefAny(coerce.Date(cellAt(grid, r, c)))
				continue
			}
			if numeric[c] {
				// Rate and demand columns default to zero: an empty cell in
				// this report means no data reported, not missing.
				rec[name] = coerce.NumberOrZero(cellAt(grid, r, c))
				continue
			}
			rec[name] = textOrNil(cellAt(grid, r, c))
		}
		rec["hotel_id"] = o.HotelID
		records = append(records, rec)
	}

	return []Output{{Table: table, Records: records}}, nil
}

const otaSampleRows = 10

// otaNumericColumns samples each named non-date column below the header and
// marks it numeric when every non-blank sample coerces to a number. A column
// with no usable samples stays text.
func otaNumericColumns(grid [][]string, headerRow int, names []string, dateCol int) []bool {
	numeric := make([]bool, len(names))
	for c, name := range names {
		if name == "" || c == dateCol || isDateName(name) {
			continue
		}
		sampled := 0
		allNumeric := true
		for r := headerRow + 1; r < len(grid) && sampled < otaSampleRows; r++ {
			cell := cellAt(grid, r, c)
			if blank(cell) {
				continue
			}
			sampled++
			if coerce.Number(cell) == nil {
				allNumeric = false
				break
			}
		}
		numeric[c] = sampled > 0 && allNumeric
	}
	return numeric
}

func otaTable(tab string) (string, error) {
	for _, m := range otaTabTables {
		if matchToken(tab, m.token) {
			return m.table, nil
		}
	}
	return "", fmt.Errorf("unsupported rate report tab %q", tab)
}

// findOTAHeader returns the first row that looks like a header: at least two
// non-blank cells among the first five columns and a recognizable keyword
// anywhere in the row.
func findOTAHeader(grid [][]string) int {
	for r := 0; r < otaHeaderScanRows && r < len(grid); r++ {
		filled := 0
		for c := 0; c < 5; c++ {
			if cellAt(grid, r, c) != "" {
				filled++
			}
		}
		if filled < 2 {
			continue
		}
		for _, cell := range grid[r] {
			key := foldKey(cell)
			for _, kw := range headerKeywords {
				if key != "" && matchToken(key, kw) {
					return r
				}
			}
		}
	}
	return -1
}

func isDateName(name string) bool {
	return matchToken(name, "date") || name == "jour" || name == "day"
}

func derefAny(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
