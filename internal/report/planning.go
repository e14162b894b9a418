package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hotelops/rmsync/internal/coerce"
	"github.com/hotelops/rmsync/internal/reader"
)

// Planning unpivots the tariff/availability planning grid.
//
// The layout is headerless: one row carries the calendar-date axis starting
// at a fixed probe column, and every data row below is one
// (room type, rate plan, metric) triple whose cells align with the axis
// dates. Room type cells are vertically merged in the source, so a blank
// cell inherits the last non-blank room type above it.
type Planning struct {
	Path    string
	Sheet   string
	HotelID string
}

const (
	// metricCol holds the metric label ("Price (EUR)", "Left for sale") in
	// data rows. In the axis row the same column carries a label, never a
	// date, so it drops out of the date resolution on its own.
	metricCol = 2

	// axisProbeCol is the first calendar column, probed when locating the
	// axis row.
	axisProbeCol = 3

	// axisScanRows bounds the search for the axis row. Not finding a date
	// there is an error, never a fallback to a default row: a wrong axis
	// guess silently mislabels every emitted fact.
	axisScanRows = 10

	// axisGap skips the sub-header row between the axis and the first data
	// row.
	axisGap = 2

	planningTable = "planning_tarifs_dispo"
)

func (p *Planning) Transform(ctx context.Context) ([]Output, error) {
	grid, err := reader.Grid(p.Path, p.Sheet)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	axisRow := -1
	for r := 0; r < axisScanRows && r < len(grid); r++ {
		if axisDate(cellAt(grid, r, axisProbeCol)) != nil {
			axisRow = r
			break
		}
	}
	if axisRow < 0 {
		return nil, fmt.Errorf("planning grid: no date axis found in first %d rows of column %d", axisScanRows, axisProbeCol)
	}

	// Resolve every axis column once; nil entries are labels or decorative
	// columns and are skipped during the unpivot.
	width := len(grid[axisRow])
	dates := make([]*string, width)
	for c := metricCol; c < width; c++ {
		dates[c] = axisDate(cellAt(grid, axisRow, c))
	}

	var records []map[string]any
	currentRoomType := ""
	for r := axisRow + axisGap; r < len(grid); r++ {
		if roomType := cellAt(grid, r, 0); roomType != "" {
			currentRoomType = roomType
		}
		metric := cellAt(grid, r, metricCol)
		if metric == "" {
			continue
		}
		ratePlan := textOrNil(cellAt(grid, r, 1))

		for c := metricCol; c < width; c++ {
			d := dates[c]
			if d == nil {
				continue
			}
			val := cellAt(grid, r, c)
			if val == "" {
				continue
			}
			records = append(records, map[string]any{
				"type_de_chambre": textOrNil(currentRoomType),
				"plan_tarifaire":  ratePlan,
				"left_for_sale":   metric,
				"date":            *d,
				"tarif_dispo":     val,
				"hotel_id":        p.HotelID,
			})
		}
	}

	return []Output{{Table: planningTable, Records: records}}, nil
}

// axisDate resolves an axis cell to an ISO date, rejecting values that are
// date-shaped but implausible as a planning horizon (old years, small
// numbers that would be counts rather than spreadsheet serials).
func axisDate(s string) *string {
	if s == "" {
		return nil
	}

	if n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		if n < 20000 {
			return nil
		}
		return coerce.Date(n)
	}

	d := coerce.Date(s)
	if d == nil {
		return nil
	}
	year, err := strconv.Atoi((*d)[:4])
	if err != nil || year <= 2000 {
		return nil
	}
	return d
}
