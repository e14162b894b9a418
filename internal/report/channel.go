package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/hotelops/rmsync/internal/coerce"
	"github.com/hotelops/rmsync/internal/ident"
	"github.com/hotelops/rmsync/internal/reader"
)

// ChannelExport handles the channel-manager workbook: several fixed sheets,
// each with its own header offset, all stamped with the report-wide refresh
// timestamp held in one cell of the synthesis sheet.
//
// The timestamp is required context for every derived table, since without it
// the per-channel and per-room figures cannot be ordered against earlier loads,
// so an unreadable timestamp cell fails the whole transformation.
type ChannelExport struct {
	Path    string
	HotelID string
}

type channelSheet struct {
	name      string
	table     string
	headerRow int

	// continuation marks the sheet whose comparison blocks leave columns
	// unlabeled: a blank header cell inherits the nearest labeled cell to
	// its left, suffixed with its position in the block.
	continuation bool
}

var channelSheets = []channelSheet{
	{name: "Synthèse", table: "channel_synthese", headerRow: 2},
	{name: "Par canal", table: "channel_par_canal", headerRow: 1, continuation: true},
	{name: "Par chambre", table: "channel_par_chambre", headerRow: 1},
}

// The refresh timestamp lives next to its label on the first row of the
// synthesis sheet.
const (
	timestampSheet = "Synthèse"
	timestampRow   = 0
	timestampCol   = 1
)

func (c *ChannelExport) Transform(ctx context.Context) ([]Output, error) {
	grids := make(map[string][][]string, len(channelSheets))
	for _, spec := range channelSheets {
		grid, err := reader.Grid(c.Path, spec.name)
		if err != nil {
			return nil, fmt.Errorf("channel export sheet %q: %w", spec.name, err)
		}
		grids[spec.name] = grid
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw := cellAt(grids[timestampSheet], timestampRow, timestampCol)
	tsDate, tsClock := coerce.DateTime(raw)
	if tsDate == nil {
		return nil, fmt.Errorf("channel export: refresh timestamp cell (%s row %d col %d) unreadable: %q",
			timestampSheet, timestampRow, timestampCol, raw)
	}
	lastUpdate := *tsDate
	if tsClock != nil {
		lastUpdate += " " + *tsClock
	}

	outputs := make([]Output, 0, len(channelSheets))
	for _, spec := range channelSheets {
		out, err := c.sheetOutput(spec, grids[spec.name], lastUpdate)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func (c *ChannelExport) sheetOutput(spec channelSheet, grid [][]string, lastUpdate string) (Output, error) {
	if spec.headerRow >= len(grid) {
		return Output{}, fmt.Errorf("channel export sheet %q: header row %d beyond end of sheet", spec.name, spec.headerRow)
	}

	// Sheet readers trim trailing blank cells per row, which can cut an
	// unlabeled continuation block out of the header. Pad the header to the
	// widest data row before resolving names.
	width := len(grid[spec.headerRow])
	for r := spec.headerRow + 1; r < len(grid); r++ {
		if len(grid[r]) > width {
			width = len(grid[r])
		}
	}
	header := make([]string, width)
	copy(header, grid[spec.headerRow])

	names := channelHeader(header, spec.continuation)

	var records []map[string]any
	for r := spec.headerRow + 1; r < len(grid); r++ {
		if rowBlank(grid[r]) {
			continue
		}
		rec := make(map[string]any, len(names)+2)
		for cIdx, name := range names {
			if name == "" {
				continue
			}
			if isDateName(name) {
				rec[name] = derefAny(coerce.Date(cellAt(grid, r, cIdx)))
				continue
			}
			rec[name] = textOrNil(cellAt(grid, r, cIdx))
		}
		rec["hotel_id"] = c.HotelID
		rec["derniere_maj"] = lastUpdate
		records = append(records, rec)
	}

	return Output{Table: spec.table, Records: records}, nil
}

// channelHeader resolves header cells to identifiers. With continuation
// enabled, unlabeled cells extend the block of the last labeled cell:
// "Ce mois | | " becomes ce_mois, ce_mois_2, ce_mois_3.
func channelHeader(header []string, continuation bool) []string {
	names := make([]string, len(header))
	lastLabel := ""
	blockPos := 0
	for i, cell := range header {
		if !blank(cell) {
			names[i] = ident.Column(cell)
			lastLabel = names[i]
			blockPos = 1
			continue
		}
		if !continuation || lastLabel == "" {
			continue
		}
		blockPos++
		names[i] = fmt.Sprintf("%s_%d", lastLabel, blockPos)
	}
	return names
}

func rowBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
