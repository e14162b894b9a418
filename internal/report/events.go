package report

import (
	"context"
	"strings"

	"github.com/hotelops/rmsync/internal/coerce"
	"github.com/hotelops/rmsync/internal/ident"
	"github.com/hotelops/rmsync/internal/reader"
)

// EventCalendar handles the trade-show and event calendar: start/end dates,
// one or two impact scores, free-text descriptions.
type EventCalendar struct {
	Path    string
	Sheet   string
	HotelID string
}

const eventsTable = "salons_evenements"

func (e *EventCalendar) Transform(ctx context.Context) ([]Output, error) {
	tab, err := reader.Table(e.Path, reader.Options{Sheet: e.Sheet})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names := make([]string, len(tab.Columns))
	for i, col := range tab.Columns {
		names[i] = ident.Column(col)
	}

	records := make([]map[string]any, 0, len(tab.Rows))
	for _, row := range tab.Rows {
		rec := make(map[string]any, len(names)+1)
		for i, name := range names {
			if name == "" {
				continue
			}
			switch {
			case eventDateName(name):
				rec[name] = derefAny(coerce.Date(row[i]))
			case eventScoreName(name):
				if n := coerce.Number(row[i]); n != nil {
					rec[name] = *n
				} else {
					rec[name] = nil
				}
			default:
				rec[name] = derefAny(coerce.Text(row[i]))
			}
		}
		rec["hotel_id"] = e.HotelID
		records = append(records, rec)
	}

	return []Output{{Table: eventsTable, Records: records}}, nil
}

// eventDateName matches start/end columns. Short tokens ("du", "au", "fin")
// match exactly so they never fire on substrings of unrelated names.
func eventDateName(name string) bool {
	switch name {
	case "du", "au", "fin", "end":
		return true
	}
	return strings.Contains(name, "date") ||
		strings.Contains(name, "debut") ||
		strings.Contains(name, "start")
}

func eventScoreName(name string) bool {
	return strings.Contains(name, "impact") || strings.Contains(name, "score")
}
