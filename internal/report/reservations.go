package report

import (
	"context"
	"strings"

	"github.com/hotelops/rmsync/internal/coerce"
	"github.com/hotelops/rmsync/internal/ident"
	"github.com/hotelops/rmsync/internal/reader"
)

// Reservations handles the reservation ledger exports: a plain header-bearing
// table, one booking per row. The same layout serves both the in-flight
// ledger and the prior-year history; only the destination table differs.
type Reservations struct {
	Path    string
	Sheet   string
	HotelID string

	// Historical routes to the prior-year table.
	Historical bool
}

const (
	reservationsTable = "reservations_en_cours"
	historyTable      = "historique_reservations_n1"
)

// Column classification keywords, matched against normalized column names.
var (
	dateNameTokens    = []string{"date", "arriv", "depart", "achat", "annul", "creation"}
	integerNameTokens = []string{"nb_", "nombre", "nuit", "adulte", "enfant", "pax"}
	moneyNameTokens   = []string{"montant", "prix", "tarif", "total", "taxe", "commission", "ca_"}
)

type columnKind int

const (
	kindText columnKind = iota
	kindDate
	kindDateTime
	kindInteger
	kindMoney
)

func (r *Reservations) Transform(ctx context.Context) ([]Output, error) {
	tab, err := reader.Table(r.Path, reader.Options{Sheet: r.Sheet})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names := make([]string, len(tab.Columns))
	kinds := make([]columnKind, len(tab.Columns))
	for i, col := range tab.Columns {
		names[i] = ident.Column(col)
		kinds[i] = classifyColumn(names[i], sampleCells(tab.Rows, i))
	}

	records := make([]map[string]any, 0, len(tab.Rows))
	for _, row := range tab.Rows {
		rec := make(map[string]any, len(names)+1)
		for i, name := range names {
			if name == "" {
				continue
			}
			switch kinds[i] {
			case kindDate:
				rec[name] = derefAny(coerce.Date(row[i]))
			case kindDateTime:
				d, h := coerce.DateTime(row[i])
				rec["date_"+name] = derefAny(d)
				rec["heure_"+name] = derefAny(h)
			case kindInteger:
				if n := coerce.Integer(row[i]); n != nil {
					rec[name] = *n
				} else {
					rec[name] = nil
				}
			case kindMoney:
				if n := coerce.Number(row[i]); n != nil {
					rec[name] = *n
				} else {
					rec[name] = nil
				}
			default:
				rec[name] = derefAny(coerce.Text(row[i]))
			}
		}
		rec["hotel_id"] = r.HotelID
		records = append(records, rec)
	}

	table := reservationsTable
	if r.Historical {
		table = historyTable
	}
	return []Output{{Table: table, Records: records}}, nil
}

// classifyColumn decides a column's coercion from its name; date-named
// columns whose samples carry a clock component are split into date and time.
func classifyColumn(name string, samples []any) columnKind {
	for _, tok := range dateNameTokens {
		if strings.Contains(name, tok) {
			if samplesCarryClock(samples) {
				return kindDateTime
			}
			return kindDate
		}
	}
	for _, tok := range integerNameTokens {
		if strings.Contains(name, tok) {
			return kindInteger
		}
	}
	for _, tok := range moneyNameTokens {
		if strings.Contains(name, tok) {
			return kindMoney
		}
	}
	return kindText
}

func samplesCarryClock(samples []any) bool {
	for _, v := range samples {
		if _, clock := coerce.DateTime(v); clock != nil {
			return true
		}
	}
	return false
}

func sampleCells(rows [][]any, col int) []any {
	var out []any
	for _, row := range rows {
		if col >= len(row) || row[col] == nil {
			continue
		}
		if s, ok := row[col].(string); ok && blank(s) {
			continue
		}
		out = append(out, row[col])
		if len(out) == 10 {
			break
		}
	}
	return out
}
