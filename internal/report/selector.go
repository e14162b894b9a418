package report

import (
	"fmt"

	"github.com/hotelops/rmsync/internal/reader"
)

// Request carries everything the selector needs to construct a transformer.
type Request struct {
	Category string
	Path     string
	Tab      string
	HotelID  string
}

// Select picks the transformer for a report category. Matching is a
// case- and accent-insensitive substring test against known category tokens.
// An unrecognized category is a hard error naming the value: guessing a
// transformer would load records into the wrong tables.
func Select(req Request) (Transformer, error) {
	switch {
	case matchToken(req.Category, "planning"):
		return &Planning{Path: req.Path, Sheet: req.Tab, HotelID: req.HotelID}, nil

	case matchToken(req.Category, "historique"):
		return &Reservations{Path: req.Path, Sheet: req.Tab, HotelID: req.HotelID, Historical: true}, nil

	case matchToken(req.Category, "reservation"):
		return &Reservations{Path: req.Path, Sheet: req.Tab, HotelID: req.HotelID}, nil

	case matchToken(req.Category, "ota") || matchToken(req.Category, "insight"):
		tab := req.Tab
		if tab == "" {
			// Ambiguous without a tab: default to the workbook's first
			// sheet.
			sheets, err := reader.Sheets(req.Path)
			if err != nil {
				return nil, err
			}
			if len(sheets) == 0 {
				return nil, fmt.Errorf("rate report %q: no tab name given and no sheets found", req.Path)
			}
			tab = sheets[0]
		}
		return &CompetitiveRates{Path: req.Path, Tab: tab, HotelID: req.HotelID}, nil

	case matchToken(req.Category, "salon") || matchToken(req.Category, "evenement") || matchToken(req.Category, "event"):
		return &EventCalendar{Path: req.Path, Sheet: req.Tab, HotelID: req.HotelID}, nil

	case matchToken(req.Category, "channel") || matchToken(req.Category, "canal"):
		return &ChannelExport{Path: req.Path, HotelID: req.HotelID}, nil
	}

	return nil, fmt.Errorf("unrecognized report category %q", req.Category)
}
