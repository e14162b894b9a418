package report

import (
	"context"
	"testing"
)

const eventsFixture = `Événement,Du,Au,Impact,Commentaire
Salon de l'Agriculture,21/02/2026,01/03/2026,"4,5",Très forte demande
Fashion Week,28/09/2026,06/10/2026,5,
Congrès Médical,12/05/2026,,inconnu,à confirmer
`

func TestEventCalendar_Transform(t *testing.T) {
	e := &EventCalendar{
		Path:    writeCSV(t, "salons.csv", eventsFixture),
		HotelID: "H1",
	}

	outputs, err := e.Transform(context.Background())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(outputs) != 1 || outputs[0].Table != "salons_evenements" {
		t.Fatalf("outputs = %+v", outputs)
	}
	records := outputs[0].Records
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}

	rec := records[0]
	if rec["du"] != "2026-02-21" || rec["au"] != "2026-03-01" {
		t.Errorf("event dates = %v / %v", rec["du"], rec["au"])
	}
	if rec["impact"] != 4.5 {
		t.Errorf("impact = %v, want numeric 4.5", rec["impact"])
	}
	if rec["evenement"] != "Salon de l'Agriculture" {
		t.Errorf("evenement = %v", rec["evenement"])
	}
	if rec["commentaire"] != "Tres forte demande" {
		t.Errorf("commentaire = %v, want accent-stripped text", rec["commentaire"])
	}

	for i, r := range records {
		if r["hotel_id"] != "H1" {
			t.Errorf("record %d hotel_id = %v", i, r["hotel_id"])
		}
	}
}

func TestEventCalendar_UnparseableCellsDegradeToNil(t *testing.T) {
	e := &EventCalendar{
		Path:    writeCSV(t, "salons.csv", eventsFixture),
		HotelID: "H1",
	}

	outputs, err := e.Transform(context.Background())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	// Third row: empty end date and a non-numeric score both load as null.
	rec := outputs[0].Records[2]
	if rec["au"] != nil {
		t.Errorf("au = %v, want nil for empty end date", rec["au"])
	}
	if rec["impact"] != nil {
		t.Errorf("impact = %v, want nil for non-numeric score", rec["impact"])
	}
	if rec["du"] != "2026-05-12" {
		t.Errorf("du = %v", rec["du"])
	}
}
