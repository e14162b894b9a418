package report

import (
	"context"
	"testing"
)

const reservationsFixture = `Référence,Date d'arrivée,Création,Nombre de nuits,Montant total,Statut
R1,16/01/2026,2026-01-10 14:30:00,3,"1 450,00",Confirmé
R2,20/01/2026,2026-01-11 09:05:00,1,99,Annulé
`

func TestReservations_Transform(t *testing.T) {
	r := &Reservations{
		Path:    writeCSV(t, "resa.csv", reservationsFixture),
		HotelID: "H1",
	}

	outputs, err := r.Transform(context.Background())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	out := outputs[0]
	if out.Table != "reservations_en_cours" {
		t.Errorf("table = %q", out.Table)
	}
	if len(out.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(out.Records))
	}

	rec := out.Records[0]
	if rec["date_d_arrivee"] != "2026-01-16" {
		t.Errorf("arrival = %v", rec["date_d_arrivee"])
	}
	// Creation carries a clock, so the column is split.
	if rec["date_creation"] != "2026-01-10" || rec["heure_creation"] != "14:30:00" {
		t.Errorf("creation split = %v / %v", rec["date_creation"], rec["heure_creation"])
	}
	if rec["nombre_de_nuits"] != int64(3) {
		t.Errorf("nights = %v (%T)", rec["nombre_de_nuits"], rec["nombre_de_nuits"])
	}
	if rec["montant_total"] != 1450.0 {
		t.Errorf("amount = %v", rec["montant_total"])
	}
	if rec["statut"] != "Confirme" {
		t.Errorf("status = %v", rec["statut"])
	}
	if rec["hotel_id"] != "H1" {
		t.Errorf("hotel_id = %v", rec["hotel_id"])
	}
}

func TestReservations_HistoricalTable(t *testing.T) {
	r := &Reservations{
		Path:       writeCSV(t, "resa.csv", reservationsFixture),
		HotelID:    "H1",
		Historical: true,
	}

	outputs, err := r.Transform(context.Background())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if outputs[0].Table != "historique_reservations_n1" {
		t.Errorf("table = %q", outputs[0].Table)
	}
}
