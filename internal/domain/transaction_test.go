package domain

import (
	"reflect"
	"testing"
)

func TestPayerTagString(t *testing.T) {
	tests := []struct {
		tag  PayerTag
		want string
	}{
		{PayerPartyA, "PartyA"},
		{PayerPartyB, "PartyB"},
		{PayerUnknown, "Unknown"},
		{PayerTag(42), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.tag.String(); got != tt.want {
			t.Errorf("PayerTag(%d).String() = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestDirectionIsCanonical(t *testing.T) {
	if !DirectionInflow.IsCanonical() || !DirectionOutflow.IsCanonical() {
		t.Error("Thu and Chi must be canonical")
	}
	if Direction("Income").IsCanonical() {
		t.Error("Income must not be canonical")
	}
}

func TestLedgerRecordRow(t *testing.T) {
	rec := LedgerRecord{
		Date:        "16/06/2025",
		Direction:   DirectionOutflow,
		Amount:      50000,
		Description: "Tien an trua",
		Payer:       PayerPartyA,
	}

	got := rec.Row(nil)
	want := []interface{}{"16/06/2025", "Chi", int64(50000), "Tien an trua", "PartyA"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Row() = %v, want %v", got, want)
	}

	labelled := rec.Row(PayerLabels{PayerPartyA: "Chồng"})
	if labelled[4] != "Chồng" {
		t.Errorf("Row() payer = %v, want Chồng", labelled[4])
	}
}

func TestPayerLabelsFallback(t *testing.T) {
	labels := PayerLabels{PayerPartyB: ""}
	if got := labels.Label(PayerPartyB); got != "PartyB" {
		t.Errorf("Label() = %q, want PartyB", got)
	}
}
