package music

import (
	"testing"

	"github.com/franz/score-librarian/internal/catalog"
)

func TestRelativeTonality(t *testing.T) {
	tests := []struct {
		key      string
		tuning   catalog.InstrumentTuning
		expected string
	}{
		{"C", catalog.AfinacionBb, "D"},
		{"C", catalog.AfinacionEb, "A"},
		{"C", catalog.AfinacionF, "G"},
		{"Cm", catalog.AfinacionBb, "Dm"},
		{"C", catalog.AfinacionC, "C"},
		{"A#", catalog.AfinacionBb, "C"},
		{"Gm", catalog.AfinacionEb, "Em"},
		{"B", catalog.AfinacionG, "E"},
		{"F", catalog.AfinacionNone, "F"},
		{"", catalog.AfinacionBb, ""},
		{"C", "", "C"},
		{"Hm", catalog.AfinacionBb, "Hm"},
		{"C", "X", "C"},
	}

	for _, tt := range tests {
		got := RelativeTonality(tt.key, tt.tuning)
		if got != tt.expected {
			t.Errorf("RelativeTonality(%q, %q) = %q, expected %q", tt.key, tt.tuning, got, tt.expected)
		}
	}
}

func TestValidKey(t *testing.T) {
	for _, k := range Keys {
		if !ValidKey(k) {
			t.Errorf("ValidKey(%q) = false", k)
		}
	}
	for _, k := range []string{"", "m", "H", "Cmm", "Bb"} {
		if ValidKey(k) {
			t.Errorf("ValidKey(%q) = true, expected false", k)
		}
	}
}

func TestSuggestClef(t *testing.T) {
	tests := []struct {
		name     string
		expected catalog.Clef
	}{
		{"Tuba", catalog.ClefFa},
		{"Trombón", catalog.ClefFa},
		{"Trombon 2", catalog.ClefFa},
		{"Bombardino", catalog.ClefFa},
		{"Bass Clarinet", catalog.ClefFa},
		{"Fagot", catalog.ClefFa},
		{"Trompeta", catalog.ClefSol},
		{"Saxofón Alto", catalog.ClefSol},
		{"Flauta", catalog.ClefSol},
		{"", catalog.ClefSol},
	}

	for _, tt := range tests {
		if got := SuggestClef(tt.name); got != tt.expected {
			t.Errorf("SuggestClef(%q) = %s, expected %s", tt.name, got, tt.expected)
		}
	}
}

func TestDuetTuningFor(t *testing.T) {
	tests := []struct {
		inst     catalog.Instrument
		expected catalog.Tuning
	}{
		{catalog.Instrument{Name: "Clarinete", Afinacion: catalog.AfinacionBb}, catalog.TuningBb},
		{catalog.Instrument{Name: "Saxo Alto", Afinacion: catalog.AfinacionEb}, catalog.TuningEb},
		{catalog.Instrument{Name: "Corno", Afinacion: catalog.AfinacionF}, catalog.TuningF},
		{catalog.Instrument{Name: "Flauta", Afinacion: catalog.AfinacionC}, catalog.TuningC},
		{catalog.Instrument{Name: "Flautín", Afinacion: catalog.AfinacionD}, catalog.TuningC},
		{catalog.Instrument{Name: "Caja", Afinacion: catalog.AfinacionNone}, catalog.TuningC},
		{catalog.Instrument{Name: "Tuba", Afinacion: catalog.AfinacionBb}, catalog.TuningCBass},
		{catalog.Instrument{Name: "Trombón", Afinacion: catalog.AfinacionC}, catalog.TuningCBass},
	}

	for _, tt := range tests {
		if got := DuetTuningFor(tt.inst); got != tt.expected {
			t.Errorf("DuetTuningFor(%s/%s) = %s, expected %s", tt.inst.Name, tt.inst.Afinacion, got, tt.expected)
		}
	}
}
