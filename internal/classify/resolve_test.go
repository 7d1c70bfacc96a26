package classify

import (
	"testing"

	"github.com/franz/score-librarian/internal/catalog"
)

func intPtr(i int) *int { return &i }

func TestResolveFileForInstrument(t *testing.T) {
	files := []catalog.VersionFile{
		{ID: 1, Version: 10, FileType: catalog.FileDuetoTransposition, Tuning: catalog.TuningBb},
		{ID: 2, Version: 10, FileType: catalog.FileDuetoTransposition, Tuning: catalog.TuningCBass},
		{ID: 3, Version: 10, FileType: catalog.FileDuetoTransposition, Tuning: catalog.TuningC},
		{ID: 4, Version: 20, FileType: catalog.FileEnsambleInstrument, Instrument: intPtr(7)},
		{ID: 5, Version: 20, FileType: catalog.FileEnsambleInstrument, Instrument: intPtr(8)},
		{ID: 6, Version: 30, FileType: catalog.FileStandardScore, Instrument: intPtr(7)},
	}

	clarinet := catalog.Instrument{ID: 7, Name: "Clarinete", Afinacion: catalog.AfinacionBb}
	tuba := catalog.Instrument{ID: 8, Name: "Tuba", Afinacion: catalog.AfinacionBb}
	oboe := catalog.Instrument{ID: 9, Name: "Oboe", Afinacion: catalog.AfinacionC}
	horn := catalog.Instrument{ID: 11, Name: "Corno", Afinacion: catalog.AfinacionF}

	tests := []struct {
		name    string
		version catalog.Version
		inst    catalog.Instrument
		wantID  int
	}{
		{"dueto by tuning", catalog.Version{ID: 10, Type: catalog.VersionDueto}, clarinet, 1},
		{"dueto bass clef", catalog.Version{ID: 10, Type: catalog.VersionDueto}, tuba, 2},
		{"dueto concert pitch", catalog.Version{ID: 10, Type: catalog.VersionDueto}, oboe, 3},
		{"dueto missing tuning", catalog.Version{ID: 10, Type: catalog.VersionDueto}, horn, 0},
		{"ensamble by instrument", catalog.Version{ID: 20, Type: catalog.VersionEnsamble}, tuba, 5},
		{"ensamble missing instrument", catalog.Version{ID: 20, Type: catalog.VersionEnsamble}, oboe, 0},
		{"grupo reducido general score", catalog.Version{ID: 30, Type: catalog.VersionGrupoReducido}, oboe, 6},
		{"other version's files ignored", catalog.Version{ID: 99, Type: catalog.VersionDueto}, clarinet, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := ResolveFileForInstrument(tt.version, tt.inst, files)
			if tt.wantID == 0 {
				if ok {
					t.Errorf("Expected no file, got %d", f.ID)
				}
				return
			}
			if !ok {
				t.Fatalf("Expected file %d, got none", tt.wantID)
			}
			if f.ID != tt.wantID {
				t.Errorf("Expected file %d, got %d", tt.wantID, f.ID)
			}
		})
	}
}

func TestResolveSheetForInstrument(t *testing.T) {
	v := catalog.Version{ID: 1, Type: catalog.VersionStandard}
	sheets := []catalog.SheetMusic{
		{ID: 1, Version: 1, Instrument: 4, Type: catalog.SheetMelodiaPrincipal},
		{ID: 2, Version: 1, Instrument: 5},
		{ID: 3, Version: 1, Instrument: 4, Type: catalog.SheetArmonia},
		{ID: 4, Version: 2, Instrument: 4},
	}

	got := ResolveSheetForInstrument(v, catalog.Instrument{ID: 4}, sheets)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("Expected sheets 1 and 3, got %+v", got)
	}
}
