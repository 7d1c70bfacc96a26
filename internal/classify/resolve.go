package classify

import (
	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/music"
)

// ResolveFileForInstrument picks which of a version's files an instrument
// plays from:
//   - DUETO: the transposition matching the instrument (bass clef reads C_BASS)
//   - ENSAMBLE: the file uploaded for that instrument
//   - STANDARD and GRUPO_REDUCIDO: the first general score
func ResolveFileForInstrument(v catalog.Version, inst catalog.Instrument, files []catalog.VersionFile) (*catalog.VersionFile, bool) {
	switch v.Type {
	case catalog.VersionDueto:
		want := music.DuetTuningFor(inst)
		for i := range files {
			f := &files[i]
			if f.Version == v.ID && f.FileType == catalog.FileDuetoTransposition && f.Tuning == want {
				return f, true
			}
		}
	case catalog.VersionEnsamble:
		for i := range files {
			f := &files[i]
			if f.Version == v.ID && f.FileType == catalog.FileEnsambleInstrument &&
				f.Instrument != nil && *f.Instrument == inst.ID {
				return f, true
			}
		}
	case catalog.VersionStandard, catalog.VersionGrupoReducido:
		for i := range files {
			f := &files[i]
			if f.Version == v.ID && f.FileType == catalog.FileStandardScore {
				return f, true
			}
		}
	}
	return nil, false
}

// ResolveSheetForInstrument returns the STANDARD sheet-music parts written
// for an instrument, in the order given
func ResolveSheetForInstrument(v catalog.Version, inst catalog.Instrument, sheets []catalog.SheetMusic) []catalog.SheetMusic {
	var out []catalog.SheetMusic
	for _, s := range sheets {
		if s.Version == v.ID && s.Instrument == inst.ID {
			out = append(out, s)
		}
	}
	return out
}
