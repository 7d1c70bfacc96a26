package search

import (
	"strconv"

	"github.com/franz/score-librarian/internal/catalog"
)

// ThemeFields are the searchable fields of a theme
func ThemeFields(t catalog.Theme) []string {
	return []string{t.Title, t.Artist, t.Tonalidad, t.Description}
}

// VersionFields are the searchable fields of a version
func VersionFields(v catalog.Version) []string {
	return []string{v.Title, v.ThemeTitle, string(v.Type), v.Type.Label(), v.Notes}
}

// VersionFileFields are the searchable fields of a version file
func VersionFileFields(f catalog.VersionFile) []string {
	return []string{
		f.ThemeTitle, f.VersionTitle, string(f.FileType), f.FileTypeDisplay,
		string(f.Tuning), f.TuningDisplay, f.InstrumentName, f.Description,
	}
}

// SheetMusicFields are the searchable fields of a sheet-music part;
// instrumentName is resolved by the caller
func SheetMusicFields(s catalog.SheetMusic, instrumentName string) []string {
	return []string{instrumentName, string(s.Type), s.Type.Label(), string(s.Clef), s.TonalidadRelativa}
}

// InstrumentFields are the searchable fields of an instrument
func InstrumentFields(i catalog.Instrument) []string {
	return []string{i.Name, string(i.Family), string(i.Afinacion)}
}

// EventFields are the searchable fields of an event
func EventFields(e catalog.Event) []string {
	fields := []string{e.Title, string(e.EventType), string(e.Status), e.Description}
	if e.Location != nil {
		fields = append(fields, e.Location.Name, e.Location.City)
	}
	if e.Repertoire != nil {
		fields = append(fields, e.Repertoire.Name)
	}
	return fields
}

// LocationFields are the searchable fields of a location
func LocationFields(l catalog.Location) []string {
	return []string{l.Name, l.Address, l.City, l.PostalCode, l.Country}
}

// RepertoireFields are the searchable fields of a repertoire, including
// the titles of its member versions
func RepertoireFields(r catalog.Repertoire) []string {
	fields := []string{r.Name, r.Description, strconv.Itoa(r.ID)}
	for _, rv := range r.Versions {
		fields = append(fields, rv.Version.Title, rv.Version.ThemeTitle)
	}
	return fields
}
