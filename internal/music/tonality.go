// Package music holds the transposition and clef rules the band uses when
// assigning parts to instruments.
package music

import (
	"strings"

	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/search"
)

// Keys lists the 24 theme tonalities accepted by the backend
var Keys = []string{
	"C", "Cm", "C#", "C#m", "D", "Dm", "D#", "D#m", "E", "Em", "F", "Fm",
	"F#", "F#m", "G", "Gm", "G#", "G#m", "A", "Am", "A#", "A#m", "B", "Bm",
}

var pitchClass = map[string]int{
	"C": 0, "C#": 1, "D": 2, "D#": 3, "E": 4, "F": 5,
	"F#": 6, "G": 7, "G#": 8, "A": 9, "A#": 10, "B": 11,
}

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// transposition is the number of semitones a part is written above concert pitch
var transposition = map[catalog.InstrumentTuning]int{
	catalog.AfinacionC:    0,
	catalog.AfinacionBb:   2,
	catalog.AfinacionEb:   9,
	catalog.AfinacionF:    7,
	catalog.AfinacionG:    5,
	catalog.AfinacionD:    10,
	catalog.AfinacionA:    3,
	catalog.AfinacionE:    8,
	catalog.AfinacionNone: 0,
}

// ValidKey reports whether key is one of Keys
func ValidKey(key string) bool {
	_, ok := pitchClass[strings.TrimSuffix(key, "m")]
	return ok && key != "m"
}

// RelativeTonality returns the written key for an instrument with the given
// afinación when the theme sounds in themeKey. Minor keys stay minor.
// Unknown inputs return themeKey unchanged.
func RelativeTonality(themeKey string, tuning catalog.InstrumentTuning) string {
	if themeKey == "" || tuning == "" {
		return themeKey
	}

	minor := strings.HasSuffix(themeKey, "m")
	pc, ok := pitchClass[strings.TrimSuffix(themeKey, "m")]
	if !ok {
		return themeKey
	}
	shift, ok := transposition[tuning]
	if !ok {
		return themeKey
	}

	key := pitchNames[(pc+shift)%12]
	if minor {
		key += "m"
	}
	return key
}

var bassClefNames = []string{
	"tuba", "fagot", "trombon", "bombardino", "contrabajo",
	"trombone", "bassoon", "euphonium", "bass",
}

// SuggestClef returns FA for bass-register instruments and SOL otherwise
func SuggestClef(instrumentName string) catalog.Clef {
	name := search.Normalize(instrumentName)
	for _, b := range bassClefNames {
		if strings.Contains(name, b) {
			return catalog.ClefFa
		}
	}
	return catalog.ClefSol
}

// DuetTuningFor picks the duet transposition an instrument reads from.
// Bass-clef instruments read the C_BASS part; tunings outside Bb, Eb and F
// read the concert C part.
func DuetTuningFor(inst catalog.Instrument) catalog.Tuning {
	if SuggestClef(inst.Name) == catalog.ClefFa {
		return catalog.TuningCBass
	}
	switch inst.Afinacion {
	case catalog.AfinacionBb:
		return catalog.TuningBb
	case catalog.AfinacionEb:
		return catalog.TuningEb
	case catalog.AfinacionF:
		return catalog.TuningF
	}
	return catalog.TuningC
}
