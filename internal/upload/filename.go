package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/classify"
	"github.com/franz/score-librarian/internal/search"
	"github.com/franz/score-librarian/internal/util"
)

// Match is the discriminator a file name resolved to
type Match struct {
	Tuning     catalog.Tuning
	Instrument *catalog.Instrument
}

// Candidate is a sheet found in a folder with its optional audio sibling
type Candidate struct {
	Path      string
	AudioPath string
}

// Stem returns the file name without directory and extension
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseTuning maps names like "Bb", "bb", "C_BASS", "c-bass" or "C bass" to
// a duet tuning
func ParseTuning(s string) (catalog.Tuning, bool) {
	key := strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' || r == '.' {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if strings.EqualFold(key, "CBASS") {
		key = "C_BASS"
	}
	for _, t := range catalog.Tunings {
		if strings.EqualFold(key, string(t)) {
			return t, true
		}
	}
	return "", false
}

// ParseFilename resolves the discriminator for a file dropped for a version
// of type t. Duet files are named after their tuning (Bb.pdf); all other
// types are named after the instrument, matched without regard to accents
// or case. A leading track number ("03 Trompeta.pdf") is ignored.
func ParseFilename(path string, t catalog.VersionType, instruments []catalog.Instrument) (Match, error) {
	d, err := classify.DescribeType(t)
	if err != nil {
		return Match{}, err
	}
	stem := Stem(path)

	if d.RequiredField == classify.FieldTuning {
		tuning, ok := ParseTuning(stem)
		if !ok {
			return Match{}, fmt.Errorf("%s: name is not a tuning (%s): %w",
				filepath.Base(path), strings.Join(d.AllowedValues, ", "), util.ErrValidation)
		}
		return Match{Tuning: tuning}, nil
	}

	inst, err := matchInstrument(stem, instruments)
	if err != nil {
		return Match{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return Match{Instrument: inst}, nil
}

func matchInstrument(stem string, instruments []catalog.Instrument) (*catalog.Instrument, error) {
	name := search.Normalize(strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, stem))
	name = strings.TrimLeftFunc(name, func(r rune) bool { return unicode.IsDigit(r) || r == ' ' || r == '.' })

	if name == "" {
		return nil, fmt.Errorf("empty instrument name: %w", util.ErrValidation)
	}

	// exact match wins; otherwise the longest instrument name the stem starts with
	var best *catalog.Instrument
	bestLen := 0
	ambiguous := false
	for i := range instruments {
		inst := &instruments[i]
		n := search.Normalize(inst.Name)
		if n == "" {
			continue
		}
		if n == name {
			return inst, nil
		}
		if strings.HasPrefix(name, n+" ") {
			switch {
			case len(n) > bestLen:
				best, bestLen, ambiguous = inst, len(n), false
			case len(n) == bestLen:
				ambiguous = true
			}
		}
	}

	if best == nil {
		return nil, fmt.Errorf("no instrument named %q: %w", name, util.ErrNotFound)
	}
	if ambiguous {
		return nil, fmt.Errorf("instrument name %q is ambiguous: %w", name, util.ErrValidation)
	}
	return best, nil
}

// Collect lists the PDFs directly inside dir, pairing each with an audio file
// of the same stem when one exists. Results are sorted by path.
func Collect(dir string) ([]Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	audio := map[string]string{}
	var pdfs []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		switch {
		case IsPDFName(e.Name()):
			pdfs = append(pdfs, filepath.Join(dir, e.Name()))
		case IsAudioName(e.Name()):
			audio[strings.ToLower(Stem(e.Name()))] = filepath.Join(dir, e.Name())
		}
	}

	sort.Strings(pdfs)
	candidates := make([]Candidate, 0, len(pdfs))
	for _, p := range pdfs {
		candidates = append(candidates, Candidate{Path: p, AudioPath: audio[strings.ToLower(Stem(p))]})
	}
	return candidates, nil
}

// AudioSibling returns the audio file next to path sharing its stem, if any
func AudioSibling(path string) string {
	dir := filepath.Dir(path)
	stem := Stem(path)
	for _, ext := range AudioExtensions {
		for _, e := range []string{ext, strings.ToUpper(ext)} {
			p := filepath.Join(dir, stem+e)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p
			}
		}
	}
	return ""
}
