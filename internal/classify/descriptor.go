// Package classify maps a version type to the shape of its child file records
// and validates proposed uploads against that shape.
//
// Everything here is a pure function over caller-supplied state. Persistence
// happens through internal/api.
package classify

import (
	"fmt"

	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/util"
)

// ChildModel identifies which backend collection stores a version's files
type ChildModel string

const (
	// ChildSheetMusic is the per-instrument sheet-music record (instrument, part type, clef)
	ChildSheetMusic ChildModel = "sheet-music"
	// ChildVersionFile is the generic version-file record tagged with a FileType
	ChildVersionFile ChildModel = "version-file"
)

// Field names a discriminator field of a child record
type Field string

const (
	FieldInstrument Field = "instrument"
	FieldTuning     Field = "tuning"
	FieldFile       Field = "file"
	FieldAudio      Field = "audio"
	FieldSheetType  Field = "type"
	FieldClef       Field = "clef"
	FieldVersion    Field = "version"
	FieldChild      Field = "id"
)

// ErrUnknownVersionType is returned for a type tag outside the rules table
var ErrUnknownVersionType = fmt.Errorf("unknown version type: %w", util.ErrUnsupported)

// TypeDescriptor describes the child-record model of a version type.
// MinCount and MaxCount are zero when the type has no such bound.
type TypeDescriptor struct {
	Type          catalog.VersionType
	ChildModel    ChildModel
	FileType      catalog.FileType
	RequiredField Field
	AllowedValues []string
	MinCount      int
	MaxCount      int
}

// HasMin reports whether the type has a lower instrument-count bound
func (d TypeDescriptor) HasMin() bool { return d.MinCount > 0 }

// HasMax reports whether the type has an upper instrument-count bound
func (d TypeDescriptor) HasMax() bool { return d.MaxCount > 0 }

// Endpoint returns the collection path uploads for this type go to
func (d TypeDescriptor) Endpoint() string {
	if d.ChildModel == ChildSheetMusic {
		return "/sheet-music/"
	}
	return "/version-files/"
}

// Allows reports whether v is one of the allowed discriminator values.
// Types without a fixed value set allow anything.
func (d TypeDescriptor) Allows(v string) bool {
	if len(d.AllowedValues) == 0 {
		return true
	}
	for _, a := range d.AllowedValues {
		if a == v {
			return true
		}
	}
	return false
}

func tuningValues() []string {
	values := make([]string, len(catalog.Tunings))
	for i, t := range catalog.Tunings {
		values[i] = string(t)
	}
	return values
}

var rules = map[catalog.VersionType]TypeDescriptor{
	catalog.VersionStandard: {
		Type:          catalog.VersionStandard,
		ChildModel:    ChildSheetMusic,
		RequiredField: FieldInstrument,
	},
	catalog.VersionDueto: {
		Type:          catalog.VersionDueto,
		ChildModel:    ChildVersionFile,
		FileType:      catalog.FileDuetoTransposition,
		RequiredField: FieldTuning,
		AllowedValues: tuningValues(),
	},
	catalog.VersionGrupoReducido: {
		Type:          catalog.VersionGrupoReducido,
		ChildModel:    ChildVersionFile,
		FileType:      catalog.FileStandardScore,
		RequiredField: FieldInstrument,
		MinCount:      2,
		MaxCount:      5,
	},
	catalog.VersionEnsamble: {
		Type:          catalog.VersionEnsamble,
		ChildModel:    ChildVersionFile,
		FileType:      catalog.FileEnsambleInstrument,
		RequiredField: FieldInstrument,
		MinCount:      6,
	},
}

// DescribeType returns the descriptor for t. The returned value is a copy;
// mutating it does not affect later calls.
func DescribeType(t catalog.VersionType) (TypeDescriptor, error) {
	d, ok := rules[t]
	if !ok {
		return TypeDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownVersionType, string(t))
	}
	if d.AllowedValues != nil {
		d.AllowedValues = append([]string(nil), d.AllowedValues...)
	}
	return d, nil
}

// MustDescribe is DescribeType for callers that already validated t
func MustDescribe(t catalog.VersionType) TypeDescriptor {
	d, err := DescribeType(t)
	if err != nil {
		panic(err)
	}
	return d
}

// TypeForFileType returns the version type whose files carry ft
func TypeForFileType(ft catalog.FileType) (catalog.VersionType, bool) {
	for _, t := range catalog.VersionTypes {
		if rules[t].FileType == ft && ft != "" {
			return t, true
		}
	}
	return "", false
}
