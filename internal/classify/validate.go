package classify

import (
	"fmt"
	"io"
	"strings"

	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/util"
)

// Blob is an uploadable file
type Blob interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// Mode distinguishes a new upload from a metadata-only edit
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

// Payload is a proposed child-file submission. Zero values mean "absent".
type Payload struct {
	Mode        Mode
	ChildID     int // record being edited, ModeUpdate only
	Instrument  int
	Tuning      catalog.Tuning
	SheetType   catalog.SheetType
	Clef        catalog.Clef
	File        Blob
	Audio       Blob
	Description string
}

// FieldError is a user-correctable problem with one field
type FieldError struct {
	Field   Field
	Message string
}

func (e FieldError) String() string {
	return e.Message
}

// ValidationResult collects blocking errors and advisory warnings
type ValidationResult struct {
	Errors   []FieldError
	Warnings []string
}

// OK reports whether the submission may be sent
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// HasError reports whether field has a blocking error
func (r ValidationResult) HasError(field Field) bool {
	for _, e := range r.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Err returns a *ValidationError, or nil when the result is OK
func (r ValidationResult) Err(t catalog.VersionType) error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Type: t, Result: r}
}

func (r *ValidationResult) fail(field Field, format string, args ...interface{}) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidationError is returned when a submission is rejected locally.
// It wraps util.ErrValidation.
type ValidationError struct {
	Type   catalog.VersionType
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Result.Errors))
	for i, fe := range e.Result.Errors {
		msgs[i] = fe.Message
	}
	return fmt.Sprintf("invalid %s upload: %s", e.Type.Label(), strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return util.ErrValidation
}

// ValidateSubmission checks p against the rules for t. existingChildCount is
// the number of child records the version has before this submission.
//
// Exceeding the maximum instrument count blocks the upload. A set that is
// still below the minimum only adds a warning, since sets are assembled over
// several uploads.
func ValidateSubmission(t catalog.VersionType, p Payload, existingChildCount int) ValidationResult {
	var r ValidationResult

	d, err := DescribeType(t)
	if err != nil {
		r.fail(FieldVersion, "unknown version type %q", string(t))
		return r
	}

	if existingChildCount < 0 {
		existingChildCount = 0
	}

	switch d.RequiredField {
	case FieldInstrument:
		if p.Instrument == 0 {
			r.fail(FieldInstrument, "instrument required")
		} else if p.Instrument < 0 {
			r.fail(FieldInstrument, "instrument must be a positive id, got %d", p.Instrument)
		}
		if p.Tuning != "" {
			r.fail(FieldTuning, "tuning does not apply to %s versions", t.Label())
		}
	case FieldTuning:
		if p.Tuning == "" {
			r.fail(FieldTuning, "tuning required")
		} else if !d.Allows(string(p.Tuning)) {
			r.fail(FieldTuning, "tuning %q is not one of %s", string(p.Tuning), strings.Join(d.AllowedValues, ", "))
		}
		if p.Instrument != 0 {
			r.fail(FieldInstrument, "instrument does not apply to %s versions", t.Label())
		}
	}

	if d.ChildModel == ChildSheetMusic {
		if p.SheetType != "" && !p.SheetType.Valid() {
			r.fail(FieldSheetType, "unknown part type %q", string(p.SheetType))
		}
		if p.Clef != "" && !p.Clef.Valid() {
			r.fail(FieldClef, "unknown clef %q", string(p.Clef))
		}
		if p.Audio != nil {
			r.fail(FieldAudio, "sheet music does not take an audio file")
		}
	} else if p.SheetType != "" || p.Clef != "" {
		r.fail(FieldSheetType, "part type and clef only apply to %s versions", catalog.VersionStandard.Label())
	}

	switch p.Mode {
	case ModeCreate:
		if p.File == nil {
			r.fail(FieldFile, "file required")
		}
		if d.HasMax() && existingChildCount+1 > d.MaxCount {
			r.fail(FieldInstrument, "instrument count would exceed maximum of %d (already %d)", d.MaxCount, existingChildCount)
		}
		if d.HasMin() && existingChildCount < d.MinCount {
			r.warn("under minimum of %d instruments (%d uploaded so far)", d.MinCount, existingChildCount)
		}
	case ModeUpdate:
		if p.ChildID <= 0 {
			r.fail(FieldChild, "record id required for an update")
		}
	}

	return r
}
