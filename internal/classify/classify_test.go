package classify

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/util"
)

type memBlob struct {
	name string
	data string
}

func (b memBlob) Name() string { return b.name }
func (b memBlob) Size() int64  { return int64(len(b.data)) }
func (b memBlob) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(b.data)), nil
}

var pdf = memBlob{name: "part.pdf", data: "%PDF-1.7"}

func TestDescribeType_RequiredField(t *testing.T) {
	tests := []struct {
		vt       catalog.VersionType
		model    ChildModel
		field    Field
		fileType catalog.FileType
		min, max int
	}{
		{catalog.VersionStandard, ChildSheetMusic, FieldInstrument, "", 0, 0},
		{catalog.VersionDueto, ChildVersionFile, FieldTuning, catalog.FileDuetoTransposition, 0, 0},
		{catalog.VersionGrupoReducido, ChildVersionFile, FieldInstrument, catalog.FileStandardScore, 2, 5},
		{catalog.VersionEnsamble, ChildVersionFile, FieldInstrument, catalog.FileEnsambleInstrument, 6, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.vt), func(t *testing.T) {
			d, err := DescribeType(tt.vt)
			if err != nil {
				t.Fatalf("DescribeType(%s) failed: %v", tt.vt, err)
			}
			if d.RequiredField != tt.field {
				t.Errorf("Expected required field %s, got %s", tt.field, d.RequiredField)
			}
			if d.ChildModel != tt.model {
				t.Errorf("Expected child model %s, got %s", tt.model, d.ChildModel)
			}
			if d.FileType != tt.fileType {
				t.Errorf("Expected file type %q, got %q", tt.fileType, d.FileType)
			}
			if d.MinCount != tt.min || d.MaxCount != tt.max {
				t.Errorf("Expected bounds %d-%d, got %d-%d", tt.min, tt.max, d.MinCount, d.MaxCount)
			}
		})
	}
}

func TestDescribeType_DuetoAllowedValues(t *testing.T) {
	d := MustDescribe(catalog.VersionDueto)
	want := []string{"Bb", "Eb", "F", "C", "C_BASS"}
	if !reflect.DeepEqual(d.AllowedValues, want) {
		t.Errorf("Expected allowed values %v, got %v", want, d.AllowedValues)
	}
}

func TestDescribeType_Unknown(t *testing.T) {
	_, err := DescribeType("QUARTET")
	if err == nil {
		t.Fatal("Expected error for unknown type")
	}
	if !errors.Is(err, ErrUnknownVersionType) {
		t.Errorf("Expected ErrUnknownVersionType, got %v", err)
	}
	if !errors.Is(err, util.ErrUnsupported) {
		t.Errorf("Expected error to wrap util.ErrUnsupported, got %v", err)
	}
}

func TestDescribeType_Idempotent(t *testing.T) {
	for _, vt := range catalog.VersionTypes {
		first, _ := DescribeType(vt)
		second, _ := DescribeType(vt)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("DescribeType(%s) not idempotent: %+v vs %+v", vt, first, second)
		}
	}

	// Mutating a returned descriptor must not leak into later calls
	d, _ := DescribeType(catalog.VersionDueto)
	d.AllowedValues[0] = "Xb"
	again, _ := DescribeType(catalog.VersionDueto)
	if again.AllowedValues[0] != "Bb" {
		t.Errorf("Descriptor table was mutated through a returned copy: %v", again.AllowedValues)
	}
}

func TestValidateSubmission(t *testing.T) {
	tests := []struct {
		name         string
		vt           catalog.VersionType
		payload      Payload
		existing     int
		ok           bool
		errorField   Field
		wantWarnings int
	}{
		{
			name:    "dueto with valid tuning",
			vt:      catalog.VersionDueto,
			payload: Payload{Tuning: catalog.TuningBb, File: pdf},
			ok:      true,
		},
		{
			name:       "dueto with unknown tuning",
			vt:         catalog.VersionDueto,
			payload:    Payload{Tuning: "Xb", File: pdf},
			errorField: FieldTuning,
		},
		{
			name:       "dueto without tuning",
			vt:         catalog.VersionDueto,
			payload:    Payload{File: pdf},
			errorField: FieldTuning,
		},
		{
			name:       "grupo reducido over maximum",
			vt:         catalog.VersionGrupoReducido,
			payload:    Payload{Instrument: 3, File: pdf},
			existing:   5,
			errorField: FieldInstrument,
		},
		{
			name:     "grupo reducido reaching maximum",
			vt:       catalog.VersionGrupoReducido,
			payload:  Payload{Instrument: 3, File: pdf},
			existing: 4,
			ok:       true,
		},
		{
			name:         "grupo reducido first upload is advisory only",
			vt:           catalog.VersionGrupoReducido,
			payload:      Payload{Instrument: 3, File: pdf},
			existing:     0,
			ok:           true,
			wantWarnings: 1,
		},
		{
			name:         "ensamble under minimum",
			vt:           catalog.VersionEnsamble,
			payload:      Payload{Instrument: 7, File: pdf},
			existing:     5,
			ok:           true,
			wantWarnings: 1,
		},
		{
			name:         "ensamble well under minimum",
			vt:           catalog.VersionEnsamble,
			payload:      Payload{Instrument: 7, File: pdf},
			existing:     3,
			ok:           true,
			wantWarnings: 1,
		},
		{
			name:     "ensamble is unbounded above",
			vt:       catalog.VersionEnsamble,
			payload:  Payload{Instrument: 7, File: pdf},
			existing: 40,
			ok:       true,
		},
		{
			name:       "standard without instrument",
			vt:         catalog.VersionStandard,
			payload:    Payload{File: pdf},
			errorField: FieldInstrument,
		},
		{
			name:       "create without file",
			vt:         catalog.VersionStandard,
			payload:    Payload{Instrument: 1},
			errorField: FieldFile,
		},
		{
			name:    "metadata update without file",
			vt:      catalog.VersionStandard,
			payload: Payload{Mode: ModeUpdate, ChildID: 9, Instrument: 1, Clef: catalog.ClefFa},
			ok:      true,
		},
		{
			name:       "update without record id",
			vt:         catalog.VersionDueto,
			payload:    Payload{Mode: ModeUpdate, Tuning: catalog.TuningF},
			errorField: FieldChild,
		},
		{
			name:       "standard with bad clef",
			vt:         catalog.VersionStandard,
			payload:    Payload{Instrument: 1, Clef: "DO", File: pdf},
			errorField: FieldClef,
		},
		{
			name:       "tuning on an instrument type",
			vt:         catalog.VersionEnsamble,
			payload:    Payload{Instrument: 2, Tuning: catalog.TuningEb, File: pdf},
			existing:   6,
			errorField: FieldTuning,
		},
		{
			name:       "unknown version type",
			vt:         "TRIO",
			payload:    Payload{Instrument: 2, File: pdf},
			errorField: FieldVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ValidateSubmission(tt.vt, tt.payload, tt.existing)
			if r.OK() != tt.ok {
				t.Fatalf("Expected OK()=%v, got %v (errors: %v)", tt.ok, r.OK(), r.Errors)
			}
			if !tt.ok && !r.HasError(tt.errorField) {
				t.Errorf("Expected error on field %s, got %v", tt.errorField, r.Errors)
			}
			if tt.ok && len(r.Warnings) != tt.wantWarnings {
				t.Errorf("Expected %d warnings, got %v", tt.wantWarnings, r.Warnings)
			}
		})
	}
}

func TestValidateSubmission_EnsambleAdvisoryMessage(t *testing.T) {
	r := ValidateSubmission(catalog.VersionEnsamble, Payload{Instrument: 7, File: pdf}, 5)
	if !r.OK() {
		t.Fatalf("Expected OK, got errors %v", r.Errors)
	}
	if len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0], "under minimum of 6") {
		t.Errorf("Expected 'under minimum of 6' advisory, got %v", r.Warnings)
	}
}

func TestValidateSubmission_StandardMissingInstrumentMessage(t *testing.T) {
	r := ValidateSubmission(catalog.VersionStandard, Payload{File: pdf}, 0)
	if len(r.Errors) != 1 || r.Errors[0].Message != "instrument required" {
		t.Errorf("Expected single 'instrument required' error, got %v", r.Errors)
	}

	err := r.Err(catalog.VersionStandard)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	if !errors.Is(err, util.ErrValidation) {
		t.Error("Expected ValidationError to wrap util.ErrValidation")
	}
	if !strings.Contains(err.Error(), "instrument required") {
		t.Errorf("Expected message to mention the field error, got %q", err.Error())
	}
}

func TestDedupeAgainstExisting(t *testing.T) {
	tests := []struct {
		name       string
		candidates []int
		present    []int
		addable    []int
		already    []int
	}{
		{"basic", []int{1, 2, 3}, []int{2}, []int{1, 3}, []int{2}},
		{"nothing present", []int{4, 5}, nil, []int{4, 5}, []int{}},
		{"all present", []int{1, 2}, []int{2, 1}, []int{}, []int{1, 2}},
		{"repeated candidates", []int{3, 3, 1, 3}, []int{1}, []int{3}, []int{1}},
		{"empty", nil, []int{1}, []int{}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DedupeAgainstExisting(tt.candidates, tt.present)
			if !reflect.DeepEqual(p.Addable, tt.addable) {
				t.Errorf("Expected addable %v, got %v", tt.addable, p.Addable)
			}
			if !reflect.DeepEqual(p.AlreadyAdded, tt.already) {
				t.Errorf("Expected already added %v, got %v", tt.already, p.AlreadyAdded)
			}
		})
	}
}

func TestBuildSubmission_Dueto(t *testing.T) {
	audio := memBlob{name: "bb.mp3", data: "ID3"}
	sub, err := BuildSubmission(catalog.VersionDueto, 12, Payload{
		Tuning:      catalog.TuningEb,
		File:        pdf,
		Audio:       audio,
		Description: "alto sax part",
	}, 1)
	if err != nil {
		t.Fatalf("BuildSubmission failed: %v", err)
	}

	if sub.Method != http.MethodPost || sub.Path != "/version-files/" {
		t.Errorf("Expected POST /version-files/, got %s %s", sub.Method, sub.Path)
	}
	if got := sub.Fields.Get("file_type"); got != "DUETO_TRANSPOSITION" {
		t.Errorf("Expected file_type DUETO_TRANSPOSITION, got %q", got)
	}
	if got := sub.Fields.Get("tuning"); got != "Eb" {
		t.Errorf("Expected tuning Eb, got %q", got)
	}
	if sub.Fields.Has("instrument") {
		t.Error("Dueto submission must not carry an instrument field")
	}
	if got := sub.Fields.Get("version"); got != "12" {
		t.Errorf("Expected version 12, got %q", got)
	}
	if len(sub.Files) != 2 || sub.Files[0].Field != "file" || sub.Files[1].Field != "audio" {
		t.Errorf("Expected file and audio parts, got %+v", sub.Files)
	}
}

func TestBuildSubmission_StandardDefaults(t *testing.T) {
	sub, err := BuildSubmission(catalog.VersionStandard, 3, Payload{Instrument: 8, File: pdf}, 0)
	if err != nil {
		t.Fatalf("BuildSubmission failed: %v", err)
	}

	if sub.Path != "/sheet-music/" || sub.ChildModel != ChildSheetMusic {
		t.Errorf("Expected sheet-music submission, got %s (%s)", sub.Path, sub.ChildModel)
	}
	if sub.Fields.Get("type") != "MELODIA_PRINCIPAL" || sub.Fields.Get("clef") != "SOL" {
		t.Errorf("Expected default part type and clef, got %v", sub.Fields)
	}
	if sub.Fields.Get("instrument") != "8" {
		t.Errorf("Expected instrument 8, got %q", sub.Fields.Get("instrument"))
	}
}

func TestBuildSubmission_Update(t *testing.T) {
	sub, err := BuildSubmission(catalog.VersionEnsamble, 3, Payload{
		Mode:        ModeUpdate,
		ChildID:     44,
		Instrument:  5,
		Description: "revised",
	}, 10)
	if err != nil {
		t.Fatalf("BuildSubmission failed: %v", err)
	}
	if sub.Method != http.MethodPatch || sub.Path != "/version-files/44/" {
		t.Errorf("Expected PATCH /version-files/44/, got %s %s", sub.Method, sub.Path)
	}
	if len(sub.Files) != 0 {
		t.Errorf("Expected no file parts for metadata update, got %d", len(sub.Files))
	}
}

func TestBuildSubmission_Rejected(t *testing.T) {
	sub, err := BuildSubmission(catalog.VersionGrupoReducido, 3, Payload{Instrument: 3, File: pdf}, 5)
	if err == nil {
		t.Fatal("Expected quota violation")
	}
	if sub != nil {
		t.Error("Expected no submission when validation fails")
	}

	_, err = BuildSubmission(catalog.VersionDueto, 0, Payload{Tuning: catalog.TuningC, File: pdf}, 0)
	var verr *ValidationError
	if !errors.As(err, &verr) || !verr.Result.HasError(FieldVersion) {
		t.Errorf("Expected version field error, got %v", err)
	}
}

func TestQuotaStatus(t *testing.T) {
	tests := []struct {
		vt    catalog.VersionType
		count int
		state QuotaState
		full  bool
	}{
		{catalog.VersionStandard, 30, QuotaUnbounded, false},
		{catalog.VersionDueto, 5, QuotaUnbounded, false},
		{catalog.VersionGrupoReducido, 1, QuotaUnderMinimum, false},
		{catalog.VersionGrupoReducido, 2, QuotaComplete, false},
		{catalog.VersionGrupoReducido, 5, QuotaComplete, true},
		{catalog.VersionGrupoReducido, 6, QuotaOverMaximum, true},
		{catalog.VersionEnsamble, 5, QuotaUnderMinimum, false},
		{catalog.VersionEnsamble, 12, QuotaComplete, false},
	}

	for _, tt := range tests {
		q, err := QuotaStatus(tt.vt, tt.count)
		if err != nil {
			t.Fatalf("QuotaStatus(%s, %d) failed: %v", tt.vt, tt.count, err)
		}
		if q.State != tt.state {
			t.Errorf("QuotaStatus(%s, %d) = %s, expected %s", tt.vt, tt.count, q.State, tt.state)
		}
		if q.Full() != tt.full {
			t.Errorf("QuotaStatus(%s, %d).Full() = %v, expected %v", tt.vt, tt.count, q.Full(), tt.full)
		}
	}
}

func TestTypeForFileType(t *testing.T) {
	vt, ok := TypeForFileType(catalog.FileEnsambleInstrument)
	if !ok || vt != catalog.VersionEnsamble {
		t.Errorf("Expected ENSAMBLE, got %q (%v)", vt, ok)
	}
	if _, ok := TypeForFileType(""); ok {
		t.Error("Empty file type must not resolve")
	}
}
