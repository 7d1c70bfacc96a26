package classify

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/franz/score-librarian/internal/catalog"
)

// FilePart is one file field of a multipart submission
type FilePart struct {
	Field string
	Blob  Blob
}

// Submission is a ready-to-send child record upload
type Submission struct {
	Method        string
	Path          string
	ChildModel    ChildModel
	VersionID     int
	Fields        url.Values
	Files         []FilePart
	Warnings      []string
	Discriminator string
}

// BuildSubmission validates p for a version of type t and turns it into the
// request for the matching child-model endpoint. A rejected payload yields a
// *ValidationError and no submission.
func BuildSubmission(t catalog.VersionType, versionID int, p Payload, existingChildCount int) (*Submission, error) {
	result := ValidateSubmission(t, p, existingChildCount)
	if versionID <= 0 {
		result.fail(FieldVersion, "version required")
	}
	if err := result.Err(t); err != nil {
		return nil, err
	}

	d := MustDescribe(t)

	sub := &Submission{
		Method:     http.MethodPost,
		Path:       d.Endpoint(),
		ChildModel: d.ChildModel,
		VersionID:  versionID,
		Fields:     url.Values{},
		Warnings:   result.Warnings,
	}
	if p.Mode == ModeUpdate {
		sub.Method = http.MethodPatch
		sub.Path = fmt.Sprintf("%s%d/", d.Endpoint(), p.ChildID)
	}

	sub.Fields.Set("version", strconv.Itoa(versionID))

	switch d.ChildModel {
	case ChildSheetMusic:
		sub.Fields.Set("instrument", strconv.Itoa(p.Instrument))
		sheetType, clef := p.SheetType, p.Clef
		if p.Mode == ModeCreate {
			if sheetType == "" {
				sheetType = catalog.SheetMelodiaPrincipal
			}
			if clef == "" {
				clef = catalog.ClefSol
			}
		}
		if sheetType != "" {
			sub.Fields.Set("type", string(sheetType))
		}
		if clef != "" {
			sub.Fields.Set("clef", string(clef))
		}
		sub.Discriminator = fmt.Sprintf("instrument=%d", p.Instrument)

	case ChildVersionFile:
		sub.Fields.Set("file_type", string(d.FileType))
		if d.RequiredField == FieldTuning {
			sub.Fields.Set("tuning", string(p.Tuning))
			sub.Discriminator = fmt.Sprintf("tuning=%s", p.Tuning)
		} else {
			sub.Fields.Set("instrument", strconv.Itoa(p.Instrument))
			sub.Discriminator = fmt.Sprintf("instrument=%d", p.Instrument)
		}
		if p.Description != "" {
			sub.Fields.Set("description", p.Description)
		}
		if p.Audio != nil {
			sub.Files = append(sub.Files, FilePart{Field: "audio", Blob: p.Audio})
		}
	}

	if p.File != nil {
		sub.Files = append([]FilePart{{Field: "file", Blob: p.File}}, sub.Files...)
	}

	return sub, nil
}
