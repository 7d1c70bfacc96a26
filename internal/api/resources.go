package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/classify"
	"github.com/franz/score-librarian/internal/util"
)

func idPath(base string, id int) string {
	return fmt.Sprintf("%s%d/", base, id)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, &request{method: http.MethodGet, path: path}, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, &request{method: http.MethodDelete, path: path}, nil)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	return c.do(ctx, &request{method: method, path: path, body: jsonBody(in)}, out)
}

func (c *Client) sendMultipart(ctx context.Context, method, path string, fields url.Values, files []classify.FilePart, out any) error {
	return c.do(ctx, &request{method: method, path: path, body: multipartBody(fields, files)}, out)
}

// Themes

// ThemeInput holds the writable fields of a theme; blobs are optional
type ThemeInput struct {
	Title       string
	Artist      string
	Tonalidad   string
	Description string
	Image       classify.Blob
	Audio       classify.Blob
}

func (in ThemeInput) form() (url.Values, []classify.FilePart) {
	fields := url.Values{}
	fields.Set("title", in.Title)
	fields.Set("artist", in.Artist)
	fields.Set("tonalidad", in.Tonalidad)
	fields.Set("description", in.Description)
	var files []classify.FilePart
	if in.Image != nil {
		files = append(files, classify.FilePart{Field: "image", Blob: in.Image})
	}
	if in.Audio != nil {
		files = append(files, classify.FilePart{Field: "audio", Blob: in.Audio})
	}
	return fields, files
}

// ListThemes returns every theme in the library
func (c *Client) ListThemes(ctx context.Context) ([]catalog.Theme, error) {
	return getList[catalog.Theme](ctx, c, "/themes/", nil)
}

// GetTheme fetches one theme
func (c *Client) GetTheme(ctx context.Context, id int) (*catalog.Theme, error) {
	var t catalog.Theme
	if err := c.get(ctx, idPath("/themes/", id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTheme creates a theme, uploading its image if one is given
func (c *Client) CreateTheme(ctx context.Context, in ThemeInput) (*catalog.Theme, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("theme title is required: %w", util.ErrValidation)
	}
	fields, files := in.form()
	var t catalog.Theme
	if err := c.sendMultipart(ctx, http.MethodPost, "/themes/", fields, files, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTheme replaces a theme (PUT); callers merge unchanged fields first
func (c *Client) UpdateTheme(ctx context.Context, id int, in ThemeInput) (*catalog.Theme, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("theme title is required: %w", util.ErrValidation)
	}
	fields, files := in.form()
	var t catalog.Theme
	if err := c.sendMultipart(ctx, http.MethodPut, idPath("/themes/", id), fields, files, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTheme deletes a theme
func (c *Client) DeleteTheme(ctx context.Context, id int) error {
	return c.delete(ctx, idPath("/themes/", id))
}

// Instruments

// InstrumentInput holds the writable fields of an instrument
type InstrumentInput struct {
	Name      string                   `json:"name"`
	Family    catalog.InstrumentFamily `json:"family"`
	Afinacion catalog.InstrumentTuning `json:"afinacion"`
}

// ListInstruments returns the instrument catalogue
func (c *Client) ListInstruments(ctx context.Context) ([]catalog.Instrument, error) {
	return getList[catalog.Instrument](ctx, c, "/instruments/", nil)
}

// CreateInstrument adds an instrument to the catalogue
func (c *Client) CreateInstrument(ctx context.Context, in InstrumentInput) (*catalog.Instrument, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("instrument name is required: %w", util.ErrValidation)
	}
	if in.Family != "" && !in.Family.Valid() {
		return nil, fmt.Errorf("unknown instrument family %q: %w", in.Family, util.ErrValidation)
	}
	if in.Afinacion == "" {
		in.Afinacion = catalog.AfinacionNone
	}
	if !in.Afinacion.Valid() {
		return nil, fmt.Errorf("unknown afinación %q: %w", in.Afinacion, util.ErrValidation)
	}
	var inst catalog.Instrument
	if err := c.sendJSON(ctx, http.MethodPost, "/instruments/", in, &inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

// DeleteInstrument removes an instrument
func (c *Client) DeleteInstrument(ctx context.Context, id int) error {
	return c.delete(ctx, idPath("/instruments/", id))
}

// Versions

// VersionInput holds the writable fields of a version
type VersionInput struct {
	Theme int
	Title string
	Type  catalog.VersionType
	Notes string
	Image classify.Blob
	Audio classify.Blob
	Mus   classify.Blob
}

func (in VersionInput) validate() error {
	if in.Theme <= 0 {
		return fmt.Errorf("theme is required: %w", util.ErrValidation)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("version type %q: %w", in.Type, classify.ErrUnknownVersionType)
	}
	return nil
}

func (in VersionInput) form() (url.Values, []classify.FilePart) {
	fields := url.Values{}
	fields.Set("theme", strconv.Itoa(in.Theme))
	fields.Set("title", in.Title)
	fields.Set("type", string(in.Type))
	fields.Set("notes", in.Notes)
	var files []classify.FilePart
	if in.Image != nil {
		files = append(files, classify.FilePart{Field: "image", Blob: in.Image})
	}
	if in.Audio != nil {
		files = append(files, classify.FilePart{Field: "audio_file", Blob: in.Audio})
	}
	if in.Mus != nil {
		files = append(files, classify.FilePart{Field: "mus_file", Blob: in.Mus})
	}
	return fields, files
}

// ListVersions lists versions, optionally only those of one theme
func (c *Client) ListVersions(ctx context.Context, themeID int) ([]catalog.Version, error) {
	var q url.Values
	if themeID > 0 {
		q = url.Values{"theme": {strconv.Itoa(themeID)}}
	}
	return getList[catalog.Version](ctx, c, "/versions/", q)
}

// GetVersion fetches one version
func (c *Client) GetVersion(ctx context.Context, id int) (*catalog.Version, error) {
	var v catalog.Version
	if err := c.get(ctx, idPath("/versions/", id), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateVersion creates a version after checking its type locally
func (c *Client) CreateVersion(ctx context.Context, in VersionInput) (*catalog.Version, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	fields, files := in.form()
	var v catalog.Version
	if err := c.sendMultipart(ctx, http.MethodPost, "/versions/", fields, files, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// UpdateVersion replaces a version (PUT)
func (c *Client) UpdateVersion(ctx context.Context, id int, in VersionInput) (*catalog.Version, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	fields, files := in.form()
	var v catalog.Version
	if err := c.sendMultipart(ctx, http.MethodPut, idPath("/versions/", id), fields, files, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// DeleteVersion deletes a version
func (c *Client) DeleteVersion(ctx context.Context, id int) error {
	return c.delete(ctx, idPath("/versions/", id))
}

// Sheet music

// ListSheetMusic returns the sheet-music parts of a STANDARD version
func (c *Client) ListSheetMusic(ctx context.Context, versionID int) ([]catalog.SheetMusic, error) {
	var q url.Values
	if versionID > 0 {
		q = url.Values{"version": {strconv.Itoa(versionID)}}
	}
	return getList[catalog.SheetMusic](ctx, c, "/sheet-music/", q)
}

// SheetMusicPatch changes sheet metadata without replacing the file
type SheetMusicPatch struct {
	Instrument *int              `json:"instrument,omitempty"`
	Type       catalog.SheetType `json:"type,omitempty"`
	Clef       catalog.Clef      `json:"clef,omitempty"`
}

// PatchSheetMusic changes fields of a sheet-music part without a new file
func (c *Client) PatchSheetMusic(ctx context.Context, id int, patch SheetMusicPatch) (*catalog.SheetMusic, error) {
	if patch.Type != "" && !patch.Type.Valid() {
		return nil, fmt.Errorf("unknown sheet type %q: %w", patch.Type, util.ErrValidation)
	}
	if patch.Clef != "" && !patch.Clef.Valid() {
		return nil, fmt.Errorf("unknown clef %q: %w", patch.Clef, util.ErrValidation)
	}
	var s catalog.SheetMusic
	if err := c.sendJSON(ctx, http.MethodPatch, idPath("/sheet-music/", id), patch, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSheetMusic deletes one sheet-music part
func (c *Client) DeleteSheetMusic(ctx context.Context, id int) error {
	return c.delete(ctx, idPath("/sheet-music/", id))
}

// Version files

// ListVersionFiles returns the files of a non-STANDARD version
func (c *Client) ListVersionFiles(ctx context.Context, versionID int) ([]catalog.VersionFile, error) {
	var q url.Values
	if versionID > 0 {
		q = url.Values{"version": {strconv.Itoa(versionID)}}
	}
	return getList[catalog.VersionFile](ctx, c, "/version-files/", q)
}

// DeleteVersionFile deletes one version file
func (c *Client) DeleteVersionFile(ctx context.Context, id int) error {
	return c.delete(ctx, idPath("/version-files/", id))
}

// DeleteChild removes a child record of either model
func (c *Client) DeleteChild(ctx context.Context, model classify.ChildModel, id int) error {
	if model == classify.ChildSheetMusic {
		return c.DeleteSheetMusic(ctx, id)
	}
	return c.DeleteVersionFile(ctx, id)
}

// Submit sends a child upload built by classify.BuildSubmission and decodes
// the created or updated record into the matching SubmitResult field.
func (c *Client) Submit(ctx context.Context, sub *classify.Submission) (*SubmitResult, error) {
	if sub == nil {
		return nil, fmt.Errorf("nil submission: %w", util.ErrValidation)
	}

	res := &SubmitResult{ChildModel: sub.ChildModel}
	var out any = &res.VersionFile
	if sub.ChildModel == classify.ChildSheetMusic {
		out = &res.SheetMusic
	}
	if err := c.sendMultipart(ctx, sub.Method, sub.Path, sub.Fields, sub.Files, out); err != nil {
		return nil, err
	}
	return res, nil
}

// SubmitResult is the record the backend returned for a submission
type SubmitResult struct {
	ChildModel  classify.ChildModel
	SheetMusic  catalog.SheetMusic
	VersionFile catalog.VersionFile
}

// ID returns the id of the created or updated child
func (r *SubmitResult) ID() int {
	if r.ChildModel == classify.ChildSheetMusic {
		return r.SheetMusic.ID
	}
	return r.VersionFile.ID
}

// Locations

// LocationInput holds the writable fields of a location
type LocationInput struct {
	Name         string `json:"name,omitempty"`
	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Country      string `json:"country,omitempty"`
	Capacity     *int   `json:"capacity,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	Website      string `json:"website,omitempty"`
	GoogleURL    string `json:"google_maps_url,omitempty"`
	Notes        string `json:"notes,omitempty"`
	IsActive     *bool  `json:"is_active,omitempty"`
}

// ListLocations lists locations; activeOnly hides deactivated venues
func (c *Client) ListLocations(ctx context.Context, activeOnly bool) ([]catalog.Location, error) {
	q := url.Values{}
	if activeOnly {
		q.Set("is_active", "true")
	}
	locs, err := getList[catalog.Location](ctx, c, c.eventsPath("locations/"), q)
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return locs, nil
	}
	active := locs[:0]
	for _, l := range locs {
		if l.IsActive {
			active = append(active, l)
		}
	}
	return active, nil
}

// CreateLocation creates a venue
func (c *Client) CreateLocation(ctx context.Context, in LocationInput) (*catalog.Location, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("location name is required: %w", util.ErrValidation)
	}
	var l catalog.Location
	if err := c.sendJSON(ctx, http.MethodPost, c.eventsPath("locations/"), in, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateLocation patches a venue with the non-empty fields of in
func (c *Client) UpdateLocation(ctx context.Context, id int, in LocationInput) (*catalog.Location, error) {
	var l catalog.Location
	if err := c.sendJSON(ctx, http.MethodPatch, idPath(c.eventsPath("locations/"), id), in, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteLocation deletes a venue
func (c *Client) DeleteLocation(ctx context.Context, id int) error {
	return c.delete(ctx, idPath(c.eventsPath("locations/"), id))
}

// Repertoires

// RepertoireInput holds the writable fields of a repertoire
type RepertoireInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// RepertoireEntry is one member written back through the repertoire serializer
type RepertoireEntry struct {
	VersionID int    `json:"version_id"`
	Order     int    `json:"order"`
	Notes     string `json:"notes,omitempty"`
}

// AddVersionsResult carries per-version failures of a partial add
type AddVersionsResult struct {
	Errors []string `json:"errors"`
}

// ListRepertoires returns all repertoires
func (c *Client) ListRepertoires(ctx context.Context) ([]catalog.Repertoire, error) {
	return getList[catalog.Repertoire](ctx, c, c.eventsPath("repertoires/"), nil)
}

// GetRepertoire fetches a repertoire with its ordered versions
func (c *Client) GetRepertoire(ctx context.Context, id int) (*catalog.Repertoire, error) {
	var r catalog.Repertoire
	if err := c.get(ctx, idPath(c.eventsPath("repertoires/"), id), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRepertoire creates an empty repertoire
func (c *Client) CreateRepertoire(ctx context.Context, in RepertoireInput) (*catalog.Repertoire, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("repertoire name is required: %w", util.ErrValidation)
	}
	var r catalog.Repertoire
	if err := c.sendJSON(ctx, http.MethodPost, c.eventsPath("repertoires/"), in, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateRepertoire patches name, description or active flag
func (c *Client) UpdateRepertoire(ctx context.Context, id int, in RepertoireInput) (*catalog.Repertoire, error) {
	var r catalog.Repertoire
	if err := c.sendJSON(ctx, http.MethodPatch, idPath(c.eventsPath("repertoires/"), id), in, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRepertoire deletes a repertoire
func (c *Client) DeleteRepertoire(ctx context.Context, id int) error {
	return c.delete(ctx, idPath(c.eventsPath("repertoires/"), id))
}

// AddVersions adds versions to a repertoire. The backend may accept some and
// reject others; rejected ones are reported in the result, not as an error.
func (c *Client) AddVersions(ctx context.Context, repertoireID int, versionIDs []int) (*AddVersionsResult, error) {
	if len(versionIDs) == 0 {
		return &AddVersionsResult{}, nil
	}
	body := map[string][]int{"version_ids": versionIDs}
	var res AddVersionsResult
	path := idPath(c.eventsPath("repertoires/"), repertoireID) + "add_versions/"
	if err := c.sendJSON(ctx, http.MethodPost, path, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SetRepertoireVersions rewrites the whole member list, which is how the
// repertoire serializer removes or reorders versions
func (c *Client) SetRepertoireVersions(ctx context.Context, repertoireID int, entries []RepertoireEntry) (*catalog.Repertoire, error) {
	if entries == nil {
		entries = []RepertoireEntry{}
	}
	body := map[string][]RepertoireEntry{"versions": entries}
	var r catalog.Repertoire
	if err := c.sendJSON(ctx, http.MethodPatch, idPath(c.eventsPath("repertoires/"), repertoireID), body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Events

// ListEvents lists events; status filters when non-empty
func (c *Client) ListEvents(ctx context.Context, status catalog.EventStatus) ([]catalog.Event, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status": {string(status)}}
	}
	return getList[catalog.Event](ctx, c, c.eventsPath("events/"), q)
}

// GetEvent fetches one event
func (c *Client) GetEvent(ctx context.Context, id int) (*catalog.Event, error) {
	var e catalog.Event
	if err := c.get(ctx, idPath(c.eventsPath("events/"), id), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEvent validates in locally and creates the event
func (c *Client) CreateEvent(ctx context.Context, in catalog.EventInput) (*catalog.Event, error) {
	if err := in.Validate(true); err != nil {
		return nil, fmt.Errorf("%v: %w", err, util.ErrValidation)
	}
	var e catalog.Event
	if err := c.sendJSON(ctx, http.MethodPost, c.eventsPath("events/"), in, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateEvent patches an event
func (c *Client) UpdateEvent(ctx context.Context, id int, in catalog.EventInput) (*catalog.Event, error) {
	if err := in.Validate(false); err != nil {
		return nil, fmt.Errorf("%v: %w", err, util.ErrValidation)
	}
	var e catalog.Event
	if err := c.sendJSON(ctx, http.MethodPatch, idPath(c.eventsPath("events/"), id), in, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteEvent deletes an event
func (c *Client) DeleteEvent(ctx context.Context, id int) error {
	return c.delete(ctx, idPath(c.eventsPath("events/"), id))
}

// EventAction is a detail action on an event
type EventAction string

const (
	ActionDuplicate EventAction = "duplicate"
	ActionCancel    EventAction = "cancel"
	ActionComplete  EventAction = "complete"
)

// EventAction runs duplicate, cancel or complete on an event and returns the
// resulting event (the new copy for duplicate)
func (c *Client) EventAction(ctx context.Context, id int, action EventAction) (*catalog.Event, error) {
	switch action {
	case ActionDuplicate, ActionCancel, ActionComplete:
	default:
		return nil, fmt.Errorf("event action %q: %w", action, util.ErrUnsupported)
	}
	var e catalog.Event
	path := idPath(c.eventsPath("events/"), id) + string(action) + "/"
	if err := c.do(ctx, &request{method: http.MethodPost, path: path}, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
