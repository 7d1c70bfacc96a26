package catalog

import (
	"fmt"
	"time"
)

// Theme is a musical piece, the top-level catalog entry
type Theme struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Image       string    `json:"image,omitempty"`
	Tonalidad   string    `json:"tonalidad"`
	Description string    `json:"description"`
	Audio       string    `json:"audio,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Versions    []Version `json:"versions,omitempty"`
}

// Instrument is a band instrument with its family and afinación
type Instrument struct {
	ID        int              `json:"id"`
	Name      string           `json:"name"`
	Family    InstrumentFamily `json:"family"`
	Afinacion InstrumentTuning `json:"afinacion"`
	CreatedAt time.Time        `json:"created_at"`
}

// Version is one arrangement of a Theme
type Version struct {
	ID                int           `json:"id"`
	Theme             int           `json:"theme"`
	ThemeTitle        string        `json:"theme_title,omitempty"`
	Title             string        `json:"title"`
	Type              VersionType   `json:"type"`
	TypeDisplay       string        `json:"type_display,omitempty"`
	Image             string        `json:"image,omitempty"`
	ImageURL          string        `json:"image_url,omitempty"`
	HasOwnImage       bool          `json:"has_own_image,omitempty"`
	AudioFile         string        `json:"audio_file,omitempty"`
	AudioURL          string        `json:"audio_url,omitempty"`
	HasOwnAudio       bool          `json:"has_own_audio,omitempty"`
	MusFile           string        `json:"mus_file,omitempty"`
	Notes             string        `json:"notes"`
	SheetMusicCount   int           `json:"sheet_music_count,omitempty"`
	VersionFilesCount int           `json:"version_files_count,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	SheetMusic        []SheetMusic  `json:"sheet_music,omitempty"`
	VersionFiles      []VersionFile `json:"version_files,omitempty"`
}

// DisplayTitle returns the version title, falling back to the theme title
func (v *Version) DisplayTitle() string {
	if v.Title != "" {
		return v.Title
	}
	if v.ThemeTitle != "" {
		return fmt.Sprintf("%s (version %d)", v.ThemeTitle, v.ID)
	}
	return fmt.Sprintf("Version %d", v.ID)
}

// ChildCount returns how many child file records the version owns
func (v *Version) ChildCount() int {
	if v.Type == VersionStandard {
		if len(v.SheetMusic) > v.SheetMusicCount {
			return len(v.SheetMusic)
		}
		return v.SheetMusicCount
	}
	if len(v.VersionFiles) > v.VersionFilesCount {
		return len(v.VersionFiles)
	}
	return v.VersionFilesCount
}

// SheetMusic is a per-instrument part of a STANDARD version
type SheetMusic struct {
	ID                int       `json:"id"`
	Version           int       `json:"version"`
	Instrument        int       `json:"instrument"`
	Type              SheetType `json:"type"`
	Clef              Clef      `json:"clef"`
	TonalidadRelativa string    `json:"tonalidad_relativa"`
	File              string    `json:"file"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// VersionFile is a generic uploaded file of a non-STANDARD version
type VersionFile struct {
	ID              int         `json:"id"`
	Version         int         `json:"version"`
	VersionTitle    string      `json:"version_title,omitempty"`
	ThemeTitle      string      `json:"theme_title,omitempty"`
	VersionType     VersionType `json:"version_type,omitempty"`
	FileType        FileType    `json:"file_type"`
	FileTypeDisplay string      `json:"file_type_display,omitempty"`
	Tuning          Tuning      `json:"tuning,omitempty"`
	TuningDisplay   string      `json:"tuning_display,omitempty"`
	Instrument      *int        `json:"instrument,omitempty"`
	InstrumentName  string      `json:"instrument_name,omitempty"`
	File            string      `json:"file"`
	Audio           string      `json:"audio,omitempty"`
	AudioURL        string      `json:"audio_url,omitempty"`
	HasOwnAudio     bool        `json:"has_own_audio,omitempty"`
	Description     string      `json:"description,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Location is a venue
type Location struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	PostalCode   string    `json:"postal_code"`
	Country      string    `json:"country"`
	Capacity     int       `json:"capacity"`
	ContactEmail string    `json:"contact_email,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	Website      string    `json:"website,omitempty"`
	GoogleURL    string    `json:"google_maps_url,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RepertoireVersion is the join record between a Repertoire and a Version
type RepertoireVersion struct {
	ID        int       `json:"id"`
	Version   Version   `json:"version"`
	VersionID int       `json:"version_id,omitempty"`
	Order     int       `json:"order"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// Repertoire is a named ordered set of versions
type Repertoire struct {
	ID           int                 `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	IsActive     bool                `json:"is_active"`
	Versions     []RepertoireVersion `json:"versions"`
	VersionCount int                 `json:"version_count"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// MemberIDs returns the version ids already in the repertoire
func (r *Repertoire) MemberIDs() []int {
	ids := make([]int, 0, len(r.Versions))
	for _, rv := range r.Versions {
		id := rv.VersionID
		if id == 0 {
			id = rv.Version.ID
		}
		ids = append(ids, id)
	}
	return ids
}

// Event is a performance, rehearsal or similar occasion
type Event struct {
	ID            int         `json:"id"`
	Title         string      `json:"title"`
	EventType     EventType   `json:"event_type"`
	Status        EventStatus `json:"status"`
	Description   string      `json:"description,omitempty"`
	StartDatetime time.Time   `json:"start_datetime"`
	EndDatetime   time.Time   `json:"end_datetime"`
	Location      *Location   `json:"location,omitempty"`
	LocationID    *int        `json:"location_id,omitempty"`
	Repertoire    *Repertoire `json:"repertoire,omitempty"`
	RepertoireID  *int        `json:"repertoire_id,omitempty"`
	IsPublic      bool        `json:"is_public"`
	MaxAttendees  *int        `json:"max_attendees,omitempty"`
	Price         string      `json:"price"`
	IsUpcoming    bool        `json:"is_upcoming"`
	IsOngoing     bool        `json:"is_ongoing"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// EventInput is the writable subset of an Event
type EventInput struct {
	Title         string      `json:"title,omitempty"`
	EventType     EventType   `json:"event_type,omitempty"`
	Status        EventStatus `json:"status,omitempty"`
	Description   string      `json:"description,omitempty"`
	StartDatetime *time.Time  `json:"start_datetime,omitempty"`
	EndDatetime   *time.Time  `json:"end_datetime,omitempty"`
	LocationID    *int        `json:"location_id,omitempty"`
	RepertoireID  *int        `json:"repertoire_id,omitempty"`
	IsPublic      *bool       `json:"is_public,omitempty"`
	MaxAttendees  *int        `json:"max_attendees,omitempty"`
	Price         string      `json:"price,omitempty"`
}

// Validate checks the fields the backend would reject
func (in *EventInput) Validate(creating bool) error {
	if creating {
		if in.Title == "" {
			return fmt.Errorf("title is required")
		}
		if in.StartDatetime == nil || in.EndDatetime == nil {
			return fmt.Errorf("start and end datetimes are required")
		}
	}
	if in.EventType != "" && !in.EventType.Valid() {
		return fmt.Errorf("unknown event type %q", in.EventType)
	}
	if in.Status != "" && !in.Status.Valid() {
		return fmt.Errorf("unknown event status %q", in.Status)
	}
	if in.StartDatetime != nil && in.EndDatetime != nil && !in.StartDatetime.Before(*in.EndDatetime) {
		return fmt.Errorf("start must be before end")
	}
	return nil
}
