package catalog

// VersionType is the arrangement kind of a Version
type VersionType string

const (
	VersionStandard      VersionType = "STANDARD"
	VersionDueto         VersionType = "DUETO"
	VersionEnsamble      VersionType = "ENSAMBLE"
	VersionGrupoReducido VersionType = "GRUPO_REDUCIDO"
)

// VersionTypes lists every version type in display order
var VersionTypes = []VersionType{
	VersionStandard,
	VersionDueto,
	VersionEnsamble,
	VersionGrupoReducido,
}

var versionTypeLabels = map[VersionType]string{
	VersionStandard:      "Standard",
	VersionDueto:         "Dueto",
	VersionEnsamble:      "Ensamble",
	VersionGrupoReducido: "Grupo Reducido",
}

// Valid reports whether t is a known version type
func (t VersionType) Valid() bool {
	_, ok := versionTypeLabels[t]
	return ok
}

// Label returns the human readable name
func (t VersionType) Label() string {
	if l, ok := versionTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// FileType tags a generic version-file record
type FileType string

const (
	FileDuetoTransposition FileType = "DUETO_TRANSPOSITION"
	FileEnsambleInstrument FileType = "ENSAMBLE_INSTRUMENT"
	FileStandardScore      FileType = "STANDARD_SCORE"
)

var fileTypeLabels = map[FileType]string{
	FileDuetoTransposition: "Dueto - Transposición",
	FileEnsambleInstrument: "Ensamble - Instrumento",
	FileStandardScore:      "Standard - Partitura General",
}

// Valid reports whether f is a known file type
func (f FileType) Valid() bool {
	_, ok := fileTypeLabels[f]
	return ok
}

// Label returns the human readable name
func (f FileType) Label() string {
	if l, ok := fileTypeLabels[f]; ok {
		return l
	}
	return string(f)
}

// Tuning is the transposition tag of a duet part
type Tuning string

const (
	TuningBb    Tuning = "Bb"
	TuningEb    Tuning = "Eb"
	TuningF     Tuning = "F"
	TuningC     Tuning = "C"
	TuningCBass Tuning = "C_BASS"
)

// Tunings is the fixed transposition set accepted for duet files
var Tunings = []Tuning{TuningBb, TuningEb, TuningF, TuningC, TuningCBass}

var tuningLabels = map[Tuning]string{
	TuningBb:    "Si bemol - Clave de Sol",
	TuningEb:    "Mi bemol - Clave de Sol",
	TuningF:     "Fa - Clave de Sol",
	TuningC:     "Do - Clave de Sol",
	TuningCBass: "Do - Clave de Fa (Bass)",
}

// Valid reports whether t belongs to the transposition set
func (t Tuning) Valid() bool {
	_, ok := tuningLabels[t]
	return ok
}

// Label returns the human readable name
func (t Tuning) Label() string {
	if l, ok := tuningLabels[t]; ok {
		return l
	}
	return string(t)
}

// SheetType is the musical role of a STANDARD sheet-music part
type SheetType string

const (
	SheetMelodiaPrincipal  SheetType = "MELODIA_PRINCIPAL"
	SheetMelodiaSecundaria SheetType = "MELODIA_SECUNDARIA"
	SheetArmonia           SheetType = "ARMONIA"
	SheetBajo              SheetType = "BAJO"
)

var sheetTypeLabels = map[SheetType]string{
	SheetMelodiaPrincipal:  "Melodía Principal",
	SheetMelodiaSecundaria: "Melodía Secundaria",
	SheetArmonia:           "Armonía",
	SheetBajo:              "Bajo",
}

// Valid reports whether s is a known sheet type
func (s SheetType) Valid() bool {
	_, ok := sheetTypeLabels[s]
	return ok
}

// Label returns the human readable name
func (s SheetType) Label() string {
	if l, ok := sheetTypeLabels[s]; ok {
		return l
	}
	return string(s)
}

// Clef of a sheet-music part
type Clef string

const (
	ClefSol Clef = "SOL"
	ClefFa  Clef = "FA"
)

// Valid reports whether c is a known clef
func (c Clef) Valid() bool {
	return c == ClefSol || c == ClefFa
}

// InstrumentFamily groups instruments
type InstrumentFamily string

const (
	FamilyVientoMadera InstrumentFamily = "VIENTO_MADERA"
	FamilyVientoMetal  InstrumentFamily = "VIENTO_METAL"
	FamilyPercusion    InstrumentFamily = "PERCUSION"
)

// Valid reports whether f is a known family (empty is allowed by the backend)
func (f InstrumentFamily) Valid() bool {
	switch f {
	case "", FamilyVientoMadera, FamilyVientoMetal, FamilyPercusion:
		return true
	}
	return false
}

// InstrumentTuning is the afinación of an instrument, a wider set than Tuning
type InstrumentTuning string

const (
	AfinacionBb   InstrumentTuning = "Bb"
	AfinacionEb   InstrumentTuning = "Eb"
	AfinacionF    InstrumentTuning = "F"
	AfinacionC    InstrumentTuning = "C"
	AfinacionG    InstrumentTuning = "G"
	AfinacionD    InstrumentTuning = "D"
	AfinacionA    InstrumentTuning = "A"
	AfinacionE    InstrumentTuning = "E"
	AfinacionNone InstrumentTuning = "NONE"
)

// Valid reports whether t is a known instrument tuning (empty is allowed)
func (t InstrumentTuning) Valid() bool {
	switch t {
	case "", AfinacionBb, AfinacionEb, AfinacionF, AfinacionC,
		AfinacionG, AfinacionD, AfinacionA, AfinacionE, AfinacionNone:
		return true
	}
	return false
}

// EventStatus is the lifecycle state of an Event
type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventConfirmed EventStatus = "CONFIRMED"
	EventCancelled EventStatus = "CANCELLED"
	EventCompleted EventStatus = "COMPLETED"
)

// Valid reports whether s is a known status
func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventConfirmed, EventCancelled, EventCompleted:
		return true
	}
	return false
}

// EventType classifies an Event
type EventType string

const (
	EventConcert   EventType = "CONCERT"
	EventRehearsal EventType = "REHEARSAL"
	EventRecording EventType = "RECORDING"
	EventWorkshop  EventType = "WORKSHOP"
	EventOther     EventType = "OTHER"
)

// Valid reports whether t is a known event type
func (t EventType) Valid() bool {
	switch t {
	case EventConcert, EventRehearsal, EventRecording, EventWorkshop, EventOther:
		return true
	}
	return false
}
