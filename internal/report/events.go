package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventLogin    EventType = "login"
	EventRefresh  EventType = "refresh"
	EventLogout   EventType = "logout"
	EventExpired  EventType = "expired"
	EventCreate   EventType = "create"
	EventUpdate   EventType = "update"
	EventDelete   EventType = "delete"
	EventUpload   EventType = "upload"
	EventReject   EventType = "reject"
	EventSkip     EventType = "skip"
	EventAdvisory EventType = "advisory"
	EventError    EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// ParseLevel maps a level name to an EventLevel, defaulting to info
func ParseLevel(s string) EventLevel {
	if _, ok := levelPriority[EventLevel(s)]; ok {
		return EventLevel(s)
	}
	return LevelInfo
}

// Event is one line of the JSONL event log
type Event struct {
	Timestamp     time.Time         `json:"ts"`
	Level         EventLevel        `json:"level"`
	Event         EventType         `json:"event"`
	User          string            `json:"user,omitempty"`
	Resource      string            `json:"resource,omitempty"`
	ID            int               `json:"id,omitempty"`
	VersionID     int               `json:"version_id,omitempty"`
	Discriminator string            `json:"discriminator,omitempty"`
	SrcPath       string            `json:"src_path,omitempty"`
	SHA1          string            `json:"sha1,omitempty"`
	Bytes         int64             `json:"bytes,omitempty"`
	Duration      int64             `json:"duration_ms,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	Error         string            `json:"error,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file. A nil logger discards events.
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	path := filepath.Join(outputDir, fmt.Sprintf("events-%s.jsonl", timestamp))

	// several commands in the same second share the file
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

func errLevel(err error, ok EventLevel) (EventLevel, string) {
	if err != nil {
		return LevelError, err.Error()
	}
	return ok, ""
}

// LogAuth logs a login, refresh, logout or expiry
func (l *EventLogger) LogAuth(event EventType, user string, err error) error {
	ok := LevelInfo
	switch event {
	case EventRefresh:
		ok = LevelDebug
	case EventExpired:
		ok = LevelWarning
	}
	level, msg := errLevel(err, ok)
	return l.Log(&Event{
		Level: level,
		Event: event,
		User:  user,
		Error: msg,
	})
}

// LogMutation logs a create, update or delete of a resource
func (l *EventLogger) LogMutation(event EventType, resource string, id int, err error) error {
	level, msg := errLevel(err, LevelInfo)
	return l.Log(&Event{
		Level:    level,
		Event:    event,
		Resource: resource,
		ID:       id,
		Error:    msg,
	})
}

// LogUpload logs a child-file upload attempt that reached the server
func (l *EventLogger) LogUpload(resource string, versionID int, discriminator, srcPath, sha1 string, bytes int64, remoteID int, duration time.Duration, err error) error {
	level, msg := errLevel(err, LevelInfo)
	return l.Log(&Event{
		Level:         level,
		Event:         EventUpload,
		Resource:      resource,
		ID:            remoteID,
		VersionID:     versionID,
		Discriminator: discriminator,
		SrcPath:       srcPath,
		SHA1:          sha1,
		Bytes:         bytes,
		Duration:      duration.Milliseconds(),
		Error:         msg,
	})
}

// LogRejected logs a submission refused by local validation
func (l *EventLogger) LogRejected(versionID int, srcPath string, err error) error {
	return l.Log(&Event{
		Level:     LevelWarning,
		Event:     EventReject,
		VersionID: versionID,
		SrcPath:   srcPath,
		Error:     err.Error(),
	})
}

// LogSkip logs a file that was not uploaded, with the reason
func (l *EventLogger) LogSkip(versionID int, srcPath, reason string) error {
	return l.Log(&Event{
		Level:     LevelInfo,
		Event:     EventSkip,
		VersionID: versionID,
		SrcPath:   srcPath,
		Reason:    reason,
	})
}

// LogAdvisory logs a non-blocking validation warning
func (l *EventLogger) LogAdvisory(versionID int, message string) error {
	return l.Log(&Event{
		Level:     LevelWarning,
		Event:     EventAdvisory,
		VersionID: versionID,
		Reason:    message,
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, resource string, err error) error {
	return l.Log(&Event{
		Level:    LevelError,
		Event:    event,
		Resource: resource,
		Error:    err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
