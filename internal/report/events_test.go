package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func readEvents(t *testing.T, path string) []Event {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode line %d: %v", len(events)+1, err)
		}
		events = append(events, decoded)
	}
	return events
}

func TestNewEventLogger(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "artifacts")

	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(logger.Path()); os.IsNotExist(err) {
		t.Errorf("Event log file was not created at %s", logger.Path())
	}

	filename := filepath.Base(logger.Path())
	if len(filename) != len("events-20060102-150405.jsonl") {
		t.Errorf("Event log filename format incorrect: %s", filename)
	}
}

func TestEventLogger_Helpers(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	logger.LogAuth(EventLogin, "admin", nil)
	logger.LogAuth(EventExpired, "admin", errors.New("still unauthorized after refresh"))
	logger.LogMutation(EventCreate, "theme", 4, nil)
	logger.LogMutation(EventDelete, "version", 9, errors.New("404 Not Found"))
	logger.LogUpload("version-file", 3, "tuning=Bb", "/drop/Bb.pdf", "abc", 2048, 17, 1500*time.Millisecond, nil)
	logger.LogRejected(3, "/drop/Xb.pdf", errors.New("tuning required"))
	logger.LogSkip(3, "/drop/Eb.pdf", "already uploaded")
	logger.LogAdvisory(5, "under minimum of 6 instruments (5 uploaded so far)")
	logger.Close()

	events := readEvents(t, logger.Path())
	if len(events) != 8 {
		t.Fatalf("Expected 8 events, got %d", len(events))
	}

	tests := []struct {
		idx   int
		event EventType
		level EventLevel
	}{
		{0, EventLogin, LevelInfo},
		{1, EventExpired, LevelError},
		{2, EventCreate, LevelInfo},
		{3, EventDelete, LevelError},
		{4, EventUpload, LevelInfo},
		{5, EventReject, LevelWarning},
		{6, EventSkip, LevelInfo},
		{7, EventAdvisory, LevelWarning},
	}
	for _, tt := range tests {
		e := events[tt.idx]
		if e.Event != tt.event || e.Level != tt.level {
			t.Errorf("Event %d: expected %s/%s, got %s/%s", tt.idx, tt.event, tt.level, e.Event, e.Level)
		}
		if e.Timestamp.IsZero() {
			t.Errorf("Event %d: expected timestamp", tt.idx)
		}
	}

	up := events[4]
	if up.VersionID != 3 || up.ID != 17 || up.Discriminator != "tuning=Bb" || up.Bytes != 2048 || up.Duration != 1500 {
		t.Errorf("Unexpected upload event: %+v", up)
	}
	if events[1].User != "admin" || events[1].Error == "" {
		t.Errorf("Expected user and error on expiry event: %+v", events[1])
	}
}

func TestEventLogger_LevelFilter(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelInfo)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	logger.LogAuth(EventRefresh, "admin", nil) // debug, filtered
	logger.LogAuth(EventRefresh, "admin", errors.New("refresh failed"))
	logger.Close()

	events := readEvents(t, logger.Path())
	if len(events) != 1 {
		t.Fatalf("Expected 1 event after filtering, got %d", len(events))
	}
	if events[0].Level != LevelError {
		t.Errorf("Expected error level, got %s", events[0].Level)
	}
}

func TestEventLogger_Concurrent(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.LogMutation(EventUpdate, "event", i, nil)
		}(i)
	}
	wg.Wait()
	logger.Close()

	if got := len(readEvents(t, logger.Path())); got != 20 {
		t.Errorf("Expected 20 events, got %d", got)
	}
}

func TestNullLogger(t *testing.T) {
	logger := NullLogger()

	if err := logger.LogMutation(EventCreate, "theme", 1, nil); err != nil {
		t.Errorf("Expected nil logger to discard events, got %v", err)
	}
	if logger.Path() != "" {
		t.Error("Expected empty path for nil logger")
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Expected nil logger close to succeed, got %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("warning") != LevelWarning {
		t.Error("Expected warning level")
	}
	if ParseLevel("loud") != LevelInfo {
		t.Error("Expected unknown level to default to info")
	}
}
