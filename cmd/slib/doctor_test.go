package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/franz/score-librarian/internal/api"
	"github.com/franz/score-librarian/internal/store"
)

func TestCheckSQLite(t *testing.T) {
	result := checkSQLite()

	if result.error {
		t.Errorf("SQLite check failed: %s", result.message)
	}

	if result.message == "" {
		t.Error("expected version information in message")
	}
}

func TestCheckDatabase_NonExistent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nonexistent.db")

	result := checkDatabase(dbPath)

	// Should not error - database will be created on first run
	if result.error {
		t.Errorf("non-existent database check should not error: %s", result.message)
	}

	if result.message == "" {
		t.Error("expected message about database creation")
	}
}

func TestCheckDatabase_Existing(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	upload := &store.Upload{
		VersionID:     7,
		ChildModel:    "version-file",
		Discriminator: "Bb",
		SrcPath:       "/drop/Bb.pdf",
		SizeBytes:     1024,
		RemoteID:      12,
		Status:        store.UploadOK,
	}
	if err := db.InsertUpload(upload); err != nil {
		t.Fatalf("failed to insert test upload: %v", err)
	}
	db.Close()

	result := checkDatabase(dbPath)

	if result.error {
		t.Errorf("database check failed: %s", result.message)
	}

	if !strings.Contains(result.message, "1 uploads") {
		t.Errorf("Expected upload count in message, got %q", result.message)
	}
}

func TestCheckDatabase_Empty(t *testing.T) {
	result := checkDatabase("")

	if !result.warning {
		t.Error("expected warning for empty database path")
	}
}

func TestCheckDatabase_Directory(t *testing.T) {
	result := checkDatabase(t.TempDir())

	if !result.error {
		t.Error("expected error when database path is a directory")
	}
}

func TestCheckArtifactsDirectory_Valid(t *testing.T) {
	dir := t.TempDir()

	result := checkArtifactsDirectory(dir)

	if result.error {
		t.Errorf("artifacts directory check failed: %s", result.message)
	}

	if _, err := os.Stat(filepath.Join(dir, ".slib_write_test")); !os.IsNotExist(err) {
		t.Error("expected write test file to be removed")
	}
}

func TestCheckArtifactsDirectory_Create(t *testing.T) {
	newDir := filepath.Join(t.TempDir(), "artifacts")

	result := checkArtifactsDirectory(newDir)

	if result.error {
		t.Errorf("artifacts directory check failed: %s", result.message)
	}

	if _, err := os.Stat(newDir); os.IsNotExist(err) {
		t.Error("expected directory to be created")
	}
}

func TestCheckArtifactsDirectory_File(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(filePath, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	result := checkArtifactsDirectory(filePath)

	if !result.error {
		t.Error("expected error when path is a file, not a directory")
	}
}

func TestCheckDiskSpace(t *testing.T) {
	result := checkDiskSpace(t.TempDir(), "test")

	if result.error {
		t.Errorf("disk space check failed: %s", result.message)
	}

	if result.message == "" {
		t.Error("expected message with disk space info")
	}
}

func TestCheckDiskSpace_NonExistent(t *testing.T) {
	result := checkDiskSpace("/nonexistent/path", "test")

	if !result.warning {
		t.Error("expected warning for non-existent path")
	}
}

func TestCheckAPI(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantWarning bool
	}{
		{"ok", http.StatusOK, false},
		{"auth required", http.StatusUnauthorized, false},
		{"server error", http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			result := checkAPI(context.Background(), srv.URL, time.Second)
			if result.error {
				t.Fatalf("Expected reachable backend, got error: %s", result.message)
			}
			if result.warning != tt.wantWarning {
				t.Errorf("Expected warning=%v, got %v (%s)", tt.wantWarning, result.warning, result.message)
			}
		})
	}
}

func TestCheckAPI_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	result := checkAPI(context.Background(), url, time.Second)
	if !result.error {
		t.Error("expected error for closed server")
	}
}

func TestCheckAPI_NoURL(t *testing.T) {
	result := checkAPI(context.Background(), "", time.Second)
	if !result.error {
		t.Error("expected error for missing API URL")
	}
}

func TestCheckSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")

	result := checkSession(dbPath)
	if !result.warning {
		t.Errorf("Expected warning without a database, got %q", result.message)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := db.SaveTokens(api.Tokens{Username: "director", Access: "not-a-jwt", Refresh: "r"}); err != nil {
		t.Fatalf("failed to save tokens: %v", err)
	}
	db.Close()

	result = checkSession(dbPath)
	if result.warning || result.error {
		t.Errorf("Expected logged-in session, got %q", result.message)
	}
	if !strings.Contains(result.message, "director") {
		t.Errorf("Expected username in message, got %q", result.message)
	}
}
