package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/score-librarian/internal/api"
	"github.com/franz/score-librarian/internal/store"
	"github.com/franz/score-librarian/internal/util"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure slib can operate correctly.

This command checks:
- SQLite version compatibility
- State database accessibility and integrity
- Artifacts directory permissions and disk space
- Backend reachability
- Stored login session

Use this command to troubleshoot issues before uploading.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== slib doctor - System Diagnostics ===")
	util.InfoLog("")

	dbPath := GetConfigString("db", "slib-state.db")
	artifacts := util.ArtifactsDir()

	results := []checkResult{
		checkSQLite(),
		checkDatabase(dbPath),
		checkArtifactsDirectory(artifacts),
		checkDiskSpace(artifacts, "artifacts"),
		checkAPI(cmdContext(cmd), GetConfigString("api", ""), 5*time.Second),
		checkSession(dbPath),
	}

	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("❌ Some critical checks failed. Please resolve errors before using slib.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("⚠️  Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("✅ All checks passed! slib is ready.")
	}

	return nil
}

// checkSQLite verifies SQLite version
func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{
			name:    "SQLite",
			error:   true,
			message: "unable to determine version",
		}
	}

	return checkResult{
		name:    "SQLite",
		message: fmt.Sprintf("version %s (built-in)", version),
	}
}

// checkDatabase verifies the state database is usable
func checkDatabase(dbPath string) checkResult {
	if dbPath == "" {
		return checkResult{
			name:    "Database",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Database",
				message: fmt.Sprintf("%s (will be created on first run)", dbPath),
			}
		}
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", dbPath, err),
		}
	}

	if !info.Mode().IsRegular() {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("%s is not a regular file", dbPath),
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
		}
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("integrity check failed: %v", err),
		}
	}

	uploads := 0
	if stats, err := db.GetUploadStats(0); err == nil {
		uploads = stats.Total
	}
	schema, _ := db.SchemaVersion()

	return checkResult{
		name:    "Database",
		message: fmt.Sprintf("%s (%s, schema v%d, %d uploads)", dbPath, humanize.Bytes(uint64(info.Size())), schema, uploads),
	}
}

// checkArtifactsDirectory verifies event logs and reports can be written
func checkArtifactsDirectory(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0755); err != nil {
				return checkResult{
					name:    "Artifacts directory",
					error:   true,
					message: fmt.Sprintf("cannot create %s: %v", path, err),
				}
			}
			return checkResult{
				name:    "Artifacts directory",
				message: fmt.Sprintf("%s (created)", path),
			}
		}
		return checkResult{
			name:    "Artifacts directory",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	if !info.IsDir() {
		return checkResult{
			name:    "Artifacts directory",
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	testFile := filepath.Join(path, ".slib_write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return checkResult{
			name:    "Artifacts directory",
			error:   true,
			message: fmt.Sprintf("cannot write to %s: %v", path, err),
		}
	}
	f.Close()
	os.Remove(testFile)

	return checkResult{
		name:    "Artifacts directory",
		message: fmt.Sprintf("%s (writable)", path),
	}
}

// checkDiskSpace verifies available disk space
func checkDiskSpace(path string, label string) checkResult {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return checkResult{
			name:    fmt.Sprintf("Disk space (%s)", label),
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)

	// event logs and reports are small; warn below 100 MB
	if availBytes < 100*1000*1000 {
		return checkResult{
			name:    fmt.Sprintf("Disk space (%s)", label),
			warning: true,
			message: fmt.Sprintf("%s available (low space!)", humanize.Bytes(availBytes)),
		}
	}

	return checkResult{
		name:    fmt.Sprintf("Disk space (%s)", label),
		message: fmt.Sprintf("%s available", humanize.Bytes(availBytes)),
	}
}

// checkAPI verifies the backend answers. Any HTTP response counts, since the
// API root may require authentication.
func checkAPI(ctx context.Context, baseURL string, timeout time.Duration) checkResult {
	if baseURL == "" {
		return checkResult{
			name:    "Backend",
			error:   true,
			message: "no API URL configured (use --api flag or config)",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return checkResult{
			name:    "Backend",
			error:   true,
			message: fmt.Sprintf("invalid URL %s: %v", baseURL, err),
		}
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return checkResult{
			name:    "Backend",
			error:   true,
			message: fmt.Sprintf("%s unreachable: %v", baseURL, err),
		}
	}
	resp.Body.Close()

	r := checkResult{
		name:    "Backend",
		message: fmt.Sprintf("%s (HTTP %d in %s)", baseURL, resp.StatusCode, time.Since(start).Round(time.Millisecond)),
	}
	if resp.StatusCode >= 500 {
		r.warning = true
	}
	return r
}

// checkSession reports the stored login without contacting the backend
func checkSession(dbPath string) checkResult {
	if _, err := os.Stat(dbPath); err != nil {
		return checkResult{
			name:    "Session",
			warning: true,
			message: "not logged in (run 'slib login')",
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return checkResult{
			name:    "Session",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
		}
	}
	defer db.Close()

	s := api.NewSession(db)
	if !s.Authenticated() {
		return checkResult{
			name:    "Session",
			warning: true,
			message: "not logged in (run 'slib login')",
		}
	}

	msg := fmt.Sprintf("logged in as %s", s.Username())
	if exp, ok := s.ExpiresAt(); ok {
		if time.Now().After(exp) {
			msg += fmt.Sprintf(", access token expired %s (refreshed on next request)", humanize.Time(exp))
		} else {
			msg += fmt.Sprintf(", access token expires %s", humanize.Time(exp))
		}
	}
	return checkResult{name: "Session", message: msg}
}
