package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/classify"
	"github.com/franz/score-librarian/internal/store"
)

// Snapshot is the catalog state a report is built from
type Snapshot struct {
	Themes   []catalog.Theme
	Versions []catalog.Version
}

// SummaryReport represents a complete summary report
type SummaryReport struct {
	GeneratedAt time.Time
	BaseURL     string

	// Catalog
	Themes         int
	Versions       int
	VersionsByType map[catalog.VersionType]int
	Quotas         []QuotaRow

	// Upload history
	Uploads       int
	UploadsByStat map[string]int
	BytesUploaded int64
	TopErrors     []ErrorSummary
	Recent        []*store.Upload

	DatabasePath string
	EventLogPath string
}

// QuotaRow is the instrument-count status of one bounded version
type QuotaRow struct {
	VersionID int
	Title     string
	Quota     classify.Quota
}

// ErrorSummary represents an error with its count
type ErrorSummary struct {
	Error string
	Count int
}

// NeedsAttention reports whether the version is outside its bounds
func (r QuotaRow) NeedsAttention() bool {
	return r.Quota.State == classify.QuotaUnderMinimum || r.Quota.State == classify.QuotaOverMaximum
}

// CatalogSummary combines a catalog snapshot with the local upload history
func CatalogSummary(db *store.Store, snap Snapshot, eventLogPath string) (*SummaryReport, error) {
	report := &SummaryReport{
		GeneratedAt:    time.Now(),
		Themes:         len(snap.Themes),
		Versions:       len(snap.Versions),
		VersionsByType: map[catalog.VersionType]int{},
		UploadsByStat:  map[string]int{},
		EventLogPath:   eventLogPath,
	}

	for _, v := range snap.Versions {
		report.VersionsByType[v.Type]++
		d, err := classify.DescribeType(v.Type)
		if err != nil || (!d.HasMin() && !d.HasMax()) {
			continue
		}
		q, err := classify.QuotaStatus(v.Type, v.ChildCount())
		if err != nil {
			continue
		}
		report.Quotas = append(report.Quotas, QuotaRow{VersionID: v.ID, Title: v.DisplayTitle(), Quota: q})
	}

	// out-of-bounds versions first, then by id
	sort.SliceStable(report.Quotas, func(i, j int) bool {
		a, b := report.Quotas[i], report.Quotas[j]
		if a.NeedsAttention() != b.NeedsAttention() {
			return a.NeedsAttention()
		}
		return a.VersionID < b.VersionID
	})

	if db != nil {
		report.DatabasePath = db.Path()

		stats, err := db.GetUploadStats(10)
		if err != nil {
			return nil, err
		}
		report.Uploads = stats.Total
		report.UploadsByStat = stats.ByStatus
		report.BytesUploaded = stats.Bytes
		for _, e := range stats.TopErrors {
			report.TopErrors = append(report.TopErrors, ErrorSummary{Error: e.Message, Count: e.Count})
		}

		recent, err := db.GetRecentUploads(10)
		if err != nil {
			return nil, err
		}
		report.Recent = recent
	}

	return report, nil
}

// RenderMarkdown renders the report as Markdown
func RenderMarkdown(report *SummaryReport) string {
	var md strings.Builder

	md.WriteString("# Score Librarian - Summary Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))
	if report.BaseURL != "" {
		md.WriteString(fmt.Sprintf("**Backend:** `%s`\n\n", report.BaseURL))
	}
	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
	}

	md.WriteString("---\n\n")

	md.WriteString("## Catalog\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Themes | %d |\n", report.Themes))
	md.WriteString(fmt.Sprintf("| Versions | %d |\n", report.Versions))
	for _, t := range catalog.VersionTypes {
		if n := report.VersionsByType[t]; n > 0 {
			md.WriteString(fmt.Sprintf("| %s | %d |\n", t.Label(), n))
		}
	}
	md.WriteString("\n")

	if len(report.Quotas) > 0 {
		md.WriteString("## Instrument Counts\n\n")
		md.WriteString("| Version | Type | Status |\n")
		md.WriteString("|---------|------|--------|\n")
		for _, q := range report.Quotas {
			mark := ""
			if q.NeedsAttention() {
				mark = " ⚠️"
			}
			md.WriteString(fmt.Sprintf("| %d %s | %s | %s%s |\n",
				q.VersionID, escapeCell(q.Title), q.Quota.Type.Label(), q.Quota, mark))
		}
		md.WriteString("\n")
	}

	if report.Uploads > 0 {
		md.WriteString("## Uploads\n\n")
		md.WriteString("| Metric | Value |\n")
		md.WriteString("|--------|-------|\n")
		md.WriteString(fmt.Sprintf("| Attempts | %d |\n", report.Uploads))
		statuses := make([]string, 0, len(report.UploadsByStat))
		for s := range report.UploadsByStat {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)
		for _, s := range statuses {
			md.WriteString(fmt.Sprintf("| %s | %d |\n", strings.ToUpper(s[:1])+s[1:], report.UploadsByStat[s]))
		}
		md.WriteString(fmt.Sprintf("| Bytes Uploaded | %s |\n", humanize.Bytes(uint64(report.BytesUploaded))))
		md.WriteString("\n")
	}

	if len(report.Recent) > 0 {
		md.WriteString("## Recent Activity\n\n")
		md.WriteString("| When | Version | File | Status |\n")
		md.WriteString("|------|---------|------|--------|\n")
		for _, u := range report.Recent {
			md.WriteString(fmt.Sprintf("| %s | %d | `%s` | %s |\n",
				humanize.Time(u.CreatedAt), u.VersionID, truncatePath(u.SrcPath, 50), u.Status))
		}
		md.WriteString("\n")
	}

	if len(report.TopErrors) > 0 {
		md.WriteString("## ⚠️ Top Errors\n\n")
		md.WriteString("| Count | Error |\n")
		md.WriteString("|-------|-------|\n")
		for _, err := range report.TopErrors {
			md.WriteString(fmt.Sprintf("| %d | %s |\n", err.Count, escapeCell(err.Error)))
		}
		md.WriteString("\n")
	}

	md.WriteString("---\n\n")
	md.WriteString("*Generated by slib - Score Librarian*\n")

	return md.String()
}

// WriteMarkdownReport writes the summary report as Markdown
func WriteMarkdownReport(report *SummaryReport, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(RenderMarkdown(report)), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "\\|"), "\n", " ")
}

// truncatePath truncates a file path to a maximum length
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	// keep start and end
	start := maxLen/2 - 2
	end := len(path) - (maxLen/2 - 2)
	return path[:start] + "..." + path[end:]
}
