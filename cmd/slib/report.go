package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/franz/score-librarian/internal/report"
	"github.com/franz/score-librarian/internal/util"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a summary report of the catalog and upload history",
	Long: `Generate a summary report in Markdown format.

The report includes:
- Theme and version counts per version type
- Instrument counts of ENSAMBLE and GRUPO_REDUCIDO versions against their bounds
- Local upload history and top errors

The report is saved to artifacts/reports/<timestamp>/summary.md`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("out", "", "Output directory for report (default: artifacts/reports/<timestamp>)")
	reportCmd.Flags().Bool("stdout", false, "print the report instead of writing a file")
}

func runReport(cmd *cobra.Command, args []string) error {
	outputDir, _ := cmd.Flags().GetString("out")
	toStdout, _ := cmd.Flags().GetBool("stdout")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		util.InfoLog("=== Generating Summary Report ===")
		util.InfoLog("Backend: %s", GetConfigString("api", ""))

		var snap report.Snapshot
		p := pool.New().WithContext(ctx).WithCancelOnError()
		p.Go(func(ctx context.Context) error {
			themes, err := a.client.ListThemes(ctx)
			snap.Themes = themes
			return err
		})
		p.Go(func(ctx context.Context) error {
			versions, err := a.client.ListVersions(ctx, 0)
			snap.Versions = versions
			return err
		})
		if err := p.Wait(); err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}

		summary, err := report.CatalogSummary(a.store, snap, a.events.Path())
		if err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		summary.BaseURL = GetConfigString("api", "")

		if toStdout {
			fmt.Fprint(cmd.OutOrStdout(), report.RenderMarkdown(summary))
			return nil
		}

		if outputDir == "" {
			timestamp := time.Now().Format("20060102-150405")
			outputDir = filepath.Join(util.ArtifactsDir(), "reports", timestamp)
		}
		outputPath := filepath.Join(outputDir, "summary.md")
		if err := report.WriteMarkdownReport(summary, outputPath); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		util.SuccessLog("Report written to: %s", outputPath)
		attention := 0
		for _, q := range summary.Quotas {
			if q.NeedsAttention() {
				attention++
			}
		}
		if attention > 0 {
			util.WarnLog("%d version(s) are outside their instrument-count bounds", attention)
		}
		return nil
	})
}
