package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/score-librarian/internal/classify"
	"github.com/franz/score-librarian/internal/upload"
	"github.com/franz/score-librarian/internal/util"
	"github.com/spf13/cobra"
)

// table writes aligned columns to the command's stdout
type table struct {
	tw    *tabwriter.Writer
	width int
}

func newTable(cmd *cobra.Command, headers ...string) *table {
	t := &table{
		tw:    tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0),
		width: util.GetTerminalWidth(),
	}
	if len(headers) > 0 {
		t.row(toAny(headers)...)
	}
	return t
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// row writes one line; long text cells are cut to keep rows on one line
func (t *table) row(cells ...any) {
	parts := make([]string, len(cells))
	limit := t.width / 3
	if limit < 20 {
		limit = 20
	}
	for i, c := range cells {
		s := fmt.Sprint(c)
		s = strings.ReplaceAll(s, "\n", " ")
		parts[i] = util.Truncate(s, limit)
	}
	fmt.Fprintln(t.tw, strings.Join(parts, "\t"))
}

func (t *table) flush() {
	t.tw.Flush()
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// field prints a "Label: value" detail line, skipping empty values
func field(w io.Writer, label string, value any) {
	s := fmt.Sprint(value)
	if s == "" || s == "<nil>" {
		return
	}
	fmt.Fprintf(w, "%-14s %s\n", label+":", s)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: %w", s, util.ErrValidation)
	}
	return id, nil
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			if part == "" {
				continue
			}
			id, err := parseID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// confirmDelete asks before destructive commands unless --yes was given
func confirmDelete(cmd *cobra.Command, what string) bool {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true
	}
	if !util.IsTerminal(os.Stdin.Fd()) {
		util.ErrorLog("Refusing to delete %s without --yes", what)
		return false
	}
	return util.Confirm(os.Stdin, fmt.Sprintf("Delete %s?", what))
}

func addYesFlag(cmd *cobra.Command) {
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// optionalBlob opens the file named by a path flag, or returns nil when the
// flag is empty
func optionalBlob(cmd *cobra.Command, name string) (classify.Blob, error) {
	path, _ := cmd.Flags().GetString(name)
	if path == "" {
		return nil, nil
	}
	b, err := upload.NewFileBlob(path)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return b, nil
}

// stringFlag returns the flag value when it was set on the command line,
// otherwise current
func stringFlag(cmd *cobra.Command, name, current string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return current
}
