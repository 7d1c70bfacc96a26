package main

import (
	"strconv"
	"strings"

	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/classify"
	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "Show how each version type stores its files",
	Long: `Show the child-file model of every version type: which collection the
files go to, which field tells them apart, and how many instruments the type
allows.`,
	Args: cobra.NoArgs,
	RunE: runTypes,
}

func init() {
	rootCmd.AddCommand(typesCmd)
}

func bound(n int) string {
	if n == 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

func runTypes(cmd *cobra.Command, args []string) error {
	t := newTable(cmd, "TYPE", "NAME", "FILES IN", "FILE TYPE", "KEYED BY", "ALLOWED", "MIN", "MAX")
	for _, vt := range catalog.VersionTypes {
		d := classify.MustDescribe(vt)
		allowed := "instrument id"
		if len(d.AllowedValues) > 0 {
			allowed = strings.Join(d.AllowedValues, " ")
		}
		t.row(vt, vt.Label(), d.Endpoint(), orDash(string(d.FileType)), d.RequiredField, allowed, bound(d.MinCount), bound(d.MaxCount))
	}
	t.flush()
	return nil
}
