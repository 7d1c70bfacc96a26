package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/music"
	"github.com/franz/score-librarian/internal/util"
	"github.com/spf13/cobra"
)

var tonalityCmd = &cobra.Command{
	Use:   "tonality [KEY]",
	Short: "Show the written key, clef and duet part for each instrument",
	Long: `Transpose a concert key for the band's instruments.

With --tuning the answer is computed offline for a single afinación.
Otherwise every instrument is listed with its written key, suggested clef and
the duet part it reads from. The key can also be taken from a theme with
--theme.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTonality,
}

func init() {
	rootCmd.AddCommand(tonalityCmd)

	tonalityCmd.Flags().String("tuning", "", "instrument afinación (Bb, Eb, F, C, G, D, A, E, NONE)")
	tonalityCmd.Flags().Int("theme", 0, "take the key from this theme")
}

func runTonality(cmd *cobra.Command, args []string) error {
	key := ""
	if len(args) == 1 {
		key = args[0]
	}
	tuning, _ := cmd.Flags().GetString("tuning")
	themeID, _ := cmd.Flags().GetInt("theme")

	if themeID == 0 && key == "" {
		return fmt.Errorf("give a key or --theme: %w", util.ErrValidation)
	}
	if key != "" && !music.ValidKey(key) {
		return fmt.Errorf("unknown key %q (expected one of %v): %w", key, music.Keys, util.ErrValidation)
	}

	if tuning != "" && themeID == 0 {
		t := catalog.InstrumentTuning(tuning)
		if !t.Valid() {
			return fmt.Errorf("unknown afinación %q: %w", tuning, util.ErrValidation)
		}
		fmt.Fprintln(cmd.OutOrStdout(), music.RelativeTonality(key, t))
		return nil
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if themeID > 0 {
			theme, err := a.client.GetTheme(ctx, themeID)
			if err != nil {
				return err
			}
			if theme.Tonalidad == "" {
				return fmt.Errorf("theme %d has no tonalidad: %w", themeID, util.ErrValidation)
			}
			key = theme.Tonalidad
			util.InfoLog("%s is in %s", theme.Title, key)
		}

		instruments, err := a.client.ListInstruments(ctx)
		if err != nil {
			return err
		}
		sort.Slice(instruments, func(i, j int) bool { return instruments[i].Name < instruments[j].Name })

		t := newTable(cmd, "INSTRUMENT", "AFINACION", "WRITTEN KEY", "CLEF", "DUET PART")
		for _, inst := range instruments {
			t.row(inst.Name, orDash(string(inst.Afinacion)),
				music.RelativeTonality(key, inst.Afinacion), music.SuggestClef(inst.Name), music.DuetTuningFor(inst))
		}
		t.flush()
		return nil
	})
}
