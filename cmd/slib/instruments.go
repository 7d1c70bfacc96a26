package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/franz/score-librarian/internal/api"
	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/music"
	"github.com/franz/score-librarian/internal/report"
	"github.com/franz/score-librarian/internal/search"
	"github.com/franz/score-librarian/internal/util"
	"github.com/spf13/cobra"
)

var instrumentsCmd = &cobra.Command{
	Use:     "instruments",
	Aliases: []string{"instrument"},
	Short:   "List and manage instruments",
}

var instrumentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List instruments",
	Args:  cobra.NoArgs,
	RunE:  runInstrumentsList,
}

var instrumentsCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create an instrument",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstrumentsCreate,
}

var instrumentsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an instrument",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstrumentsDelete,
}

func init() {
	rootCmd.AddCommand(instrumentsCmd)
	instrumentsCmd.AddCommand(instrumentsListCmd, instrumentsCreateCmd, instrumentsDeleteCmd)

	instrumentsListCmd.Flags().StringP("search", "s", "", "filter by name, family or afinación")
	instrumentsListCmd.Flags().Bool("json", false, "print JSON")

	instrumentsCreateCmd.Flags().String("family", "", "VIENTO_MADERA, VIENTO_METAL or PERCUSION")
	instrumentsCreateCmd.Flags().String("afinacion", "", "Bb, Eb, F, C, G, D, A, E or NONE (default NONE)")

	addYesFlag(instrumentsDeleteCmd)
}

func runInstrumentsList(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("search")
	asJSON, _ := cmd.Flags().GetBool("json")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		instruments, err := a.client.ListInstruments(ctx)
		if err != nil {
			return err
		}
		instruments = search.Filter(instruments, query, search.InstrumentFields)
		sort.Slice(instruments, func(i, j int) bool { return instruments[i].Name < instruments[j].Name })
		if asJSON {
			return printJSON(cmd.OutOrStdout(), instruments)
		}

		t := newTable(cmd, "ID", "NAME", "FAMILY", "AFINACION", "CLEF", "DUET PART")
		for _, inst := range instruments {
			t.row(inst.ID, inst.Name, orDash(string(inst.Family)), orDash(string(inst.Afinacion)),
				music.SuggestClef(inst.Name), music.DuetTuningFor(inst))
		}
		t.flush()
		return nil
	})
}

func runInstrumentsCreate(cmd *cobra.Command, args []string) error {
	family, _ := cmd.Flags().GetString("family")
	afinacion, _ := cmd.Flags().GetString("afinacion")
	in := api.InstrumentInput{
		Name:      args[0],
		Family:    catalog.InstrumentFamily(family),
		Afinacion: catalog.InstrumentTuning(afinacion),
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		inst, err := a.client.CreateInstrument(ctx, in)
		if err != nil {
			return a.mutation(report.EventCreate, "instrument", 0, err)
		}
		a.mutation(report.EventCreate, "instrument", inst.ID, nil)
		util.SuccessLog("Created instrument %d %s (%s clef)", inst.ID, inst.Name, music.SuggestClef(inst.Name))
		return nil
	})
}

func runInstrumentsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if !confirmDelete(cmd, fmt.Sprintf("instrument %d", id)) {
		return nil
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.mutation(report.EventDelete, "instrument", id, a.client.DeleteInstrument(ctx, id)); err != nil {
			return err
		}
		util.SuccessLog("Deleted instrument %d", id)
		return nil
	})
}
