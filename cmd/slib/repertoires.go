package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/franz/score-librarian/internal/api"
	"github.com/franz/score-librarian/internal/classify"
	"github.com/franz/score-librarian/internal/report"
	"github.com/franz/score-librarian/internal/search"
	"github.com/franz/score-librarian/internal/util"
	"github.com/spf13/cobra"
)

var repertoiresCmd = &cobra.Command{
	Use:     "repertoires",
	Aliases: []string{"repertoire", "rep"},
	Short:   "List and manage repertoires (ordered sets of versions)",
}

var repertoiresListCmd = &cobra.Command{
	Use:   "list",
	Short: "List repertoires",
	Args:  cobra.NoArgs,
	RunE:  runRepertoiresList,
}

var repertoiresShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a repertoire in play order",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepertoiresShow,
}

var repertoiresCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a repertoire",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepertoiresCreate,
}

var repertoiresAddCmd = &cobra.Command{
	Use:   "add ID VERSION...",
	Short: "Add versions to a repertoire",
	Long: `Add versions to a repertoire. Versions already in it are reported and
left alone; the rest are sent in one request. VERSION may be a comma-separated
list.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRepertoiresAdd,
}

var repertoiresRemoveCmd = &cobra.Command{
	Use:   "remove ID VERSION...",
	Short: "Remove versions from a repertoire",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runRepertoiresRemove,
}

var repertoiresDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a repertoire",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepertoiresDelete,
}

func init() {
	rootCmd.AddCommand(repertoiresCmd)
	repertoiresCmd.AddCommand(repertoiresListCmd, repertoiresShowCmd, repertoiresCreateCmd,
		repertoiresAddCmd, repertoiresRemoveCmd, repertoiresDeleteCmd)

	repertoiresListCmd.Flags().StringP("search", "s", "", "filter by name or description")
	repertoiresListCmd.Flags().Bool("json", false, "print JSON")

	repertoiresShowCmd.Flags().Bool("json", false, "print JSON")

	repertoiresCreateCmd.Flags().String("description", "", "description")
	repertoiresCreateCmd.Flags().Bool("inactive", false, "create the repertoire as inactive")

	addYesFlag(repertoiresDeleteCmd)
}

func runRepertoiresList(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("search")
	asJSON, _ := cmd.Flags().GetBool("json")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		reps, err := a.client.ListRepertoires(ctx)
		if err != nil {
			return err
		}
		reps = search.Filter(reps, query, search.RepertoireFields)
		if asJSON {
			return printJSON(cmd.OutOrStdout(), reps)
		}

		t := newTable(cmd, "ID", "NAME", "VERSIONS", "ACTIVE", "UPDATED")
		for _, r := range reps {
			count := r.VersionCount
			if count == 0 {
				count = len(r.Versions)
			}
			t.row(r.ID, r.Name, count, r.IsActive, ago(r.UpdatedAt))
		}
		t.flush()
		return nil
	})
}

func runRepertoiresShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		r, err := a.client.GetRepertoire(ctx, id)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), r)
		}

		out := cmd.OutOrStdout()
		field(out, "Repertoire", fmt.Sprintf("%d %s", r.ID, r.Name))
		field(out, "Active", r.IsActive)
		field(out, "Description", r.Description)
		fmt.Fprintln(out)

		entries := r.Versions
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Order < entries[j].Order })
		t := newTable(cmd, "#", "VERSION", "THEME", "TITLE", "TYPE", "NOTES")
		for _, rv := range entries {
			v := rv.Version
			t.row(rv.Order, v.ID, orDash(v.ThemeTitle), v.DisplayTitle(), v.Type.Label(), orDash(rv.Notes))
		}
		t.flush()
		return nil
	})
}

func runRepertoiresCreate(cmd *cobra.Command, args []string) error {
	description, _ := cmd.Flags().GetString("description")
	inactive, _ := cmd.Flags().GetBool("inactive")
	active := !inactive
	in := api.RepertoireInput{Name: args[0], Description: description, IsActive: &active}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		r, err := a.client.CreateRepertoire(ctx, in)
		if err != nil {
			return a.mutation(report.EventCreate, "repertoire", 0, err)
		}
		a.mutation(report.EventCreate, "repertoire", r.ID, nil)
		util.SuccessLog("Created repertoire %d %s", r.ID, r.Name)
		return nil
	})
}

func runRepertoiresAdd(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	candidates, err := parseIDs(args[1:])
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		r, err := a.client.GetRepertoire(ctx, id)
		if err != nil {
			return err
		}

		part := classify.DedupeAgainstExisting(candidates, r.MemberIDs())
		for _, vid := range part.AlreadyAdded {
			util.WarnLog("Version %d is already in %s", vid, r.Name)
		}
		if len(part.Addable) == 0 {
			util.InfoLog("Nothing to add")
			return nil
		}

		res, err := a.client.AddVersions(ctx, id, part.Addable)
		if err := a.mutation(report.EventUpdate, "repertoire", id, err); err != nil {
			return err
		}
		for _, msg := range res.Errors {
			util.ErrorLog("%s", msg)
		}

		added := len(part.Addable) - len(res.Errors)
		util.SuccessLog("Added %d version(s) to %s", added, r.Name)
		if len(res.Errors) > 0 {
			return fmt.Errorf("%d version(s) could not be added", len(res.Errors))
		}
		return nil
	})
}

func runRepertoiresRemove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ids, err := parseIDs(args[1:])
	if err != nil {
		return err
	}
	drop := make(map[int]bool, len(ids))
	for _, vid := range ids {
		drop[vid] = true
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		r, err := a.client.GetRepertoire(ctx, id)
		if err != nil {
			return err
		}

		entries := r.Versions
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Order < entries[j].Order })

		var keep []api.RepertoireEntry
		removed := 0
		for _, rv := range entries {
			vid := rv.VersionID
			if vid == 0 {
				vid = rv.Version.ID
			}
			if drop[vid] {
				removed++
				continue
			}
			keep = append(keep, api.RepertoireEntry{VersionID: vid, Order: len(keep) + 1, Notes: rv.Notes})
		}
		if removed == 0 {
			util.InfoLog("None of those versions are in %s", r.Name)
			return nil
		}

		_, err = a.client.SetRepertoireVersions(ctx, id, keep)
		if err := a.mutation(report.EventUpdate, "repertoire", id, err); err != nil {
			return err
		}
		util.SuccessLog("Removed %d version(s) from %s", removed, r.Name)
		return nil
	})
}

func runRepertoiresDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if !confirmDelete(cmd, fmt.Sprintf("repertoire %d", id)) {
		return nil
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.mutation(report.EventDelete, "repertoire", id, a.client.DeleteRepertoire(ctx, id)); err != nil {
			return err
		}
		util.SuccessLog("Deleted repertoire %d", id)
		return nil
	})
}
