package main

import (
	"context"
	"fmt"

	"github.com/franz/score-librarian/internal/api"
	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/music"
	"github.com/franz/score-librarian/internal/report"
	"github.com/franz/score-librarian/internal/search"
	"github.com/franz/score-librarian/internal/util"
	"github.com/spf13/cobra"
)

var themesCmd = &cobra.Command{
	Use:     "themes",
	Aliases: []string{"theme"},
	Short:   "List and manage themes",
}

var themesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List themes",
	Args:  cobra.NoArgs,
	RunE:  runThemesList,
}

var themesShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a theme and its versions",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemesShow,
}

var themesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a theme",
	Args:  cobra.NoArgs,
	RunE:  runThemesCreate,
}

var themesUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change a theme; fields not given keep their value",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemesUpdate,
}

var themesDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a theme with all its versions and files",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemesDelete,
}

func init() {
	rootCmd.AddCommand(themesCmd)
	themesCmd.AddCommand(themesListCmd, themesShowCmd, themesCreateCmd, themesUpdateCmd, themesDeleteCmd)

	themesListCmd.Flags().StringP("search", "s", "", "filter by title or artist")
	themesListCmd.Flags().Bool("json", false, "print JSON")

	for _, c := range []*cobra.Command{themesCreateCmd, themesUpdateCmd} {
		c.Flags().String("title", "", "title")
		c.Flags().String("artist", "", "artist or composer")
		c.Flags().String("tonalidad", "", "concert key, e.g. Bb or Gm")
		c.Flags().String("description", "", "description")
		c.Flags().String("image", "", "cover image file")
		c.Flags().String("audio", "", "reference recording")
	}
	themesCreateCmd.MarkFlagRequired("title")

	addYesFlag(themesDeleteCmd)
}

func runThemesList(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("search")
	asJSON, _ := cmd.Flags().GetBool("json")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		themes, err := a.client.ListThemes(ctx)
		if err != nil {
			return err
		}
		themes = search.Filter(themes, query, search.ThemeFields)
		if asJSON {
			return printJSON(cmd.OutOrStdout(), themes)
		}

		t := newTable(cmd, "ID", "TITLE", "ARTIST", "KEY", "VERSIONS", "UPDATED")
		for _, th := range themes {
			t.row(th.ID, th.Title, orDash(th.Artist), orDash(th.Tonalidad), len(th.Versions), ago(th.UpdatedAt))
		}
		t.flush()
		util.DebugLog("%d themes", len(themes))
		return nil
	})
}

func runThemesShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		th, err := a.client.GetTheme(ctx, id)
		if err != nil {
			return err
		}
		versions, err := a.client.ListVersions(ctx, id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		field(out, "Theme", fmt.Sprintf("%d %s", th.ID, th.Title))
		field(out, "Artist", th.Artist)
		field(out, "Key", th.Tonalidad)
		field(out, "Image", th.Image)
		field(out, "Audio", th.Audio)
		field(out, "Description", th.Description)
		fmt.Fprintln(out)

		t := newTable(cmd, "VERSION", "TITLE", "TYPE", "FILES")
		for _, v := range versions {
			t.row(v.ID, v.DisplayTitle(), v.Type.Label(), quotaText(v))
		}
		t.flush()
		return nil
	})
}

func themeInput(cmd *cobra.Command, current catalog.Theme) (api.ThemeInput, error) {
	in := api.ThemeInput{
		Title:       stringFlag(cmd, "title", current.Title),
		Artist:      stringFlag(cmd, "artist", current.Artist),
		Tonalidad:   stringFlag(cmd, "tonalidad", current.Tonalidad),
		Description: stringFlag(cmd, "description", current.Description),
	}
	if in.Title == "" {
		return in, fmt.Errorf("title is required: %w", util.ErrValidation)
	}
	if in.Tonalidad != "" && !music.ValidKey(in.Tonalidad) {
		return in, fmt.Errorf("unknown tonalidad %q (expected one of %v): %w", in.Tonalidad, music.Keys, util.ErrValidation)
	}

	var err error
	if in.Image, err = optionalBlob(cmd, "image"); err != nil {
		return in, err
	}
	if in.Audio, err = optionalBlob(cmd, "audio"); err != nil {
		return in, err
	}
	return in, nil
}

func runThemesCreate(cmd *cobra.Command, args []string) error {
	in, err := themeInput(cmd, catalog.Theme{})
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		th, err := a.client.CreateTheme(ctx, in)
		if err != nil {
			return a.mutation(report.EventCreate, "theme", 0, err)
		}
		a.mutation(report.EventCreate, "theme", th.ID, nil)
		util.SuccessLog("Created theme %d %s", th.ID, th.Title)
		return nil
	})
}

func runThemesUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		current, err := a.client.GetTheme(ctx, id)
		if err != nil {
			return err
		}
		in, err := themeInput(cmd, *current)
		if err != nil {
			return err
		}
		th, err := a.client.UpdateTheme(ctx, id, in)
		if err := a.mutation(report.EventUpdate, "theme", id, err); err != nil {
			return err
		}
		util.SuccessLog("Updated theme %d %s", th.ID, th.Title)
		return nil
	})
}

func runThemesDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if !confirmDelete(cmd, fmt.Sprintf("theme %d and all its versions", id)) {
		return nil
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.mutation(report.EventDelete, "theme", id, a.client.DeleteTheme(ctx, id)); err != nil {
			return err
		}
		util.SuccessLog("Deleted theme %d", id)
		return nil
	})
}
