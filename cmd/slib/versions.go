package main

import (
	"context"
	"fmt"

	"github.com/franz/score-librarian/internal/api"
	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/classify"
	"github.com/franz/score-librarian/internal/report"
	"github.com/franz/score-librarian/internal/search"
	"github.com/franz/score-librarian/internal/util"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:     "versions",
	Aliases: []string{"version"},
	Short:   "List and manage versions (arrangements) of themes",
}

var versionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List versions",
	Args:  cobra.NoArgs,
	RunE:  runVersionsList,
}

var versionsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a version with its files",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionsShow,
}

var versionsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a version",
	Long: `Create a version of a theme. The type decides how its files are stored
and cannot be changed later without orphaning uploaded files; see 'slib types'.`,
	Args: cobra.NoArgs,
	RunE: runVersionsCreate,
}

var versionsUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change a version; fields not given keep their value",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionsUpdate,
}

var versionsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a version with all its files",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionsDelete,
}

func init() {
	rootCmd.AddCommand(versionsCmd)
	versionsCmd.AddCommand(versionsListCmd, versionsShowCmd, versionsCreateCmd, versionsUpdateCmd, versionsDeleteCmd)

	versionsListCmd.Flags().Int("theme", 0, "only versions of this theme")
	versionsListCmd.Flags().String("type", "", "only versions of this type")
	versionsListCmd.Flags().StringP("search", "s", "", "filter by title, theme or type")
	versionsListCmd.Flags().Bool("json", false, "print JSON")

	versionsShowCmd.Flags().Bool("json", false, "print JSON")

	for _, c := range []*cobra.Command{versionsCreateCmd, versionsUpdateCmd} {
		c.Flags().Int("theme", 0, "theme id")
		c.Flags().String("title", "", "title")
		c.Flags().String("type", "", "STANDARD, DUETO, ENSAMBLE or GRUPO_REDUCIDO")
		c.Flags().String("notes", "", "notes")
		c.Flags().String("image", "", "image file (defaults to the theme's)")
		c.Flags().String("audio", "", "audio file (defaults to the theme's)")
		c.Flags().String("mus", "", "notation source file (.mus)")
	}
	versionsCreateCmd.MarkFlagRequired("theme")
	versionsCreateCmd.MarkFlagRequired("type")

	addYesFlag(versionsDeleteCmd)
}

// quotaText describes a version's file count against its type's bounds
func quotaText(v catalog.Version) string {
	q, err := classify.QuotaStatus(v.Type, v.ChildCount())
	if err != nil {
		return fmt.Sprintf("%d files", v.ChildCount())
	}
	return q.String()
}

func runVersionsList(cmd *cobra.Command, args []string) error {
	themeID, _ := cmd.Flags().GetInt("theme")
	vtype, _ := cmd.Flags().GetString("type")
	query, _ := cmd.Flags().GetString("search")
	asJSON, _ := cmd.Flags().GetBool("json")

	if vtype != "" && !catalog.VersionType(vtype).Valid() {
		return fmt.Errorf("version type %q: %w", vtype, classify.ErrUnknownVersionType)
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		versions, err := a.client.ListVersions(ctx, themeID)
		if err != nil {
			return err
		}
		if vtype != "" {
			kept := versions[:0]
			for _, v := range versions {
				if v.Type == catalog.VersionType(vtype) {
					kept = append(kept, v)
				}
			}
			versions = kept
		}
		versions = search.Filter(versions, query, search.VersionFields)
		if asJSON {
			return printJSON(cmd.OutOrStdout(), versions)
		}

		t := newTable(cmd, "ID", "THEME", "TITLE", "TYPE", "FILES", "UPDATED")
		for _, v := range versions {
			t.row(v.ID, orDash(v.ThemeTitle), orDash(v.Title), v.Type.Label(), quotaText(v), ago(v.UpdatedAt))
		}
		t.flush()
		return nil
	})
}

// versionDetail is a version with everything its detail view shows
type versionDetail struct {
	Version      *catalog.Version      `json:"version"`
	SheetMusic   []catalog.SheetMusic  `json:"sheet_music,omitempty"`
	VersionFiles []catalog.VersionFile `json:"version_files,omitempty"`
	Instruments  []catalog.Instrument  `json:"-"`

	desc classify.TypeDescriptor
}

func (d *versionDetail) childCount() int {
	if d.desc.ChildModel == classify.ChildSheetMusic {
		return len(d.SheetMusic)
	}
	return len(d.VersionFiles)
}

// remoteIDs is the set of child record ids the server holds for the version
func (d *versionDetail) remoteIDs() map[int]bool {
	ids := make(map[int]bool, d.childCount())
	for _, s := range d.SheetMusic {
		ids[s.ID] = true
	}
	for _, f := range d.VersionFiles {
		ids[f.ID] = true
	}
	return ids
}

func (d *versionDetail) instrumentName(id int) string {
	for _, inst := range d.Instruments {
		if inst.ID == id {
			return inst.Name
		}
	}
	return fmt.Sprintf("#%d", id)
}

// loadVersionDetail fetches a version, its child files and the instrument
// list in parallel
func loadVersionDetail(ctx context.Context, c *api.Client, id int) (*versionDetail, error) {
	d := &versionDetail{}
	p := pool.New().WithContext(ctx).WithCancelOnError()

	p.Go(func(ctx context.Context) error {
		v, err := c.GetVersion(ctx, id)
		d.Version = v
		return err
	})
	// both child collections are fetched; the version type picks which one counts
	p.Go(func(ctx context.Context) error {
		s, err := c.ListSheetMusic(ctx, id)
		d.SheetMusic = s
		return err
	})
	p.Go(func(ctx context.Context) error {
		f, err := c.ListVersionFiles(ctx, id)
		d.VersionFiles = f
		return err
	})
	p.Go(func(ctx context.Context) error {
		inst, err := c.ListInstruments(ctx)
		d.Instruments = inst
		return err
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}

	desc, err := classify.DescribeType(d.Version.Type)
	if err != nil {
		return nil, fmt.Errorf("version %d: %w", id, err)
	}
	d.desc = desc
	if desc.ChildModel == classify.ChildSheetMusic {
		d.VersionFiles = nil
	} else {
		d.SheetMusic = nil
	}
	return d, nil
}

func runVersionsShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		d, err := loadVersionDetail(ctx, a.client, id)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), d)
		}

		v := d.Version
		desc := d.desc
		out := cmd.OutOrStdout()
		field(out, "Version", fmt.Sprintf("%d %s", v.ID, v.DisplayTitle()))
		field(out, "Theme", fmt.Sprintf("%d %s", v.Theme, v.ThemeTitle))
		field(out, "Type", fmt.Sprintf("%s (files keyed by %s)", v.Type.Label(), desc.RequiredField))
		if q, err := classify.QuotaStatus(v.Type, d.childCount()); err == nil {
			field(out, "Files", q.String())
		}
		field(out, "Image", v.ImageURL)
		field(out, "Audio", v.AudioURL)
		field(out, "Mus", v.MusFile)
		field(out, "Notes", v.Notes)
		fmt.Fprintln(out)

		if v.Type == catalog.VersionStandard {
			t := newTable(cmd, "ID", "INSTRUMENT", "PART", "CLEF", "KEY", "FILE")
			for _, s := range d.SheetMusic {
				t.row(s.ID, d.instrumentName(s.Instrument), s.Type.Label(), s.Clef, orDash(s.TonalidadRelativa), s.File)
			}
			t.flush()
			return nil
		}

		t := newTable(cmd, "ID", "FILE TYPE", string(desc.RequiredField), "AUDIO", "DESCRIPTION", "FILE")
		for _, f := range d.VersionFiles {
			key := f.Tuning.Label()
			if f.Instrument != nil {
				key = d.instrumentName(*f.Instrument)
			}
			audio := "-"
			if f.Audio != "" {
				audio = "yes"
			}
			t.row(f.ID, f.FileType, key, audio, orDash(f.Description), f.File)
		}
		t.flush()
		return nil
	})
}

func versionInput(cmd *cobra.Command, current catalog.Version) (api.VersionInput, error) {
	in := api.VersionInput{
		Theme: current.Theme,
		Title: stringFlag(cmd, "title", current.Title),
		Type:  catalog.VersionType(stringFlag(cmd, "type", string(current.Type))),
		Notes: stringFlag(cmd, "notes", current.Notes),
	}
	if cmd.Flags().Changed("theme") {
		in.Theme, _ = cmd.Flags().GetInt("theme")
	}

	var err error
	if in.Image, err = optionalBlob(cmd, "image"); err != nil {
		return in, err
	}
	if in.Audio, err = optionalBlob(cmd, "audio"); err != nil {
		return in, err
	}
	if in.Mus, err = optionalBlob(cmd, "mus"); err != nil {
		return in, err
	}
	return in, nil
}

func runVersionsCreate(cmd *cobra.Command, args []string) error {
	in, err := versionInput(cmd, catalog.Version{})
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		v, err := a.client.CreateVersion(ctx, in)
		if err != nil {
			return a.mutation(report.EventCreate, "version", 0, err)
		}
		a.mutation(report.EventCreate, "version", v.ID, nil)
		d, err := classify.DescribeType(v.Type)
		if err != nil {
			return fmt.Errorf("created version %d: %w", v.ID, err)
		}
		util.SuccessLog("Created %s version %d; upload files keyed by %s", v.Type.Label(), v.ID, d.RequiredField)
		return nil
	})
}

func runVersionsUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		current, err := a.client.GetVersion(ctx, id)
		if err != nil {
			return err
		}
		in, err := versionInput(cmd, *current)
		if err != nil {
			return err
		}
		if in.Type != current.Type && current.ChildCount() > 0 {
			util.WarnLog("Changing the type of version %d orphans its %d uploaded files", id, current.ChildCount())
		}

		v, err := a.client.UpdateVersion(ctx, id, in)
		if err := a.mutation(report.EventUpdate, "version", id, err); err != nil {
			return err
		}
		util.SuccessLog("Updated version %d %s", v.ID, v.DisplayTitle())
		return nil
	})
}

func runVersionsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if !confirmDelete(cmd, fmt.Sprintf("version %d and all its files", id)) {
		return nil
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.mutation(report.EventDelete, "version", id, a.client.DeleteVersion(ctx, id)); err != nil {
			return err
		}
		util.SuccessLog("Deleted version %d", id)
		return nil
	})
}
