package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/classify"
	"github.com/franz/score-librarian/internal/music"
	"github.com/franz/score-librarian/internal/report"
	"github.com/franz/score-librarian/internal/search"
	"github.com/franz/score-librarian/internal/store"
	"github.com/franz/score-librarian/internal/upload"
	"github.com/franz/score-librarian/internal/util"
	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:     "files",
	Aliases: []string{"file"},
	Short:   "List, upload and manage the files of a version",
	Long: `Manage the per-instrument files of a version.

STANDARD versions keep one sheet-music part per instrument. DUETO versions
keep one transposition per tuning (Bb, Eb, F, C, C_BASS). ENSAMBLE and
GRUPO_REDUCIDO versions keep one file per instrument, with instrument-count
bounds. Every upload is checked against these rules before it is sent.`,
}

var filesListCmd = &cobra.Command{
	Use:   "list VERSION",
	Short: "List the files of a version",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesList,
}

var filesUploadCmd = &cobra.Command{
	Use:   "upload VERSION [PDF...]",
	Short: "Upload sheet PDFs to a version",
	Long: `Upload one or more PDFs to a version.

With --instrument or --tuning a single file is uploaded with that key.
Otherwise each file name says what it is: duet files are named after their
tuning (Bb.pdf, C_BASS.pdf), all other files after the instrument
("Trompeta.pdf", "03 Saxofón Alto.pdf"). An audio file with the same name
(.mp3, .m4a, .flac, .ogg) is attached where the version type allows it.

Files are sent one at a time and the instrument-count limit is checked before
each one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFilesUpload,
}

var filesUpdateCmd = &cobra.Command{
	Use:   "update VERSION FILE_ID",
	Short: "Change the key, part or attachments of an uploaded file",
	Args:  cobra.ExactArgs(2),
	RunE:  runFilesUpdate,
}

var filesDeleteCmd = &cobra.Command{
	Use:   "delete VERSION FILE_ID",
	Short: "Delete an uploaded file",
	Args:  cobra.ExactArgs(2),
	RunE:  runFilesDelete,
}

var filesResolveCmd = &cobra.Command{
	Use:   "resolve VERSION INSTRUMENT_ID",
	Short: "Show which file an instrument plays from",
	Args:  cobra.ExactArgs(2),
	RunE:  runFilesResolve,
}

var filesHistoryCmd = &cobra.Command{
	Use:   "history VERSION",
	Short: "Show local upload history for a version",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesHistory,
}

func init() {
	rootCmd.AddCommand(filesCmd)
	filesCmd.AddCommand(filesListCmd, filesUploadCmd, filesUpdateCmd, filesDeleteCmd, filesResolveCmd, filesHistoryCmd)

	filesListCmd.Flags().StringP("search", "s", "", "filter by tuning, instrument or description")

	for _, c := range []*cobra.Command{filesUploadCmd, filesUpdateCmd} {
		c.Flags().Int("instrument", 0, "instrument id")
		c.Flags().String("tuning", "", "duet tuning: Bb, Eb, F, C or C_BASS")
		c.Flags().String("part", "", "STANDARD part type: MELODIA_PRINCIPAL, MELODIA_SECUNDARIA, ARMONIA or BAJO")
		c.Flags().String("clef", "", "STANDARD clef: SOL or FA (default from the instrument)")
		c.Flags().String("audio", "", "audio file to attach")
		c.Flags().String("description", "", "description")
	}
	filesUploadCmd.Flags().String("dir", "", "upload every PDF in this folder")
	filesUploadCmd.Flags().Bool("dry-run", false, "check the files without uploading")
	filesUploadCmd.Flags().Bool("skip-duplicates", true, "skip files whose content was already uploaded to the version")
	filesUploadCmd.Flags().Bool("no-audio", false, "do not attach same-named audio files")

	filesUpdateCmd.Flags().String("file", "", "replacement PDF")

	addYesFlag(filesDeleteCmd)
	filesHistoryCmd.Flags().Int("limit", 20, "number of rows")
}

func runFilesList(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	query, _ := cmd.Flags().GetString("search")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		d, err := loadVersionDetail(ctx, a.client, id)
		if err != nil {
			return err
		}

		if d.Version.Type == catalog.VersionStandard {
			sheets := search.Filter(d.SheetMusic, query, func(s catalog.SheetMusic) []string {
				return search.SheetMusicFields(s, d.instrumentName(s.Instrument))
			})
			t := newTable(cmd, "ID", "INSTRUMENT", "PART", "CLEF", "KEY", "UPDATED")
			for _, s := range sheets {
				t.row(s.ID, d.instrumentName(s.Instrument), s.Type.Label(), s.Clef, orDash(s.TonalidadRelativa), ago(s.UpdatedAt))
			}
			t.flush()
		} else {
			files := search.Filter(d.VersionFiles, query, search.VersionFileFields)
			t := newTable(cmd, "ID", "FILE TYPE", "TUNING", "INSTRUMENT", "AUDIO", "UPDATED")
			for _, f := range files {
				inst := "-"
				if f.Instrument != nil {
					inst = d.instrumentName(*f.Instrument)
				}
				audio := "-"
				if f.Audio != "" {
					audio = "yes"
				}
				t.row(f.ID, f.FileType, orDash(string(f.Tuning)), inst, audio, ago(f.UpdatedAt))
			}
			t.flush()
		}

		if q, err := classify.QuotaStatus(d.Version.Type, d.childCount()); err == nil {
			util.InfoLog("%s: %s", d.Version.DisplayTitle(), q)
		}
		return nil
	})
}

// payloadFlags reads the discriminator and attachment flags shared by upload
// and update
func payloadFlags(cmd *cobra.Command) classify.Payload {
	instrument, _ := cmd.Flags().GetInt("instrument")
	tuning, _ := cmd.Flags().GetString("tuning")
	part, _ := cmd.Flags().GetString("part")
	clef, _ := cmd.Flags().GetString("clef")
	description, _ := cmd.Flags().GetString("description")

	p := classify.Payload{
		Instrument:  instrument,
		SheetType:   catalog.SheetType(part),
		Clef:        catalog.Clef(clef),
		Description: description,
	}
	if tuning != "" {
		if t, ok := upload.ParseTuning(tuning); ok {
			p.Tuning = t
		} else {
			// left as given so validation reports it
			p.Tuning = catalog.Tuning(tuning)
		}
	}
	return p
}

// uploadItems turns the command arguments into upload items, resolving each
// file's key from its name unless one was given explicitly
func uploadItems(cmd *cobra.Command, d *versionDetail, paths []string) ([]upload.Item, []error) {
	base := payloadFlags(cmd)
	audioFlag, _ := cmd.Flags().GetString("audio")
	noAudio, _ := cmd.Flags().GetBool("no-audio")
	noAudio = noAudio || GetConfigBool("no-audio")
	explicit := base.Instrument > 0 || base.Tuning != ""
	takesAudio := d.desc.ChildModel == classify.ChildVersionFile

	var candidates []upload.Candidate
	dir, _ := cmd.Flags().GetString("dir")
	if dir != "" {
		found, err := upload.Collect(dir)
		if err != nil {
			return nil, []error{err}
		}
		candidates = append(candidates, found...)
	}
	for _, p := range paths {
		candidates = append(candidates, upload.Candidate{Path: p, AudioPath: upload.AudioSibling(p)})
	}

	if explicit && len(candidates) != 1 {
		return nil, []error{fmt.Errorf("--instrument and --tuning apply to a single file, got %d: %w", len(candidates), util.ErrValidation)}
	}

	var items []upload.Item
	var errs []error
	for _, c := range candidates {
		p := base
		p.Mode = classify.ModeCreate

		if !explicit {
			m, err := upload.ParseFilename(c.Path, d.Version.Type, d.Instruments)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			p.Tuning = m.Tuning
			if m.Instrument != nil {
				p.Instrument = m.Instrument.ID
			}
		}

		if d.Version.Type == catalog.VersionStandard && p.Clef == "" && p.Instrument > 0 {
			p.Clef = music.SuggestClef(d.instrumentName(p.Instrument))
		}

		item := upload.Item{Path: c.Path, Payload: p}
		switch {
		case audioFlag != "":
			item.AudioPath = audioFlag
		case takesAudio && !noAudio:
			item.AudioPath = c.AudioPath
		}
		items = append(items, item)
	}
	return items, errs
}

func runFilesUpload(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	skipDup, _ := cmd.Flags().GetBool("skip-duplicates")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		d, err := loadVersionDetail(ctx, a.client, id)
		if err != nil {
			return err
		}

		items, errs := uploadItems(cmd, d, args[1:])
		for _, err := range errs {
			util.ErrorLog("%v", err)
			a.events.LogRejected(id, "", err)
		}
		if len(items) == 0 {
			return fmt.Errorf("nothing to upload: %w", util.ErrValidation)
		}

		existing := d.childCount()
		if q, err := classify.QuotaStatus(d.Version.Type, existing); err == nil && q.Full() {
			util.WarnLog("%s already has %s", d.Version.DisplayTitle(), q)
		}

		u := upload.New(&upload.Config{
			Client:         a.client,
			Recorder:       a.store,
			EventLogger:    a.events,
			SkipDuplicates: skipDup,
			RemoteIDs:      d.remoteIDs(),
			DryRun:         dryRun,
			ShowProgress:   true,
		})
		result, err := u.UploadAll(ctx, *d.Version, existing, items)
		if result != nil {
			util.InfoLog("Uploaded %d, skipped %d, rejected %d, failed %d in %s",
				result.Uploaded, result.Skipped, result.Rejected, result.Failed, result.Duration.Round(time.Millisecond))
			if q, qerr := classify.QuotaStatus(d.Version.Type, existing+result.Uploaded); qerr == nil && !dryRun {
				util.InfoLog("%s now has %s", d.Version.DisplayTitle(), q)
			}
		}
		if err != nil {
			return err
		}
		if bad := len(errs) + result.Rejected + result.Failed; bad > 0 {
			return fmt.Errorf("%d file(s) were not uploaded", bad)
		}
		return nil
	})
}

func runFilesUpdate(cmd *cobra.Command, args []string) error {
	versionID, err := parseID(args[0])
	if err != nil {
		return err
	}
	childID, err := parseID(args[1])
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		d, err := loadVersionDetail(ctx, a.client, versionID)
		if err != nil {
			return err
		}

		p := payloadFlags(cmd)
		p.Mode = classify.ModeUpdate
		p.ChildID = childID
		if err := fillCurrentKey(d, &p); err != nil {
			return err
		}
		if p.File, err = optionalBlob(cmd, "file"); err != nil {
			return err
		}
		if p.Audio, err = optionalBlob(cmd, "audio"); err != nil {
			return err
		}
		if p.File != nil {
			if err := upload.RequireKind(p.File, upload.KindPDF); err != nil {
				return err
			}
		}
		if p.Audio != nil {
			if err := upload.RequireKind(p.Audio, upload.KindAudio); err != nil {
				return err
			}
		}

		sub, err := classify.BuildSubmission(d.Version.Type, versionID, p, d.childCount())
		if err != nil {
			a.events.LogRejected(versionID, "", err)
			return err
		}
		res, err := a.client.Submit(ctx, sub)
		if err := a.mutation(report.EventUpdate, string(sub.ChildModel), childID, err); err != nil {
			return err
		}
		util.SuccessLog("Updated %s %d (%s)", sub.ChildModel, res.ID(), sub.Discriminator)
		return nil
	})
}

// fillCurrentKey keeps the stored discriminator when the update does not
// change it, since every submission must carry one
func fillCurrentKey(d *versionDetail, p *classify.Payload) error {
	if d.Version.Type == catalog.VersionStandard {
		for _, s := range d.SheetMusic {
			if s.ID == p.ChildID {
				if p.Instrument == 0 {
					p.Instrument = s.Instrument
				}
				return nil
			}
		}
		return fmt.Errorf("sheet music %d is not part of version %d: %w", p.ChildID, d.Version.ID, util.ErrNotFound)
	}

	for _, f := range d.VersionFiles {
		if f.ID == p.ChildID {
			if p.Tuning == "" {
				p.Tuning = f.Tuning
			}
			if p.Instrument == 0 && f.Instrument != nil {
				p.Instrument = *f.Instrument
			}
			return nil
		}
	}
	return fmt.Errorf("file %d is not part of version %d: %w", p.ChildID, d.Version.ID, util.ErrNotFound)
}

func runFilesDelete(cmd *cobra.Command, args []string) error {
	versionID, err := parseID(args[0])
	if err != nil {
		return err
	}
	childID, err := parseID(args[1])
	if err != nil {
		return err
	}
	if !confirmDelete(cmd, fmt.Sprintf("file %d of version %d", childID, versionID)) {
		return nil
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		v, err := a.client.GetVersion(ctx, versionID)
		if err != nil {
			return err
		}
		desc, err := classify.DescribeType(v.Type)
		if err != nil {
			return fmt.Errorf("version %d: %w", versionID, err)
		}
		model := desc.ChildModel

		if err := a.mutation(report.EventDelete, string(model), childID, a.client.DeleteChild(ctx, model, childID)); err != nil {
			return err
		}
		if err := a.store.ForgetRemote(string(model), childID); err != nil {
			util.WarnLog("Failed to update upload history: %v", err)
		}
		util.SuccessLog("Deleted %s %d", model, childID)
		return nil
	})
}

func runFilesResolve(cmd *cobra.Command, args []string) error {
	versionID, err := parseID(args[0])
	if err != nil {
		return err
	}
	instrumentID, err := parseID(args[1])
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		d, err := loadVersionDetail(ctx, a.client, versionID)
		if err != nil {
			return err
		}
		var inst *catalog.Instrument
		for i := range d.Instruments {
			if d.Instruments[i].ID == instrumentID {
				inst = &d.Instruments[i]
			}
		}
		if inst == nil {
			return fmt.Errorf("instrument %d: %w", instrumentID, util.ErrNotFound)
		}

		out := cmd.OutOrStdout()
		field(out, "Instrument", fmt.Sprintf("%s (%s, %s clef)", inst.Name, orDash(string(inst.Afinacion)), music.SuggestClef(inst.Name)))
		if theme, err := a.client.GetTheme(ctx, d.Version.Theme); err == nil && theme.Tonalidad != "" {
			field(out, "Written key", fmt.Sprintf("%s (concert %s)", music.RelativeTonality(theme.Tonalidad, inst.Afinacion), theme.Tonalidad))
		}

		if d.Version.Type == catalog.VersionStandard {
			sheets := classify.ResolveSheetForInstrument(*d.Version, *inst, d.SheetMusic)
			if len(sheets) == 0 {
				return fmt.Errorf("no part for %s in version %d: %w", inst.Name, versionID, util.ErrNotFound)
			}
			for _, s := range sheets {
				field(out, s.Type.Label(), fmt.Sprintf("%d %s", s.ID, s.File))
			}
			return nil
		}

		f, ok := classify.ResolveFileForInstrument(*d.Version, *inst, d.VersionFiles)
		if !ok {
			return fmt.Errorf("no file for %s in version %d: %w", inst.Name, versionID, util.ErrNotFound)
		}
		field(out, "File", fmt.Sprintf("%d %s", f.ID, f.File))
		field(out, "Tuning", f.Tuning.Label())
		field(out, "Audio", f.Audio)
		return nil
	})
}

func runFilesHistory(cmd *cobra.Command, args []string) error {
	versionID, err := parseID(args[0])
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if !cmd.Flags().Changed("limit") {
		limit = GetConfigInt("history-limit", limit)
	}

	db, err := store.Open(GetConfigString("db", "slib-state.db"))
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer db.Close()

	rows, err := db.GetUploadsByVersion(versionID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		util.InfoLog("No uploads recorded for version %d", versionID)
		return nil
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	t := newTable(cmd, "WHEN", "FILE", "KEY", "STATUS", "REMOTE", "ERROR")
	for _, u := range rows {
		remote := "-"
		if u.RemoteID > 0 {
			remote = fmt.Sprintf("%s %d", u.ChildModel, u.RemoteID)
		}
		t.row(ago(u.CreatedAt), upload.Stem(u.SrcPath), orDash(u.Discriminator), u.Status, remote, orDash(u.Error))
	}
	t.flush()
	return nil
}

// isFatal reports whether an upload error should stop a batch or the watcher
func isFatal(err error) bool {
	return errors.Is(err, util.ErrSessionExpired) || errors.Is(err, util.ErrNotAuthenticated) ||
		errors.Is(err, context.Canceled)
}
