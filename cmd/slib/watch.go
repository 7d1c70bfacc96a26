package main

import (
	"context"
	"fmt"

	"github.com/franz/score-librarian/internal/classify"
	"github.com/franz/score-librarian/internal/music"
	"github.com/franz/score-librarian/internal/upload"
	"github.com/franz/score-librarian/internal/util"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch VERSION DIR",
	Short: "Upload PDFs to a version as they are dropped into a folder",
	Long: `Watch a folder and upload each PDF that appears in it to a version.

File names are resolved the same way as 'slib files upload'. A file is sent
once it has stopped changing for the debounce interval. The instrument-count
limit is checked against the running total, so a full version rejects further
files. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("debounce", upload.DefaultDebounce, "how long a file must stay unchanged")
	watchCmd.Flags().Bool("skip-duplicates", true, "skip files whose content was already uploaded to the version")
	watchCmd.Flags().Bool("no-audio", false, "do not attach same-named audio files")
}

func runWatch(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	dir := args[1]
	debounce, _ := cmd.Flags().GetDuration("debounce")
	skipDup, _ := cmd.Flags().GetBool("skip-duplicates")
	noAudio, _ := cmd.Flags().GetBool("no-audio")
	noAudio = noAudio || GetConfigBool("no-audio")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		d, err := loadVersionDetail(ctx, a.client, id)
		if err != nil {
			return err
		}
		desc := d.desc
		existing := d.childCount()
		if q, err := classify.QuotaStatus(d.Version.Type, existing); err == nil {
			util.InfoLog("%s (%s): %s", d.Version.DisplayTitle(), d.Version.Type.Label(), q)
		}

		u := upload.New(&upload.Config{
			Client:         a.client,
			Recorder:       a.store,
			EventLogger:    a.events,
			SkipDuplicates: skipDup,
			RemoteIDs:      d.remoteIDs(),
		})

		handle := func(ctx context.Context, path string) error {
			m, err := upload.ParseFilename(path, d.Version.Type, d.Instruments)
			if err != nil {
				a.events.LogRejected(id, path, err)
				return err
			}

			p := classify.Payload{Mode: classify.ModeCreate, Tuning: m.Tuning}
			if m.Instrument != nil {
				p.Instrument = m.Instrument.ID
				if desc.ChildModel == classify.ChildSheetMusic {
					p.Clef = music.SuggestClef(m.Instrument.Name)
				}
			}
			item := upload.Item{Path: path, Payload: p}
			if desc.ChildModel == classify.ChildVersionFile && !noAudio {
				item.AudioPath = upload.AudioSibling(path)
			}

			result, err := u.UploadAll(ctx, *d.Version, existing, []upload.Item{item})
			if err != nil {
				return err
			}
			existing += result.Uploaded

			out := result.Outcomes[0]
			if out.Err != nil {
				return out.Err
			}
			if q, err := classify.QuotaStatus(d.Version.Type, existing); err == nil {
				util.InfoLog("%s: %s", d.Version.DisplayTitle(), q)
			}
			return nil
		}

		w := upload.NewWatcher(dir, debounce, handle)
		if err := w.Run(ctx, isFatal); err != nil {
			return fmt.Errorf("watch stopped: %w", err)
		}
		util.InfoLog("Stopped watching %s", dir)
		return nil
	})
}
