package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/franz/score-librarian/internal/api"
	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/classify"
	"github.com/franz/score-librarian/internal/report"
	"github.com/franz/score-librarian/internal/store"
	"github.com/franz/score-librarian/internal/util"
	"github.com/schollz/progressbar/v3"
)

// Submitter sends a built submission
type Submitter interface {
	Submit(ctx context.Context, sub *classify.Submission) (*api.SubmitResult, error)
}

// Recorder keeps the upload audit trail
type Recorder interface {
	InsertUpload(u *store.Upload) error
	FindUploadedContent(versionID int, sha1 string) (*store.Upload, error)
	ForgetRemote(childModel string, remoteID int) error
}

// Config holds uploader configuration
type Config struct {
	Client         Submitter
	Recorder       Recorder            // optional
	EventLogger    *report.EventLogger // optional
	SkipDuplicates bool                // skip content already uploaded to the version
	RemoteIDs      map[int]bool        // child ids the server currently holds; nil trusts the history
	DryRun         bool                // validate and report, send nothing
	ShowProgress   bool
}

// Item is one file to upload with its discriminator already chosen
type Item struct {
	Path      string
	AudioPath string
	Payload   classify.Payload
}

// Outcome is what happened to one item
type Outcome struct {
	Item     Item
	Status   string // one of the store.Upload* statuses
	RemoteID int
	SHA1     string
	Size     int64
	Warnings []string
	Err      error
}

// Result summarises a batch
type Result struct {
	Outcomes []Outcome
	Uploaded int
	Rejected int
	Failed   int
	Skipped  int
	Duration time.Duration
}

// Uploader sends child files for one version, one at a time
type Uploader struct {
	client         Submitter
	recorder       Recorder
	eventLogger    *report.EventLogger
	skipDuplicates bool
	remoteIDs      map[int]bool
	dryRun         bool
	showProgress   bool
}

// New creates a new uploader
func New(cfg *Config) *Uploader {
	u := &Uploader{
		client:         cfg.Client,
		recorder:       cfg.Recorder,
		eventLogger:    cfg.EventLogger,
		skipDuplicates: cfg.SkipDuplicates,
		dryRun:         cfg.DryRun,
		showProgress:   cfg.ShowProgress,
	}
	if cfg.RemoteIDs != nil {
		u.remoteIDs = make(map[int]bool, len(cfg.RemoteIDs))
		for id := range cfg.RemoteIDs {
			u.remoteIDs[id] = true
		}
	}
	return u
}

// UploadAll uploads items to version v in order. existing is the number of
// child records the version already has; it grows with every successful
// upload so each file is validated against the running count.
//
// Per-file problems are recorded in the result and the batch continues. An
// expired session or a cancelled context stops the batch and is returned.
func (u *Uploader) UploadAll(ctx context.Context, v catalog.Version, existing int, items []Item) (*Result, error) {
	start := time.Now()
	result := &Result{}

	var bar *progressbar.ProgressBar
	if u.showProgress && len(items) > 1 && util.IsTerminal(os.Stderr.Fd()) && !util.IsQuiet() {
		bar = progressbar.NewOptions(len(items),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Uploading"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	count := existing
	var fatal error
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			fatal = err
			break
		}
		if bar != nil {
			bar.Describe(fmt.Sprintf("Uploading %s", Stem(item.Path)))
		}

		out := u.uploadOne(ctx, v, count, item)
		result.Outcomes = append(result.Outcomes, out)

		switch out.Status {
		case store.UploadOK:
			result.Uploaded++
			count++
		case store.UploadRejected:
			result.Rejected++
		case store.UploadSkipped:
			result.Skipped++
		default:
			result.Failed++
		}

		if bar != nil {
			bar.Add(1)
		}

		if errors.Is(out.Err, api.ErrSessionExpired) || errors.Is(out.Err, util.ErrNotAuthenticated) ||
			errors.Is(out.Err, context.Canceled) {
			fatal = out.Err
			break
		}
	}

	if bar != nil {
		bar.Finish()
	}

	result.Duration = time.Since(start)
	return result, fatal
}

func (u *Uploader) uploadOne(ctx context.Context, v catalog.Version, count int, item Item) Outcome {
	out := Outcome{Item: item}

	blob, err := NewFileBlob(item.Path)
	if err != nil {
		return u.reject(v, out, err)
	}
	out.Size = blob.Size()
	if err := RequireKind(blob, KindPDF); err != nil {
		return u.reject(v, out, err)
	}

	payload := item.Payload
	payload.File = blob
	if item.AudioPath != "" {
		audio, err := NewFileBlob(item.AudioPath)
		if err != nil {
			return u.reject(v, out, err)
		}
		if err := RequireKind(audio, KindAudio); err != nil {
			return u.reject(v, out, err)
		}
		payload.Audio = audio
	}

	sha1, err := blob.SHA1()
	if err != nil {
		return u.reject(v, out, err)
	}
	out.SHA1 = sha1

	if u.skipDuplicates && u.recorder != nil && payload.Mode == classify.ModeCreate {
		prev, err := u.findDuplicate(v, sha1)
		if err != nil {
			util.WarnLog("Duplicate check failed for %s: %v", item.Path, err)
		} else if prev != nil {
			out.Status = store.UploadSkipped
			out.RemoteID = prev.RemoteID
			reason := fmt.Sprintf("same content already uploaded as %s %d", prev.ChildModel, prev.RemoteID)
			util.InfoLog("Skipping %s: %s", blob.Name(), reason)
			u.eventLogger.LogSkip(v.ID, item.Path, reason)
			u.record(v, out, "", "")
			return out
		}
	}

	sub, err := classify.BuildSubmission(v.Type, v.ID, payload, count)
	if err != nil {
		return u.reject(v, out, err)
	}
	out.Warnings = sub.Warnings
	for _, w := range sub.Warnings {
		u.eventLogger.LogAdvisory(v.ID, w)
	}

	if u.dryRun {
		out.Status = store.UploadOK
		util.InfoLog("Would upload %s (%s)", blob.Name(), sub.Discriminator)
		return out
	}

	start := time.Now()
	res, err := u.client.Submit(ctx, sub)
	if err != nil {
		out.Status = store.UploadFailed
		out.Err = err
		util.ErrorLog("Upload of %s failed: %v", blob.Name(), err)
		u.eventLogger.LogUpload(string(sub.ChildModel), v.ID, sub.Discriminator, item.Path, sha1, out.Size, 0, time.Since(start), err)
		u.record(v, out, string(sub.ChildModel), sub.Discriminator)
		return out
	}

	out.Status = store.UploadOK
	out.RemoteID = res.ID()
	if u.remoteIDs != nil {
		u.remoteIDs[out.RemoteID] = true
	}
	util.SuccessLog("Uploaded %s (%s) as %s %d", blob.Name(), sub.Discriminator, sub.ChildModel, out.RemoteID)
	u.eventLogger.LogUpload(string(sub.ChildModel), v.ID, sub.Discriminator, item.Path, sha1, out.Size, out.RemoteID, time.Since(start), nil)
	u.record(v, out, string(sub.ChildModel), sub.Discriminator)
	return out
}

// findDuplicate returns the earlier successful upload of the same content. A
// record the server no longer holds is forgotten so the content goes up again.
func (u *Uploader) findDuplicate(v catalog.Version, sha1 string) (*store.Upload, error) {
	prev, err := u.recorder.FindUploadedContent(v.ID, sha1)
	if err != nil || prev == nil || u.remoteIDs == nil || u.remoteIDs[prev.RemoteID] {
		return prev, err
	}

	util.DebugLog("Upload %s %d no longer exists on the server", prev.ChildModel, prev.RemoteID)
	if err := u.recorder.ForgetRemote(prev.ChildModel, prev.RemoteID); err != nil {
		return nil, err
	}
	// older rows may still point at another live record
	return u.findDuplicate(v, sha1)
}

func (u *Uploader) reject(v catalog.Version, out Outcome, err error) Outcome {
	out.Status = store.UploadRejected
	out.Err = err
	util.WarnLog("Not uploading %s: %v", out.Item.Path, err)
	u.eventLogger.LogRejected(v.ID, out.Item.Path, err)
	if !u.dryRun {
		u.record(v, out, "", "")
	}
	return out
}

func (u *Uploader) record(v catalog.Version, out Outcome, model, discriminator string) {
	if u.recorder == nil || u.dryRun {
		return
	}
	if model == "" {
		if d, err := classify.DescribeType(v.Type); err == nil {
			model = string(d.ChildModel)
		}
	}
	row := &store.Upload{
		VersionID:     v.ID,
		ChildModel:    model,
		Discriminator: discriminator,
		SrcPath:       out.Item.Path,
		SHA1:          out.SHA1,
		SizeBytes:     out.Size,
		RemoteID:      out.RemoteID,
		Status:        out.Status,
	}
	if out.Err != nil {
		row.Error = out.Err.Error()
	}
	if err := u.recorder.InsertUpload(row); err != nil {
		util.WarnLog("Failed to record upload of %s: %v", out.Item.Path, err)
	}
}
