package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/franz/score-librarian/internal/api"
	"github.com/franz/score-librarian/internal/catalog"
	"github.com/franz/score-librarian/internal/classify"
	"github.com/franz/score-librarian/internal/store"
	"github.com/franz/score-librarian/internal/util"
)

var pdfContent = []byte("%PDF-1.7\n%test sheet\n")

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestSniff(t *testing.T) {
	pad := bytes.Repeat([]byte{0}, 256)
	tests := []struct {
		name     string
		data     []byte
		expected Kind
	}{
		{"pdf", pdfContent, KindPDF},
		{"pdf with leading newline", append([]byte("\n"), pdfContent...), KindPDF},
		{"flac", append([]byte("fLaC"), pad...), KindAudio},
		{"ogg", append([]byte("OggS"), pad...), KindAudio},
		{"mp3 with id3", append([]byte("ID3\x03\x00"), pad...), KindAudio},
		{"wav", append([]byte("RIFF\x24\x08\x00\x00WAVEfmt "), pad...), KindAudio},
		{"bare mpeg frame", append([]byte{0xFF, 0xFB, 0x90, 0x64}, pad...), KindAudio},
		{"text", []byte("just some notes"), KindUnknown},
		{"empty", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sniff(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("Sniff failed: %v", err)
			}
			if got.Kind != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got.Kind)
			}
		})
	}
}

func TestRequireKind(t *testing.T) {
	dir := t.TempDir()
	pdf, _ := NewFileBlob(writeFile(t, dir, "Bb.pdf", pdfContent))
	fake, _ := NewFileBlob(writeFile(t, dir, "Eb.pdf", []byte("not a pdf")))

	if err := RequireKind(pdf, KindPDF); err != nil {
		t.Errorf("Expected PDF to pass, got %v", err)
	}
	err := RequireKind(fake, KindPDF)
	if !errors.Is(err, util.ErrFileType) {
		t.Errorf("Expected ErrFileType, got %v", err)
	}
}

func TestFileBlob(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Trompeta.pdf", pdfContent)

	b, err := NewFileBlob(path)
	if err != nil {
		t.Fatalf("NewFileBlob failed: %v", err)
	}
	if b.Name() != "Trompeta.pdf" || b.Size() != int64(len(pdfContent)) {
		t.Errorf("Unexpected blob: %s %d", b.Name(), b.Size())
	}

	// every Open returns the full content
	for i := 0; i < 2; i++ {
		rc, err := b.Open()
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		var buf bytes.Buffer
		buf.ReadFrom(rc)
		rc.Close()
		if !bytes.Equal(buf.Bytes(), pdfContent) {
			t.Errorf("Open %d returned %q", i, buf.Bytes())
		}
	}

	sum, err := b.SHA1()
	if err != nil || len(sum) != 40 {
		t.Errorf("Expected sha1, got %q (%v)", sum, err)
	}

	if _, err := NewFileBlob(dir); !errors.Is(err, util.ErrFileType) {
		t.Errorf("Expected directory to be rejected, got %v", err)
	}
	if _, err := NewFileBlob(filepath.Join(dir, "missing.pdf")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestParseTuning(t *testing.T) {
	tests := []struct {
		input    string
		expected catalog.Tuning
		ok       bool
	}{
		{"Bb", catalog.TuningBb, true},
		{"bb", catalog.TuningBb, true},
		{"EB", catalog.TuningEb, true},
		{"F", catalog.TuningF, true},
		{"C", catalog.TuningC, true},
		{"C_BASS", catalog.TuningCBass, true},
		{"c-bass", catalog.TuningCBass, true},
		{"C bass", catalog.TuningCBass, true},
		{"cbass", catalog.TuningCBass, true},
		{"Xb", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseTuning(tt.input)
		if got != tt.expected || ok != tt.ok {
			t.Errorf("ParseTuning(%q) = %q, %v; expected %q, %v", tt.input, got, ok, tt.expected, tt.ok)
		}
	}
}

func TestParseFilename(t *testing.T) {
	instruments := []catalog.Instrument{
		{ID: 1, Name: "Trompeta"},
		{ID: 2, Name: "Trombón"},
		{ID: 3, Name: "Saxofón Alto"},
		{ID: 4, Name: "Saxofón Tenor"},
		{ID: 5, Name: "Saxofón"},
	}

	tests := []struct {
		name       string
		path       string
		vtype      catalog.VersionType
		tuning     catalog.Tuning
		instrument int
		wantErr    bool
	}{
		{"duet tuning", "/drop/Bb.pdf", catalog.VersionDueto, catalog.TuningBb, 0, false},
		{"duet bass", "/drop/C_BASS.pdf", catalog.VersionDueto, catalog.TuningCBass, 0, false},
		{"duet bad tuning", "/drop/Trompeta.pdf", catalog.VersionDueto, "", 0, true},
		{"exact instrument", "/drop/Trompeta.pdf", catalog.VersionEnsamble, "", 1, false},
		{"accent folded", "/drop/trombon.pdf", catalog.VersionGrupoReducido, "", 2, false},
		{"underscores", "/drop/saxofon_alto.pdf", catalog.VersionEnsamble, "", 3, false},
		{"track number", "/drop/03 Saxofón Tenor.pdf", catalog.VersionEnsamble, "", 4, false},
		{"part suffix", "/drop/Trompeta 2.pdf", catalog.VersionStandard, "", 1, false},
		{"longest prefix", "/drop/Saxofón Alto 1.pdf", catalog.VersionStandard, "", 3, false},
		{"unknown instrument", "/drop/Oboe.pdf", catalog.VersionEnsamble, "", 0, true},
		{"unknown type", "/drop/Bb.pdf", "QUARTET", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseFilename(tt.path, tt.vtype, instruments)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got %+v", m)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFilename failed: %v", err)
			}
			if m.Tuning != tt.tuning {
				t.Errorf("Expected tuning %q, got %q", tt.tuning, m.Tuning)
			}
			gotInst := 0
			if m.Instrument != nil {
				gotInst = m.Instrument.ID
			}
			if gotInst != tt.instrument {
				t.Errorf("Expected instrument %d, got %d", tt.instrument, gotInst)
			}
		})
	}
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Eb.pdf", pdfContent)
	writeFile(t, dir, "Bb.pdf", pdfContent)
	writeFile(t, dir, "Bb.MP3", []byte("ID3"))
	writeFile(t, dir, "notes.txt", []byte("x"))
	writeFile(t, dir, ".hidden.pdf", pdfContent)
	os.Mkdir(filepath.Join(dir, "sub.pdf"), 0755)

	got, err := Collect(dir)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 candidates, got %+v", got)
	}
	if filepath.Base(got[0].Path) != "Bb.pdf" || filepath.Base(got[0].AudioPath) != "Bb.MP3" {
		t.Errorf("Expected Bb.pdf with audio, got %+v", got[0])
	}
	if got[1].AudioPath != "" {
		t.Errorf("Expected no audio for Eb.pdf, got %s", got[1].AudioPath)
	}

	if AudioSibling(got[0].Path) == "" {
		t.Error("Expected AudioSibling to find Bb.MP3")
	}
}

// fakeSubmitter records submissions and answers with increasing ids
type fakeSubmitter struct {
	mu      sync.Mutex
	subs    []*classify.Submission
	nextID  int
	failAt  int   // 1-based call number that fails, 0 for never
	failErr error // error returned at failAt
}

func (f *fakeSubmitter) Submit(ctx context.Context, sub *classify.Submission) (*api.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, sub)
	if f.failAt == len(f.subs) {
		return nil, f.failErr
	}
	f.nextID++
	res := &api.SubmitResult{ChildModel: sub.ChildModel}
	res.VersionFile.ID = 100 + f.nextID
	res.SheetMusic.ID = 100 + f.nextID
	return res, nil
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func instrumentItem(path string, instrument int) Item {
	return Item{Path: path, Payload: classify.Payload{Mode: classify.ModeCreate, Instrument: instrument}}
}

func TestUploadAll_RunningCountEnforcesMaximum(t *testing.T) {
	dir := t.TempDir()
	st := openStore(t)
	client := &fakeSubmitter{}
	u := New(&Config{Client: client, Recorder: st})

	v := catalog.Version{ID: 8, Type: catalog.VersionGrupoReducido}
	items := []Item{
		instrumentItem(writeFile(t, dir, "Trompeta.pdf", pdfContent), 1),
		instrumentItem(writeFile(t, dir, "Trombon.pdf", []byte("%PDF-1.7 other")), 2),
		instrumentItem(writeFile(t, dir, "Tuba.pdf", []byte("GIF89a")), 3),
	}

	result, err := u.UploadAll(context.Background(), v, 4, items)
	if err != nil {
		t.Fatalf("UploadAll failed: %v", err)
	}

	if result.Uploaded != 1 || result.Rejected != 2 || result.Failed != 0 {
		t.Errorf("Expected 1 uploaded and 2 rejected, got %+v", result)
	}
	if len(client.subs) != 1 {
		t.Fatalf("Expected exactly one network submission, got %d", len(client.subs))
	}
	if !strings.Contains(result.Outcomes[1].Err.Error(), "exceed maximum of 5") {
		t.Errorf("Expected the second file to hit the maximum, got %v", result.Outcomes[1].Err)
	}
	if !errors.Is(result.Outcomes[2].Err, util.ErrFileType) {
		t.Errorf("Expected the non-PDF to be rejected by content, got %v", result.Outcomes[2].Err)
	}
	if result.Outcomes[0].RemoteID != 101 {
		t.Errorf("Expected remote id 101, got %d", result.Outcomes[0].RemoteID)
	}

	history, _ := st.GetUploadsByVersion(8)
	if len(history) != 3 {
		t.Errorf("Expected 3 audit rows, got %d", len(history))
	}
}

func TestUploadAll_AdvisoryDoesNotBlock(t *testing.T) {
	dir := t.TempDir()
	client := &fakeSubmitter{}
	u := New(&Config{Client: client})

	v := catalog.Version{ID: 9, Type: catalog.VersionEnsamble}
	result, err := u.UploadAll(context.Background(), v, 3, []Item{
		instrumentItem(writeFile(t, dir, "Flauta.pdf", pdfContent), 1),
	})
	if err != nil {
		t.Fatalf("UploadAll failed: %v", err)
	}
	if result.Uploaded != 1 {
		t.Fatalf("Expected upload to succeed, got %+v", result)
	}
	if len(result.Outcomes[0].Warnings) != 1 || !strings.Contains(result.Outcomes[0].Warnings[0], "under minimum of 6") {
		t.Errorf("Expected an under-minimum advisory, got %v", result.Outcomes[0].Warnings)
	}
}

func TestUploadAll_SkipsDuplicateContent(t *testing.T) {
	dir := t.TempDir()
	st := openStore(t)
	client := &fakeSubmitter{}
	u := New(&Config{Client: client, Recorder: st, SkipDuplicates: true})

	v := catalog.Version{ID: 3, Type: catalog.VersionDueto}
	item := Item{
		Path:    writeFile(t, dir, "Bb.pdf", pdfContent),
		Payload: classify.Payload{Mode: classify.ModeCreate, Tuning: catalog.TuningBb},
	}

	if _, err := u.UploadAll(context.Background(), v, 0, []Item{item}); err != nil {
		t.Fatalf("first UploadAll failed: %v", err)
	}
	result, err := u.UploadAll(context.Background(), v, 1, []Item{item})
	if err != nil {
		t.Fatalf("second UploadAll failed: %v", err)
	}

	if result.Skipped != 1 {
		t.Errorf("Expected the repeat to be skipped, got %+v", result)
	}
	if len(client.subs) != 1 {
		t.Errorf("Expected one submission in total, got %d", len(client.subs))
	}
	if result.Outcomes[0].RemoteID != 101 {
		t.Errorf("Expected skipped outcome to point at the earlier record, got %d", result.Outcomes[0].RemoteID)
	}
}

func TestUploadAll_ReuploadsWhenServerRecordIsGone(t *testing.T) {
	dir := t.TempDir()
	st := openStore(t)
	client := &fakeSubmitter{}

	v := catalog.Version{ID: 3, Type: catalog.VersionDueto}
	item := Item{
		Path:    writeFile(t, dir, "Bb.pdf", pdfContent),
		Payload: classify.Payload{Mode: classify.ModeCreate, Tuning: catalog.TuningBb},
	}

	first := New(&Config{Client: client, Recorder: st, SkipDuplicates: true})
	if _, err := first.UploadAll(context.Background(), v, 0, []Item{item}); err != nil {
		t.Fatalf("first UploadAll failed: %v", err)
	}

	// record 101 was deleted elsewhere; the server now lists only 55
	u := New(&Config{Client: client, Recorder: st, SkipDuplicates: true, RemoteIDs: map[int]bool{55: true}})
	result, err := u.UploadAll(context.Background(), v, 1, []Item{item})
	if err != nil {
		t.Fatalf("second UploadAll failed: %v", err)
	}

	if result.Uploaded != 1 || result.Skipped != 0 {
		t.Errorf("Expected the content to be uploaded again, got %+v", result)
	}
	if len(client.subs) != 2 {
		t.Errorf("Expected two submissions in total, got %d", len(client.subs))
	}
	if result.Outcomes[0].RemoteID != 102 {
		t.Errorf("Expected the new record 102, got %d", result.Outcomes[0].RemoteID)
	}

	prev, err := st.FindUploadedContent(3, result.Outcomes[0].SHA1)
	if err != nil {
		t.Fatalf("FindUploadedContent failed: %v", err)
	}
	if prev == nil || prev.RemoteID != 102 {
		t.Errorf("Expected history to point at 102, got %+v", prev)
	}

	// the record just created counts as live for the rest of the batch
	result, err = u.UploadAll(context.Background(), v, 2, []Item{item})
	if err != nil {
		t.Fatalf("third UploadAll failed: %v", err)
	}
	if result.Skipped != 1 {
		t.Errorf("Expected the repeat to be skipped, got %+v", result)
	}
}

func TestUploadAll_SkipsWhenServerRecordExists(t *testing.T) {
	dir := t.TempDir()
	st := openStore(t)
	client := &fakeSubmitter{}

	v := catalog.Version{ID: 4, Type: catalog.VersionEnsamble}
	item := instrumentItem(writeFile(t, dir, "Trompeta.pdf", pdfContent), 1)

	if _, err := New(&Config{Client: client, Recorder: st}).UploadAll(context.Background(), v, 0, []Item{item}); err != nil {
		t.Fatalf("first UploadAll failed: %v", err)
	}

	u := New(&Config{Client: client, Recorder: st, SkipDuplicates: true, RemoteIDs: map[int]bool{101: true}})
	result, err := u.UploadAll(context.Background(), v, 1, []Item{item})
	if err != nil {
		t.Fatalf("second UploadAll failed: %v", err)
	}
	if result.Skipped != 1 || len(client.subs) != 1 {
		t.Errorf("Expected a skip and no new submission, got %+v with %d submissions", result, len(client.subs))
	}
}

func TestUploadAll_AudioAttachment(t *testing.T) {
	dir := t.TempDir()
	client := &fakeSubmitter{}
	u := New(&Config{Client: client})

	v := catalog.Version{ID: 3, Type: catalog.VersionDueto}
	good := Item{
		Path:      writeFile(t, dir, "Bb.pdf", pdfContent),
		AudioPath: writeFile(t, dir, "Bb.flac", append([]byte("fLaC"), make([]byte, 200)...)),
		Payload:   classify.Payload{Mode: classify.ModeCreate, Tuning: catalog.TuningBb},
	}
	bad := Item{
		Path:      writeFile(t, dir, "Eb.pdf", pdfContent),
		AudioPath: writeFile(t, dir, "Eb.mp3", pdfContent),
		Payload:   classify.Payload{Mode: classify.ModeCreate, Tuning: catalog.TuningEb},
	}

	result, err := u.UploadAll(context.Background(), v, 0, []Item{good, bad})
	if err != nil {
		t.Fatalf("UploadAll failed: %v", err)
	}
	if result.Uploaded != 1 || result.Rejected != 1 {
		t.Fatalf("Expected 1 uploaded and 1 rejected, got %+v", result)
	}

	files := client.subs[0].Files
	if len(files) != 2 || files[0].Field != "file" || files[1].Field != "audio" {
		t.Errorf("Expected file then audio parts, got %+v", files)
	}
}

func TestUploadAll_StopsOnExpiredSession(t *testing.T) {
	dir := t.TempDir()
	client := &fakeSubmitter{failAt: 1, failErr: fmt.Errorf("%w: refresh failed", api.ErrSessionExpired)}
	u := New(&Config{Client: client})

	v := catalog.Version{ID: 3, Type: catalog.VersionDueto}
	items := []Item{
		{Path: writeFile(t, dir, "Bb.pdf", pdfContent), Payload: classify.Payload{Tuning: catalog.TuningBb}},
		{Path: writeFile(t, dir, "Eb.pdf", pdfContent), Payload: classify.Payload{Tuning: catalog.TuningEb}},
	}

	result, err := u.UploadAll(context.Background(), v, 0, items)
	if !errors.Is(err, api.ErrSessionExpired) {
		t.Fatalf("Expected ErrSessionExpired, got %v", err)
	}
	if len(result.Outcomes) != 1 || result.Failed != 1 {
		t.Errorf("Expected the batch to stop after the first failure, got %+v", result)
	}
	if len(client.subs) != 1 {
		t.Errorf("Expected 1 submission, got %d", len(client.subs))
	}
}

func TestUploadAll_DryRunSendsNothing(t *testing.T) {
	dir := t.TempDir()
	st := openStore(t)
	client := &fakeSubmitter{}
	u := New(&Config{Client: client, Recorder: st, DryRun: true})

	v := catalog.Version{ID: 3, Type: catalog.VersionDueto}
	result, err := u.UploadAll(context.Background(), v, 0, []Item{
		{Path: writeFile(t, dir, "F.pdf", pdfContent), Payload: classify.Payload{Tuning: catalog.TuningF}},
	})
	if err != nil {
		t.Fatalf("UploadAll failed: %v", err)
	}
	if result.Uploaded != 1 || len(client.subs) != 0 {
		t.Errorf("Expected a simulated upload with no submissions, got %+v / %d", result, len(client.subs))
	}
	if history, _ := st.GetUploadsByVersion(3); len(history) != 0 {
		t.Errorf("Expected dry run not to write audit rows, got %d", len(history))
	}
}

func TestWatcher_HandlesSettledPDFs(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var handled []string
	done := make(chan struct{}, 4)
	w := NewWatcher(dir, 50*time.Millisecond, func(ctx context.Context, path string) error {
		mu.Lock()
		handled = append(handled, filepath.Base(path))
		mu.Unlock()
		done <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx, nil) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "ignored.txt", []byte("x"))
	writeFile(t, dir, "Bb.pdf", pdfContent)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the watcher")
	}

	// a short extra wait catches duplicate handling of the same file
	time.Sleep(200 * time.Millisecond)
	cancel()
	if err := <-errCh; err != nil {
		t.Errorf("Run returned %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 || handled[0] != "Bb.pdf" {
		t.Errorf("Expected only Bb.pdf to be handled once, got %v", handled)
	}
}

func TestWatcher_StopsOnFatalError(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, 20*time.Millisecond, func(ctx context.Context, path string) error {
		return api.ErrSessionExpired
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(context.Background(), func(err error) bool { return errors.Is(err, api.ErrSessionExpired) })
	}()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "C.pdf", pdfContent)

	select {
	case err := <-errCh:
		if !errors.Is(err, api.ErrSessionExpired) {
			t.Errorf("Expected ErrSessionExpired, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the watcher to stop")
	}
}

func TestNewWatcher_DefaultDebounce(t *testing.T) {
	w := NewWatcher(t.TempDir(), 0, nil)
	if w.debounce != DefaultDebounce {
		t.Errorf("Expected default debounce %v, got %v", DefaultDebounce, w.debounce)
	}
}
