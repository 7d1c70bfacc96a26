package upload

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/gabriel-vasile/mimetype"
	"github.com/franz/score-librarian/internal/classify"
	"github.com/franz/score-librarian/internal/util"
)

// Kind is the detected content class of a file
type Kind int

const (
	KindUnknown Kind = iota
	KindPDF
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindAudio:
		return "audio"
	}
	return "unknown"
}

// sniffLen is enough for the PDF magic and every container marker tag checks
const sniffLen = 4096

// AudioExtensions are the attachment types accepted next to a sheet
var AudioExtensions = []string{".mp3", ".m4a", ".flac", ".ogg"}

// Sniffed describes what Sniff found
type Sniffed struct {
	Kind      Kind
	MIME      string
	AudioType tag.FileType
	Format    tag.Format
}

// Sniff classifies content by its leading bytes
func Sniff(r io.Reader) (Sniffed, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Sniffed{}, fmt.Errorf("failed to read content: %w", err)
	}
	head = head[:n]
	mime := mimetype.Detect(head)

	// some exporters write a blank line before the header
	if mime.Is("application/pdf") || bytes.HasPrefix(bytes.TrimLeft(head, "\x00\t\r\n "), []byte("%PDF-")) {
		return Sniffed{Kind: KindPDF, MIME: "application/pdf"}, nil
	}

	format, fileType, err := tag.Identify(bytes.NewReader(head))
	if err == nil && fileType != tag.UnknownFileType {
		return Sniffed{Kind: KindAudio, MIME: mime.String(), AudioType: fileType, Format: format}, nil
	}

	// bare MPEG audio without an ID3 header starts with a frame sync
	if len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0 {
		return Sniffed{Kind: KindAudio, MIME: "audio/mpeg", AudioType: tag.MP3}, nil
	}

	// wav, aiff and similar carry no tags tag can identify
	for m := mime; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "audio/") {
			return Sniffed{Kind: KindAudio, MIME: mime.String()}, nil
		}
	}

	return Sniffed{Kind: KindUnknown, MIME: mime.String()}, nil
}

// SniffBlob opens b and sniffs its content
func SniffBlob(b classify.Blob) (Sniffed, error) {
	rc, err := b.Open()
	if err != nil {
		return Sniffed{}, fmt.Errorf("failed to open %s: %w", b.Name(), err)
	}
	defer rc.Close()
	return Sniff(rc)
}

// RequireKind fails with util.ErrFileType unless b's content is of kind want
func RequireKind(b classify.Blob, want Kind) error {
	s, err := SniffBlob(b)
	if err != nil {
		return err
	}
	if s.Kind != want {
		return fmt.Errorf("%s: expected %s content, found %s: %w", b.Name(), want, s.Kind, util.ErrFileType)
	}
	return nil
}

// IsAudioName reports whether name has a recognised audio extension
func IsAudioName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range AudioExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// IsPDFName reports whether name has a .pdf extension
func IsPDFName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
