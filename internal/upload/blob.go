// Package upload turns local files into child-file submissions: it wraps
// files as blobs, checks their content, maps drop-folder names to
// discriminators, and sends batches one file at a time.
package upload

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/franz/score-librarian/internal/util"
)

// FileBlob is a local file used as a multipart part
type FileBlob struct {
	path string
	size int64

	hashOnce sync.Once
	sha1     string
	hashErr  error
}

// NewFileBlob stats path (retrying transient errors) and wraps it
func NewFileBlob(path string) (*FileBlob, error) {
	info, err := util.RetryableStat(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, util.ErrFileType)
	}
	return &FileBlob{path: path, size: info.Size()}, nil
}

func (b *FileBlob) Name() string { return filepath.Base(b.path) }
func (b *FileBlob) Path() string { return b.path }
func (b *FileBlob) Size() int64  { return b.size }

// Open opens the file for reading; every call returns a fresh reader
func (b *FileBlob) Open() (io.ReadCloser, error) {
	return util.RetryableOpen(b.path, nil)
}

// SHA1 returns the content hash, computed on first use
func (b *FileBlob) SHA1() (string, error) {
	b.hashOnce.Do(func() {
		b.sha1, b.hashErr = util.GenerateContentHash(b.path)
	})
	return b.sha1, b.hashErr
}
