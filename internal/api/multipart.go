package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"sort"

	"github.com/franz/score-librarian/internal/classify"
)

// multipartBody encodes fields and files into a fresh buffer on every call,
// reopening each blob, so the request can be replayed.
func multipartBody(fields url.Values, files []classify.FilePart) func() (io.Reader, string, error) {
	return func() (io.Reader, string, error) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)

		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for _, v := range fields[k] {
				if err := w.WriteField(k, v); err != nil {
					return nil, "", fmt.Errorf("failed to write field %s: %w", k, err)
				}
			}
		}

		for _, part := range files {
			if part.Blob == nil {
				continue
			}
			if err := writeFilePart(w, part); err != nil {
				return nil, "", err
			}
		}

		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
		}
		return &buf, w.FormDataContentType(), nil
	}
}

func writeFilePart(w *multipart.Writer, part classify.FilePart) error {
	src, err := part.Blob.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", part.Blob.Name(), err)
	}
	defer src.Close()

	dst, err := w.CreateFormFile(part.Field, part.Blob.Name())
	if err != nil {
		return fmt.Errorf("failed to create part %s: %w", part.Field, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to read %s: %w", part.Blob.Name(), err)
	}
	return nil
}
