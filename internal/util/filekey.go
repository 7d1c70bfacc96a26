package util

import (
	"crypto/sha1"
	"fmt"
	"io"
)

// GenerateContentHash creates a SHA1 hash of file content.
// Used to recognise a file that was already uploaded to a version.
func GenerateContentHash(path string) (string, error) {
	f, err := RetryableOpen(path, nil)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return HashReader(f)
}

// HashReader returns the hex SHA1 of everything read from r
func HashReader(r io.Reader) (string, error) {
	h := sha1.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to hash content: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
