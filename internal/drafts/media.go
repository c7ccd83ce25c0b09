package drafts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
)

// SaveImage copies an image into the drafts media directory and returns its path
func (s *Store) SaveImage(name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.mediaDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	path := filepath.Join(s.mediaDir, ulid.Make().String()+"-"+filepath.Base(name))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	return path, nil
}

// removeImage deletes an image only when it lives in the media directory
func (s *Store) removeImage(path string) {
	if path == "" || !s.ownsImage(path) {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove draft image")
	}
}

func (s *Store) ownsImage(path string) bool {
	rel, err := filepath.Rel(s.mediaDir, path)
	return err == nil && !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)
}

// uploadName strips the id prefix added by SaveImage
func uploadName(path string) string {
	base := filepath.Base(path)
	if prefix, name, ok := strings.Cut(base, "-"); ok && len(prefix) == ulid.EncodedSize {
		return name
	}
	return base
}
