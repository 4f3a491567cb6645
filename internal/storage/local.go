package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/models"
)

// LocalStorage implements Storage using the local filesystem.
// Files are served by the HTTP server from basePath, so the URL of a ref is baseURL + "/" + ref.
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath, baseURL string) *LocalStorage {
	return &LocalStorage{
		basePath: basePath,
		baseURL:  baseURL,
	}
}

// BasePath returns the directory files are stored under
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

// generatePath converts a ref into a path under basePath
func (s *LocalStorage) generatePath(ref string) (string, error) {
	rel := filepath.FromSlash(ref)
	if ref == "" || !filepath.IsLocal(rel) {
		return "", apperrors.Validation("invalid file reference %q", ref)
	}
	return filepath.Join(s.basePath, rel), nil
}

// Save creates a new file and copies r into it
func (s *LocalStorage) Save(ctx context.Context, r io.Reader, filename, contentType string, kind models.MediaKind) (string, int64, error) {
	ref := newRef(Folder(kind), filename)
	path, err := s.generatePath(ref)
	if err != nil {
		return "", 0, err
	}

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", 0, apperrors.Storage("create directory", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", 0, apperrors.Storage("create file", err)
	}

	size, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		// Cleanup: delete the partial file
		os.Remove(path)
		return "", 0, apperrors.Storage("write file", err)
	}

	return ref, size, nil
}

// Delete removes a file
func (s *LocalStorage) Delete(ctx context.Context, ref string) error {
	path, err := s.generatePath(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperrors.Storage("delete file", err)
	}
	return nil
}

// Exists reports whether the file is present
func (s *LocalStorage) Exists(ctx context.Context, ref string) (bool, error) {
	path, err := s.generatePath(ref)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, apperrors.Storage("stat file", err)
	}
}

// URL returns the URL the file is served from
func (s *LocalStorage) URL(ref string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, ref)
}
