// Package storage keeps gallery files on local disk or in S3.
//
// A stored file is addressed by its ref, a slash separated path relative to the
// storage root such as "images/gallery/<uuid>.jpg". Refs are generated by Save and
// are the only handle the rest of the application keeps.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/gymsite/backend/internal/config"
	"github.com/gymsite/backend/internal/models"
)

// Storage defines the interface for file storage operations
type Storage interface {
	// Save writes r under a new unique name in the folder for kind, keeping the extension of filename.
	// Returns the ref of the stored file and the number of bytes written.
	Save(ctx context.Context, r io.Reader, filename, contentType string, kind models.MediaKind) (string, int64, error)
	// Delete removes the file. Deleting a missing file is not an error.
	Delete(ctx context.Context, ref string) error
	// Exists reports whether the file is present
	Exists(ctx context.Context, ref string) (bool, error)
	// URL returns the public URL the file is served from
	URL(ref string) string
}

// Folder returns the folder files of the given kind are stored in
func Folder(kind models.MediaKind) string {
	if kind == models.MediaKindVideo {
		return "videos"
	}
	return "images/gallery"
}

// New creates the storage backend selected by cfg.Type
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.BasePath, cfg.BaseURL), nil
	case "s3":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
