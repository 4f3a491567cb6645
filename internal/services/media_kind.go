package services

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/models"
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

var videoExtensions = map[string]bool{".mp4": true, ".webm": true, ".mov": true, ".avi": true, ".mkv": true}

// DeriveKind decides whether an uploaded file is an image or a video.
// A specific image/ or video/ content type wins, otherwise the file extension decides.
func DeriveKind(filename, contentType string) (models.MediaKind, error) {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case strings.HasPrefix(mediaType, "image/"):
			return models.MediaKindImage, nil
		case strings.HasPrefix(mediaType, "video/"):
			return models.MediaKindVideo, nil
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case imageExtensions[ext]:
		return models.MediaKindImage, nil
	case videoExtensions[ext]:
		return models.MediaKindVideo, nil
	default:
		return "", apperrors.Validation("unsupported file type %q", filename)
	}
}
