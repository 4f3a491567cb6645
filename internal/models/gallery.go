package models

import (
	"encoding/json"
	"io"
	"time"
)

// MediaKind represents the kind of a gallery item
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// GalleryItem represents a single image or video in the gallery
type GalleryItem struct {
	ID          string    `json:"id"`
	Kind        MediaKind `json:"type"`
	StorageRef  string    `json:"-"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	DisplayName string    `json:"title,omitempty"`
	Position    int64     `json:"position"`
	Version     int       `json:"version"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UploadFile is a file submitted for upload, independent of the transport
type UploadFile struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// GalleryUpdate holds the optional fields of an item update
type GalleryUpdate struct {
	DisplayName *string
	File        *UploadFile
	// Version, when set, makes the update conditional on the stored version
	Version *int
}

// PositionLimit bounds positions so they stay exact in a JSON number
const PositionLimit int64 = 1<<53 - 1

// ValidPosition reports whether p lies in [-PositionLimit, PositionLimit]
func ValidPosition(p int64) bool {
	return p >= -PositionLimit && p <= PositionLimit
}

// PositionUpdate is a single (identity, new position) pair of a bulk reorder
type PositionUpdate struct {
	ID       string
	Position int64
	Version  *int
}

// ReorderItem is one element of a reorder request body.
// Position accepts a JSON number or a numeric string.
type ReorderItem struct {
	ID       string      `json:"id"`
	Position json.Number `json:"position"`
	Version  *int        `json:"version,omitempty"`
}

// ReorderRequest represents a bulk reorder request body
type ReorderRequest struct {
	Items []ReorderItem `json:"items"`
}

// DeleteGalleryRequest represents a bulk delete request body
type DeleteGalleryRequest struct {
	IDs []string `json:"ids"`
}

// SwapRequest represents a swap of two items
type SwapRequest struct {
	FirstID  string `json:"firstId"`
	SecondID string `json:"secondId"`
}

// SwapSelectRequest represents one selection of the two-step swap
type SwapSelectRequest struct {
	ID string `json:"id"`
}

// SwapSelectResponse reports the state of the two-step swap after a selection
type SwapSelectResponse struct {
	Message string `json:"message"`
	Anchor  string `json:"anchor,omitempty"`
	Swapped bool   `json:"swapped"`
}

// GalleryListResponse wraps a list of gallery items
type GalleryListResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Items   []GalleryItem `json:"items"`
}

// GalleryItemResponse wraps a single gallery item
type GalleryItemResponse struct {
	Success       bool         `json:"success"`
	Message       string       `json:"message"`
	Item          *GalleryItem `json:"item"`
	OrphanedFiles []string     `json:"orphanedFiles,omitempty"`
}

// DeleteResult reports the outcome of a gallery delete
type DeleteResult struct {
	DeletedCount  int      `json:"deletedCount"`
	NotFound      []string `json:"notFound,omitempty"`
	OrphanedFiles []string `json:"orphanedFiles,omitempty"`
}

// UpdateResult reports the outcome of a gallery item update
type UpdateResult struct {
	Item          *GalleryItem
	OrphanedFiles []string
}

// DeleteGalleryResponse reports a single or bulk delete
type DeleteGalleryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	DeleteResult
}

// SwapResponse reports a swap and the resulting order
type SwapResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Swapped bool          `json:"swapped"`
	Items   []GalleryItem `json:"items"`
}
