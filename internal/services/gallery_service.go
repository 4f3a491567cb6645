package services

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/models"
	"github.com/gymsite/backend/internal/ordering"
	"go.uber.org/zap"
)

// GalleryRepository is the interface that wraps methods for gallery_items table data access
type GalleryRepository interface {
	// Method List returns every item ordered by position, creation time and id.
	List(ctx context.Context) ([]models.GalleryItem, error)
	// Method GetByID retrieves an item by ID.
	//
	// If item with such ID does not exist, an ErrNotFound error will be returned together with "nil" value.
	GetByID(ctx context.Context, id string) (*models.GalleryItem, error)
	// Method GetByIDs returns the existing items among ids.
	GetByIDs(ctx context.Context, ids []string) ([]models.GalleryItem, error)
	// Method CreateBatch inserts items after the last position in one transaction.
	//
	// "items" parameter holds the new records in submission order; ID, Position, Version and timestamps are filled in.
	// Returns ErrConflict when no positions are left after the current maximum.
	CreateBatch(ctx context.Context, items []*models.GalleryItem) error
	// Method Update writes the mutable fields of an item.
	//
	// "expectedVersion" parameter, when not nil, makes the write conditional; a mismatch returns ErrConflict.
	Update(ctx context.Context, item *models.GalleryItem, expectedVersion *int) error
	// Method ApplyPositions applies all position updates in one transaction or none of them.
	ApplyPositions(ctx context.Context, updates []models.PositionUpdate) error
	// Method DeleteByIDs removes the items and returns how many were deleted.
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	// Method Renumber rewrites positions to 0..n-1 in display order.
	Renumber(ctx context.Context) (int, error)
}

// FileStorage stores the files owned by gallery items
type FileStorage interface {
	Save(ctx context.Context, r io.Reader, filename, contentType string, kind models.MediaKind) (string, int64, error)
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
}

// galleryService implements GalleryService
type galleryService struct {
	repo      GalleryRepository
	storage   FileStorage
	selectors *ordering.SelectorRegistry
	logger    *zap.Logger
}

// NewGalleryService creates a new gallery service
func NewGalleryService(repo GalleryRepository, storage FileStorage, logger *zap.Logger) *galleryService {
	return &galleryService{
		repo:      repo,
		storage:   storage,
		selectors: ordering.NewSelectorRegistry(),
		logger:    logger,
	}
}

func (s *galleryService) withURL(item *models.GalleryItem) {
	item.URL = s.storage.URL(item.StorageRef)
}

// List returns all items in display order
func (s *galleryService) List(ctx context.Context) ([]models.GalleryItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	ordering.Sort(items)
	for i := range items {
		s.withURL(&items[i])
	}
	return items, nil
}

// releaseFiles deletes files whose records are gone and returns the refs that could not be deleted
func (s *galleryService) releaseFiles(ctx context.Context, refs []string) []string {
	var orphaned []string
	for _, ref := range refs {
		if err := s.storage.Delete(ctx, ref); err != nil {
			s.logger.Warn("failed to delete file, it is now orphaned", zap.String("ref", ref), zap.Error(err))
			orphaned = append(orphaned, ref)
		}
	}
	return orphaned
}

// Upload stores files and appends one item per file after the current last position.
// If the records cannot be written, the files saved so far are deleted again.
func (s *galleryService) Upload(ctx context.Context, files []models.UploadFile) ([]models.GalleryItem, error) {
	if len(files) == 0 {
		return nil, apperrors.Validation("no files uploaded")
	}

	kinds := make([]models.MediaKind, len(files))
	for i, f := range files {
		kind, err := DeriveKind(f.Filename, f.ContentType)
		if err != nil {
			return nil, err
		}
		kinds[i] = kind
	}

	items := make([]*models.GalleryItem, 0, len(files))
	var saved []string
	for i, f := range files {
		ref, size, err := s.storage.Save(ctx, f.Reader, f.Filename, f.ContentType, kinds[i])
		if err != nil {
			s.logger.Error("failed to save upload", zap.String("filename", f.Filename), zap.Error(err))
			s.compensate(ctx, saved)
			return nil, err
		}
		saved = append(saved, ref)
		items = append(items, &models.GalleryItem{
			Kind:        kinds[i],
			StorageRef:  ref,
			Filename:    f.Filename,
			ContentType: f.ContentType,
			Size:        size,
		})
	}

	if err := s.repo.CreateBatch(ctx, items); err != nil {
		s.logger.Error("failed to create gallery items", zap.Int("count", len(items)), zap.Error(err))
		s.compensate(ctx, saved)
		return nil, err
	}

	out := make([]models.GalleryItem, len(items))
	for i, item := range items {
		s.withURL(item)
		out[i] = *item
	}
	s.logger.Info("gallery items uploaded", zap.Int("count", len(out)))
	return out, nil
}

// compensate removes files saved for a write that did not happen
func (s *galleryService) compensate(ctx context.Context, refs []string) {
	// The request context may already be cancelled, the cleanup must still run
	ctx = context.WithoutCancel(ctx)
	for _, ref := range refs {
		if err := s.storage.Delete(ctx, ref); err != nil {
			s.logger.Error("failed to remove file after failed write", zap.String("ref", ref), zap.Error(err))
		}
	}
}

// Update renames an item and/or replaces its file
func (s *galleryService) Update(ctx context.Context, id string, upd models.GalleryUpdate) (*models.UpdateResult, error) {
	var title string
	if upd.DisplayName != nil {
		title = strings.TrimSpace(*upd.DisplayName)
	}
	if title == "" && upd.File == nil {
		return nil, apperrors.Validation("title or file is required")
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var newRef string
	oldRef := item.StorageRef
	if upd.File != nil {
		kind, err := DeriveKind(upd.File.Filename, upd.File.ContentType)
		if err != nil {
			return nil, err
		}
		ref, size, err := s.storage.Save(ctx, upd.File.Reader, upd.File.Filename, upd.File.ContentType, kind)
		if err != nil {
			return nil, err
		}
		newRef = ref
		item.Kind = kind
		item.StorageRef = ref
		item.Filename = upd.File.Filename
		item.ContentType = upd.File.ContentType
		item.Size = size
	}
	if title != "" {
		item.DisplayName = title
	}

	if err := s.repo.Update(ctx, item, upd.Version); err != nil {
		if newRef != "" {
			s.compensate(ctx, []string{newRef})
		}
		return nil, err
	}

	result := &models.UpdateResult{Item: item}
	if newRef != "" {
		result.OrphanedFiles = s.releaseFiles(ctx, []string{oldRef})
	}
	s.withURL(item)
	return result, nil
}

// Delete removes a single item and its file
func (s *galleryService) Delete(ctx context.Context, id string) (*models.DeleteResult, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.deleteItems(ctx, []models.GalleryItem{*item}, nil)
}

// DeleteMany removes the items with the given ids. Unknown ids are reported, not fatal,
// unless none of the ids exist.
func (s *galleryService) DeleteMany(ctx context.Context, ids []string) (*models.DeleteResult, error) {
	req := models.DeleteGalleryRequest{IDs: slices.Clone(ids)}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	slices.Sort(req.IDs)
	unique := slices.Compact(req.IDs)

	items, err := s.repo.GetByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "items not found")
	}

	found := make(map[string]bool, len(items))
	for _, it := range items {
		found[it.ID] = true
	}
	var notFound []string
	for _, id := range unique {
		if !found[id] {
			notFound = append(notFound, id)
		}
	}
	return s.deleteItems(ctx, items, notFound)
}

// deleteItems removes the records first and then releases their files.
// A file that cannot be deleted is logged and reported, the request still succeeds.
func (s *galleryService) deleteItems(ctx context.Context, items []models.GalleryItem, notFound []string) (*models.DeleteResult, error) {
	ids := make([]string, len(items))
	refs := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
		refs[i] = it.StorageRef
	}

	n, err := s.repo.DeleteByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "items not found")
	}

	for _, id := range ids {
		s.selectors.Forget(id)
	}

	orphaned := s.releaseFiles(context.WithoutCancel(ctx), refs)
	s.logger.Info("gallery items deleted", zap.Int64("count", n), zap.Int("orphaned", len(orphaned)))

	return &models.DeleteResult{
		DeletedCount:  int(n),
		NotFound:      notFound,
		OrphanedFiles: orphaned,
	}, nil
}

// Reorder applies the position updates as one batch and returns the new order
func (s *galleryService) Reorder(ctx context.Context, updates []models.PositionUpdate) ([]models.GalleryItem, error) {
	if err := ordering.ValidateUpdates(updates); err != nil {
		return nil, err
	}
	if err := s.repo.ApplyPositions(ctx, updates); err != nil {
		return nil, err
	}
	return s.List(ctx)
}

// Swap exchanges the positions of two items.
// It is a no-op, reported as swapped=false, when a equals b or either item is not in the gallery.
func (s *galleryService) Swap(ctx context.Context, a, b string) ([]models.GalleryItem, bool, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, false, err
	}

	plan := ordering.SwapPlan(items, a, b)
	if plan == nil {
		ordering.Sort(items)
		for i := range items {
			s.withURL(&items[i])
		}
		return items, false, nil
	}

	if err := s.repo.ApplyPositions(ctx, plan); err != nil {
		return nil, false, err
	}
	list, err := s.List(ctx)
	if err != nil {
		return nil, false, err
	}
	return list, true, nil
}

// SelectForSwap records one selection of the two-step swap made by actor.
// The first selection becomes the anchor, the second one swaps with it.
func (s *galleryService) SelectForSwap(ctx context.Context, actorID, id string) (*models.SwapSelectResponse, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	first, second, ok := s.selectors.Select(actorID, id)
	if !ok {
		if anchor := s.selectors.Anchor(actorID); anchor != "" {
			return &models.SwapSelectResponse{Message: "Select another item to swap with", Anchor: anchor}, nil
		}
		return &models.SwapSelectResponse{Message: "Selection cleared"}, nil
	}

	_, swapped, err := s.Swap(ctx, first, second)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return &models.SwapSelectResponse{Message: "Nothing to swap"}, nil
	}
	return &models.SwapSelectResponse{Message: "Items swapped", Swapped: true}, nil
}

// Renumber compacts positions to 0..n-1 keeping the display order
func (s *galleryService) Renumber(ctx context.Context) (int, error) {
	n, err := s.repo.Renumber(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("gallery positions renumbered", zap.Int("changed", n))
	return n, nil
}
