package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/models"
	"github.com/gymsite/backend/internal/ordering"
	"go.uber.org/zap"
)

const galleryColumns = `id, kind, storage_ref, filename, content_type, size, display_name, position, version, created_at, updated_at`

// galleryRepository implements GalleryRepository
type galleryRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewGalleryRepository creates a new gallery repository
func NewGalleryRepository(db *sql.DB, logger *zap.Logger) *galleryRepository {
	return &galleryRepository{
		db:     db,
		logger: logger,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

// querier is implemented by *sql.DB and *sql.Tx
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanGalleryItem(row rowScanner) (*models.GalleryItem, error) {
	item := &models.GalleryItem{}
	err := row.Scan(
		&item.ID,
		&item.Kind,
		&item.StorageRef,
		&item.Filename,
		&item.ContentType,
		&item.Size,
		&item.DisplayName,
		&item.Position,
		&item.Version,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *galleryRepository) queryItems(ctx context.Context, q querier, query string, args ...any) ([]models.GalleryItem, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query gallery items", zap.Error(err))
		return nil, apperrors.Store("query gallery items", err)
	}
	defer rows.Close()

	items := []models.GalleryItem{}
	for rows.Next() {
		item, err := scanGalleryItem(rows)
		if err != nil {
			r.logger.Error("failed to scan gallery item", zap.Error(err))
			return nil, apperrors.Store("scan gallery item", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("iterate gallery items", err)
	}
	return items, nil
}

// List returns every gallery item in display order
func (r *galleryRepository) List(ctx context.Context) ([]models.GalleryItem, error) {
	query := `SELECT ` + galleryColumns + ` FROM gallery_items ORDER BY position ASC, created_at ASC, id ASC`
	return r.queryItems(ctx, r.db, query)
}

// GetByID retrieves a gallery item by id
func (r *galleryRepository) GetByID(ctx context.Context, id string) (*models.GalleryItem, error) {
	query := `SELECT ` + galleryColumns + ` FROM gallery_items WHERE id = ?`

	item, err := scanGalleryItem(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "gallery item %s", id)
	}
	if err != nil {
		r.logger.Error("failed to get gallery item", zap.Error(err), zap.String("id", id))
		return nil, apperrors.Store("get gallery item", err)
	}
	return item, nil
}

// GetByIDs returns the items among ids that exist, in display order
func (r *galleryRepository) GetByIDs(ctx context.Context, ids []string) ([]models.GalleryItem, error) {
	if len(ids) == 0 {
		return []models.GalleryItem{}, nil
	}
	query := `SELECT ` + galleryColumns + ` FROM gallery_items WHERE id IN (` + placeholders(len(ids)) + `)
		ORDER BY position ASC, created_at ASC, id ASC`
	return r.queryItems(ctx, r.db, query, stringArgs(ids)...)
}

// CreateBatch inserts items after the current last position, in the given order.
// Positions are computed inside the transaction; ID, Position, Version and timestamps are set on items.
func (r *galleryRepository) CreateBatch(ctx context.Context, items []*models.GalleryItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return apperrors.Store("begin transaction", err)
	}
	defer tx.Rollback()

	var max sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(position) FROM gallery_items`).Scan(&max); err != nil {
		r.logger.Error("failed to read max position", zap.Error(err))
		return apperrors.Store("read max position", err)
	}
	var maxPtr *int64
	if max.Valid {
		maxPtr = &max.Int64
	}
	positions, err := ordering.AppendPositions(maxPtr, len(items))
	if err != nil {
		r.logger.Warn("no positions left after current maximum", zap.Int64("max", max.Int64), zap.Int("count", len(items)))
		return err
	}

	query := `
		INSERT INTO gallery_items (` + galleryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := r.now()
	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.Position = positions[i]
		item.Version = 1
		item.CreatedAt = now
		item.UpdatedAt = now

		_, err := tx.ExecContext(ctx, query,
			item.ID, string(item.Kind), item.StorageRef, item.Filename, item.ContentType, item.Size,
			item.DisplayName, item.Position, item.Version, item.CreatedAt, item.UpdatedAt)
		if err != nil {
			r.logger.Error("failed to insert gallery item", zap.Error(err), zap.String("filename", item.Filename))
			return apperrors.Store("insert gallery item", err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit gallery items", zap.Error(err))
		return apperrors.Store("commit gallery items", err)
	}
	return nil
}

// Update writes the mutable fields of item and bumps its version.
// When expectedVersion is set the update only applies to that version, otherwise Conflict.
// On success item.Version and item.UpdatedAt hold the stored values.
func (r *galleryRepository) Update(ctx context.Context, item *models.GalleryItem, expectedVersion *int) error {
	query := `
		UPDATE gallery_items
		SET kind = ?, storage_ref = ?, filename = ?, content_type = ?, size = ?, display_name = ?,
			version = version + 1, updated_at = ?
		WHERE id = ?`
	now := r.now()
	args := []any{string(item.Kind), item.StorageRef, item.Filename, item.ContentType, item.Size, item.DisplayName, now, item.ID}
	if expectedVersion != nil {
		query += ` AND version = ?`
		args = append(args, *expectedVersion)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to update gallery item", zap.Error(err), zap.String("id", item.ID))
		return apperrors.Store("update gallery item", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return apperrors.Store("update gallery item", err)
	}
	if n == 0 {
		return r.missOrConflict(ctx, r.db, item.ID)
	}

	var version int
	if err := r.db.QueryRowContext(ctx, `SELECT version FROM gallery_items WHERE id = ?`, item.ID).Scan(&version); err != nil {
		return apperrors.Store("read gallery item version", err)
	}
	item.Version = version
	item.UpdatedAt = now
	return nil
}

// missOrConflict classifies a conditional write that matched no row
func (r *galleryRepository) missOrConflict(ctx context.Context, q querier, id string) error {
	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM gallery_items WHERE id = ?)`, id).Scan(&exists); err != nil {
		return apperrors.Store("check gallery item existence", err)
	}
	if !exists {
		return apperrors.Wrap(apperrors.ErrNotFound, "gallery item %s", id)
	}
	return apperrors.Wrap(apperrors.ErrConflict, "gallery item %s was modified concurrently", id)
}

// ApplyPositions sets the position of every item in updates inside one transaction.
// An unknown id or a version mismatch aborts the whole batch.
func (r *galleryRepository) ApplyPositions(ctx context.Context, updates []models.PositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return apperrors.Store("begin transaction", err)
	}
	defer tx.Rollback()

	if err := r.applyPositions(ctx, tx, updates); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit positions", zap.Error(err))
		return apperrors.Store("commit positions", err)
	}
	return nil
}

func (r *galleryRepository) applyPositions(ctx context.Context, tx *sql.Tx, updates []models.PositionUpdate) error {
	now := r.now()
	for _, u := range updates {
		query := `UPDATE gallery_items SET position = ?, version = version + 1, updated_at = ? WHERE id = ?`
		args := []any{u.Position, now, u.ID}
		if u.Version != nil {
			query += ` AND version = ?`
			args = append(args, *u.Version)
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			r.logger.Error("failed to update position", zap.Error(err), zap.String("id", u.ID))
			return apperrors.Store("update position", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return apperrors.Store("update position", err)
		}
		if n == 0 {
			return r.missOrConflict(ctx, tx, u.ID)
		}
	}
	return nil
}

// DeleteByIDs removes the items with the given ids and returns how many were deleted
func (r *galleryRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `DELETE FROM gallery_items WHERE id IN (` + placeholders(len(ids)) + `)`

	result, err := r.db.ExecContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		r.logger.Error("failed to delete gallery items", zap.Error(err), zap.Strings("ids", ids))
		return 0, apperrors.Store("delete gallery items", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Store("delete gallery items", err)
	}
	return n, nil
}

// Renumber rewrites positions to 0..n-1 in the current display order.
// Returns the number of items whose position changed.
func (r *galleryRepository) Renumber(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return 0, apperrors.Store("begin transaction", err)
	}
	defer tx.Rollback()

	items, err := r.queryItems(ctx, tx, `SELECT `+galleryColumns+` FROM gallery_items ORDER BY position ASC, created_at ASC, id ASC`)
	if err != nil {
		return 0, err
	}

	updates := ordering.Renumber(items)
	if err := r.applyPositions(ctx, tx, updates); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit renumbering", zap.Error(err))
		return 0, apperrors.Store("commit renumbering", err)
	}
	return len(updates), nil
}
