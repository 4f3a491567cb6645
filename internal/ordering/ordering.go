// Package ordering keeps the display order of gallery items.
//
// Positions are opaque sortable integers: they may have gaps and may repeat. Ties are broken by
// creation time and then by id, so the order is total for any set of items.
package ordering

import (
	"slices"

	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/models"
)

// Compare orders a before b when it has a lower position, then an earlier createdAt, then a lower id.
func Compare(a, b models.GalleryItem) int {
	switch {
	case a.Position < b.Position:
		return -1
	case a.Position > b.Position:
		return 1
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// Sort sorts items in display order in place
func Sort(items []models.GalleryItem) {
	slices.SortStableFunc(items, Compare)
}

// AppendPositions returns n consecutive positions placed after max.
// A nil max means the gallery is empty and numbering starts at 0.
// It fails with ErrConflict when the run would pass models.PositionLimit. Renumbering frees the range.
func AppendPositions(max *int64, n int) ([]int64, error) {
	if n <= 0 {
		return nil, nil
	}
	next := int64(0)
	if max != nil {
		if *max >= models.PositionLimit-int64(n)+1 {
			return nil, apperrors.Wrap(apperrors.ErrConflict, "gallery positions exhausted, renumber positions")
		}
		next = *max + 1
	}
	positions := make([]int64, n)
	for i := range positions {
		positions[i] = next + int64(i)
	}
	return positions, nil
}

// Renumber returns updates that rewrite the positions of items to 0..n-1 in display order.
// Items already at their target position are skipped.
func Renumber(items []models.GalleryItem) []models.PositionUpdate {
	sorted := slices.Clone(items)
	Sort(sorted)

	var updates []models.PositionUpdate
	for i, it := range sorted {
		if it.Position != int64(i) {
			updates = append(updates, models.PositionUpdate{ID: it.ID, Position: int64(i)})
		}
	}
	return updates
}

// ValidateUpdates rejects a reorder batch that names the same item twice or moves an item out of range
func ValidateUpdates(updates []models.PositionUpdate) error {
	if len(updates) == 0 {
		return apperrors.Validation("invalid items: at least one item is required")
	}
	seen := make(map[string]struct{}, len(updates))
	for _, u := range updates {
		if _, ok := seen[u.ID]; ok {
			return apperrors.Validation("item %s appears more than once", u.ID)
		}
		if !models.ValidPosition(u.Position) {
			return apperrors.Validation("item %s: position %d is out of range", u.ID, u.Position)
		}
		seen[u.ID] = struct{}{}
	}
	return nil
}

// Apply returns a copy of items with the updates applied, in display order.
// Updates for ids not present in items are ignored.
func Apply(items []models.GalleryItem, updates []models.PositionUpdate) []models.GalleryItem {
	byID := make(map[string]int64, len(updates))
	for _, u := range updates {
		byID[u.ID] = u.Position
	}
	out := slices.Clone(items)
	for i := range out {
		if pos, ok := byID[out[i].ID]; ok {
			out[i].Position = pos
		}
	}
	Sort(out)
	return out
}
