package ordering

import (
	"sync"

	"github.com/gymsite/backend/internal/models"
)

// SwapPlan returns the two updates that exchange the positions of a and b.
// It returns nil when a and b are the same item or either is missing from items.
// The version of each item is carried so the swap is applied conditionally.
func SwapPlan(items []models.GalleryItem, a, b string) []models.PositionUpdate {
	if a == b {
		return nil
	}
	var first, second *models.GalleryItem
	for i := range items {
		switch items[i].ID {
		case a:
			first = &items[i]
		case b:
			second = &items[i]
		}
	}
	if first == nil || second == nil {
		return nil
	}

	firstVersion, secondVersion := first.Version, second.Version
	return []models.PositionUpdate{
		{ID: first.ID, Position: second.Position, Version: &firstVersion},
		{ID: second.ID, Position: first.Position, Version: &secondVersion},
	}
}

// SwapSelector implements the two-step swap interaction.
// The first selection becomes the anchor, the second completes the pair and clears it.
type SwapSelector struct {
	anchor string
}

// Anchor returns the pending selection, or an empty string
func (s *SwapSelector) Anchor() string {
	return s.anchor
}

// Select records a selection. When it completes a pair, it returns the anchor and id with ok set.
// Selecting the anchor a second time clears it without producing a pair.
func (s *SwapSelector) Select(id string) (first, second string, ok bool) {
	switch s.anchor {
	case "":
		s.anchor = id
		return "", "", false
	case id:
		s.anchor = ""
		return "", "", false
	default:
		first = s.anchor
		s.anchor = ""
		return first, id, true
	}
}

// SelectorRegistry keeps one SwapSelector per actor and is safe for concurrent use
type SelectorRegistry struct {
	mu        sync.Mutex
	selectors map[string]*SwapSelector
}

// NewSelectorRegistry creates an empty registry
func NewSelectorRegistry() *SelectorRegistry {
	return &SelectorRegistry{selectors: make(map[string]*SwapSelector)}
}

// Select records a selection for actor, see SwapSelector.Select
func (r *SelectorRegistry) Select(actor, id string) (first, second string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sel, exists := r.selectors[actor]
	if !exists {
		sel = &SwapSelector{}
		r.selectors[actor] = sel
	}
	first, second, ok = sel.Select(id)
	if sel.Anchor() == "" {
		delete(r.selectors, actor)
	}
	return first, second, ok
}

// Anchor returns the pending selection of actor
func (r *SelectorRegistry) Anchor(actor string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sel, ok := r.selectors[actor]; ok {
		return sel.Anchor()
	}
	return ""
}

// Forget drops any references to id, used after the item is deleted
func (r *SelectorRegistry) Forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for actor, sel := range r.selectors {
		if sel.Anchor() == id {
			delete(r.selectors, actor)
		}
	}
}
