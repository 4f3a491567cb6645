package models

import (
	"strings"

	"github.com/gymsite/backend/internal/apperrors"
)

// Validate checks that all signup fields are present
func (r *SignupRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if r.Name == "" || r.Email == "" || r.Password == "" {
		return apperrors.Validation("name, email, and password are required")
	}
	if !strings.Contains(r.Email, "@") {
		return apperrors.Validation("invalid email format")
	}
	return nil
}

// Validate checks that email and password are present
func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" || r.Password == "" {
		return apperrors.Validation("email and password are required")
	}
	return nil
}

// Validate checks that exactly one way of addressing the target is used
func (r *RoleChangeRequest) Validate() error {
	r.TargetID = strings.TrimSpace(r.TargetID)
	r.TargetEmail = strings.TrimSpace(r.TargetEmail)
	if r.TargetID == "" && r.TargetEmail == "" {
		return apperrors.Validation("target id or email required")
	}
	if r.TargetID != "" && r.TargetEmail != "" {
		return apperrors.Validation("provide either target id or target email, not both")
	}
	return nil
}

// PositionUpdates validates the request and converts it to position updates.
func (r *ReorderRequest) PositionUpdates() ([]PositionUpdate, error) {
	if len(r.Items) == 0 {
		return nil, apperrors.Validation("invalid items: at least one item is required")
	}

	updates := make([]PositionUpdate, 0, len(r.Items))
	for i, it := range r.Items {
		id := strings.TrimSpace(it.ID)
		if id == "" {
			return nil, apperrors.Validation("item %d: id is required", i)
		}
		if it.Position == "" {
			return nil, apperrors.Validation("item %s: position is required", id)
		}
		pos, err := it.Position.Int64()
		if err != nil {
			return nil, apperrors.Validation("item %s: position %q is not an integer", id, it.Position.String())
		}
		if !ValidPosition(pos) {
			return nil, apperrors.Validation("item %s: position %d is out of range", id, pos)
		}
		updates = append(updates, PositionUpdate{ID: id, Position: pos, Version: it.Version})
	}
	return updates, nil
}

// Validate checks that at least one id is given and none is blank
func (r *DeleteGalleryRequest) Validate() error {
	if len(r.IDs) == 0 {
		return apperrors.Validation("no IDs provided")
	}
	for i, id := range r.IDs {
		r.IDs[i] = strings.TrimSpace(id)
		if r.IDs[i] == "" {
			return apperrors.Validation("id at index %d is empty", i)
		}
	}
	return nil
}

// Validate checks that both ids are present
func (r *SwapRequest) Validate() error {
	r.FirstID = strings.TrimSpace(r.FirstID)
	r.SecondID = strings.TrimSpace(r.SecondID)
	if r.FirstID == "" || r.SecondID == "" {
		return apperrors.Validation("firstId and secondId are required")
	}
	return nil
}

// Validate checks that the id is present
func (r *SwapSelectRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		return apperrors.Validation("id is required")
	}
	return nil
}
