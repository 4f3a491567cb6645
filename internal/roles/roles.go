// Package roles implements the account role state machine.
//
// States are user, admin and super-admin. A super-admin is terminal: nobody can demote or
// delete it. The functions here are pure guards; persisting the result is up to the caller.
package roles

import (
	"fmt"

	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/models"
)

// PromotionPolicy selects who may promote a user to admin
type PromotionPolicy string

const (
	// PolicyAdmins lets admins and super-admins promote
	PolicyAdmins PromotionPolicy = "admins"
	// PolicySuperAdminOnly restricts promotion to the super-admin
	PolicySuperAdminOnly PromotionPolicy = "super-admin-only"
)

// ParsePromotionPolicy converts a configuration value to a PromotionPolicy.
// An empty value selects PolicyAdmins.
func ParsePromotionPolicy(s string) (PromotionPolicy, error) {
	switch PromotionPolicy(s) {
	case "", PolicyAdmins:
		return PolicyAdmins, nil
	case PolicySuperAdminOnly:
		return PolicySuperAdminOnly, nil
	default:
		return "", fmt.Errorf("invalid promotion policy %q, must be %q or %q", s, PolicyAdmins, PolicySuperAdminOnly)
	}
}

// canPromote reports whether actor may promote under the policy
func (p PromotionPolicy) canPromote(actor models.Role) bool {
	if p == PolicySuperAdminOnly {
		return actor == models.RoleSuperAdmin
	}
	return actor.IsAdmin()
}

// Machine evaluates role transitions under a promotion policy
type Machine struct {
	policy PromotionPolicy
}

// NewMachine creates a new role state machine
func NewMachine(policy PromotionPolicy) *Machine {
	if policy == "" {
		policy = PolicyAdmins
	}
	return &Machine{policy: policy}
}

// InitialRole returns the role of a newly created account.
// The first account ever created becomes the super-admin.
func InitialRole(existingAccounts int) models.Role {
	if existingAccounts == 0 {
		return models.RoleSuperAdmin
	}
	return models.RoleUser
}

// Promote returns the role the target gets when actor promotes it.
func (m *Machine) Promote(actor, target models.Role) (models.Role, error) {
	if !m.policy.canPromote(actor) {
		if m.policy == PolicySuperAdminOnly {
			return "", apperrors.Wrap(apperrors.ErrForbidden, "only the super-admin can promote users")
		}
		return "", apperrors.Wrap(apperrors.ErrForbidden, "admin access only")
	}

	switch target {
	case models.RoleUser:
		return models.RoleAdmin, nil
	case models.RoleAdmin:
		return "", apperrors.Wrap(apperrors.ErrInvalidTransition, "already admin")
	case models.RoleSuperAdmin:
		return "", apperrors.Wrap(apperrors.ErrInvalidTransition, "cannot modify super-admin")
	default:
		return "", apperrors.Wrap(apperrors.ErrInvalidTransition, "unknown role %q", target)
	}
}

// Demote returns the role the target gets when actor demotes it.
// The target check runs first so that demoting a super-admin is always an invalid transition.
func (m *Machine) Demote(actor, target models.Role) (models.Role, error) {
	switch target {
	case models.RoleSuperAdmin:
		return "", apperrors.Wrap(apperrors.ErrInvalidTransition, "cannot demote super-admin")
	case models.RoleUser:
		return "", apperrors.Wrap(apperrors.ErrInvalidTransition, "already a user")
	case models.RoleAdmin:
	default:
		return "", apperrors.Wrap(apperrors.ErrInvalidTransition, "unknown role %q", target)
	}

	if actor != models.RoleSuperAdmin {
		return "", apperrors.Wrap(apperrors.ErrForbidden, "only the super-admin can demote admins")
	}
	return models.RoleUser, nil
}

// Delete checks whether actor may delete an account with the target role.
func (m *Machine) Delete(actor, target models.Role) error {
	if target == models.RoleSuperAdmin {
		return apperrors.Wrap(apperrors.ErrForbidden, "cannot delete super-admin")
	}
	if !actor.IsAdmin() {
		return apperrors.Wrap(apperrors.ErrForbidden, "admin access only")
	}
	return nil
}

// CanListAll reports whether actor may see every account
func CanListAll(actor models.Role) bool {
	return actor.IsAdmin()
}
