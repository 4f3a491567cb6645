package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/models"
	"github.com/gymsite/backend/internal/roles"
	"go.uber.org/zap"
)

// adminService implements AdminService
type adminService struct {
	accountRepo AccountRepository
	machine     *roles.Machine
	logger      *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(accountRepo AccountRepository, machine *roles.Machine, logger *zap.Logger) *adminService {
	return &adminService{
		accountRepo: accountRepo,
		machine:     machine,
		logger:      logger,
	}
}

// loadActor reads the current account of the caller.
// The role in the token may be stale, so guards always use the stored role.
func (s *adminService) loadActor(ctx context.Context, actorID string) (*models.Account, error) {
	actor, err := s.accountRepo.GetByID(ctx, actorID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "account no longer exists")
	}
	return actor, err
}

func (s *adminService) loadTarget(ctx context.Context, target models.RoleChangeRequest) (*models.Account, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if target.TargetID != "" {
		return s.accountRepo.GetByID(ctx, target.TargetID)
	}
	return s.accountRepo.GetByEmail(ctx, target.TargetEmail)
}

// lostRace classifies a conditional write that matched no row
func (s *adminService) lostRace(ctx context.Context, id string) error {
	if _, err := s.accountRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return apperrors.Wrap(apperrors.ErrConflict, "account %s was modified concurrently", id)
}

// Promote raises a user to admin
func (s *adminService) Promote(ctx context.Context, actorID string, target models.RoleChangeRequest) (string, error) {
	return s.transition(ctx, actorID, target, s.machine.Promote, "%s has been promoted to admin")
}

// Demote lowers an admin to user
func (s *adminService) Demote(ctx context.Context, actorID string, target models.RoleChangeRequest) (string, error) {
	return s.transition(ctx, actorID, target, s.machine.Demote, "%s has been demoted to user")
}

func (s *adminService) transition(
	ctx context.Context,
	actorID string,
	target models.RoleChangeRequest,
	guard func(actor, target models.Role) (models.Role, error),
	message string,
) (string, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return "", err
	}
	account, err := s.loadTarget(ctx, target)
	if err != nil {
		return "", err
	}

	next, err := guard(actor.Role, account.Role)
	if err != nil {
		return "", err
	}

	ok, err := s.accountRepo.UpdateRole(ctx, account.ID, account.Role, next)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", s.lostRace(ctx, account.ID)
	}

	s.logger.Info("role changed",
		zap.String("actor_id", actor.ID),
		zap.String("target_id", account.ID),
		zap.String("from", string(account.Role)),
		zap.String("to", string(next)),
	)
	return fmt.Sprintf(message, account.Email), nil
}

// DeleteAccount removes an account. Super-admins can never be deleted.
func (s *adminService) DeleteAccount(ctx context.Context, actorID string, target models.RoleChangeRequest) (string, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return "", err
	}
	account, err := s.loadTarget(ctx, target)
	if err != nil {
		return "", err
	}

	if err := s.machine.Delete(actor.Role, account.Role); err != nil {
		return "", err
	}

	ok, err := s.accountRepo.Delete(ctx, account.ID, account.Role)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", s.lostRace(ctx, account.ID)
	}

	s.logger.Info("account deleted", zap.String("actor_id", actor.ID), zap.String("target_id", account.ID))
	return fmt.Sprintf("User %s has been deleted", account.Email), nil
}

// ListUsers returns every account for admins and only the caller's own account otherwise
func (s *adminService) ListUsers(ctx context.Context, actorID string) ([]models.Account, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !roles.CanListAll(actor.Role) {
		return []models.Account{*actor}, nil
	}
	return s.accountRepo.List(ctx)
}

// Profile returns the caller's account
func (s *adminService) Profile(ctx context.Context, actorID string) (*models.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return account, nil
}
