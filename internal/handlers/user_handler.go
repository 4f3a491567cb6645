package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gymsite/backend/internal/models"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps methods for account administration.
//
// Every method receives the id of the caller; its role is read from the store, not from the token.
type AdminService interface {
	// Method Promote raises a user to admin.
	//
	// "target" parameter addresses the account by id or by email.
	//
	// Returns a confirmation message naming the target, or ErrForbidden, ErrInvalidTransition, ErrNotFound or ErrConflict.
	Promote(ctx context.Context, actorID string, target models.RoleChangeRequest) (string, error)
	// Method Demote lowers an admin to user. Only the super-admin may demote.
	Demote(ctx context.Context, actorID string, target models.RoleChangeRequest) (string, error)
	// Method DeleteAccount removes an account. Super-admins are never deleted.
	DeleteAccount(ctx context.Context, actorID string, target models.RoleChangeRequest) (string, error)
	// Method ListUsers returns every account for admins and only the caller's own account otherwise.
	ListUsers(ctx context.Context, actorID string) ([]models.Account, error)
	// Method Profile returns the caller's account.
	Profile(ctx context.Context, actorID string) (*models.Account, error)
}

// UserHandler handles account-related HTTP requests
type UserHandler struct {
	BaseHandler
	adminService AdminService
}

// NewUserHandler creates a new user handler
func NewUserHandler(adminService AdminService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		adminService: adminService,
	}
}

// RegisterRoutes registers all user handler routes behind authMiddleware.
// Privilege checks are made by the admin service against the stored role.
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/profile", h.Profile)
		r.Get("/users", h.ListUsers)
		r.Post("/promote", h.Promote)
		r.Post("/demote", h.Demote)
		r.Put("/users/{id}/promote", h.PromoteByID)
		r.Put("/users/{id}/demote", h.DemoteByID)
		r.Delete("/users/{id}", h.DeleteUser)
		r.Delete("/delete/{id}", h.DeleteUser)
	})
}

// Profile handles GET /profile
// @Summary Get own account
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.ProfileResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "User not found"
// @Router /profile [get]
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actorID(w, r)
	if !ok {
		return
	}

	account, err := h.adminService.Profile(r.Context(), actorID)
	if err != nil {
		h.RespondServiceError(w, r, "get profile", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.ProfileResponse{User: account})
}

// ListUsers handles GET /users
// @Summary List accounts
// @Description Admins get every account, users get only their own.
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.UserListResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Account no longer exists"
// @Router /users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actorID(w, r)
	if !ok {
		return
	}

	users, err := h.adminService.ListUsers(r.Context(), actorID)
	if err != nil {
		h.RespondServiceError(w, r, "list users", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.UserListResponse{Users: users})
}

// Promote handles POST /promote
// @Summary Promote a user to admin
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.RoleChangeRequest true "Target by id or email"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 409 {object} map[string]string "Invalid transition or concurrent change"
// @Router /promote [post]
func (h *UserHandler) Promote(w http.ResponseWriter, r *http.Request) {
	h.roleChangeFromBody(w, r, "promote user", h.adminService.Promote)
}

// Demote handles POST /demote
// @Summary Demote an admin to user
// @Description Only the super-admin may demote. The super-admin itself can never be demoted.
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.RoleChangeRequest true "Target by id or email"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 409 {object} map[string]string "Invalid transition or concurrent change"
// @Router /demote [post]
func (h *UserHandler) Demote(w http.ResponseWriter, r *http.Request) {
	h.roleChangeFromBody(w, r, "demote user", h.adminService.Demote)
}

// PromoteByID handles PUT /users/{id}/promote
// @Summary Promote a user to admin by id
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 409 {object} map[string]string "Invalid transition or concurrent change"
// @Router /users/{id}/promote [put]
func (h *UserHandler) PromoteByID(w http.ResponseWriter, r *http.Request) {
	h.roleChangeByID(w, r, "promote user", h.adminService.Promote)
}

// DemoteByID handles PUT /users/{id}/demote
// @Summary Demote an admin to user by id
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 409 {object} map[string]string "Invalid transition or concurrent change"
// @Router /users/{id}/demote [put]
func (h *UserHandler) DemoteByID(w http.ResponseWriter, r *http.Request) {
	h.roleChangeByID(w, r, "demote user", h.adminService.Demote)
}

// DeleteUser handles DELETE /users/{id} and its alias DELETE /delete/{id}
// @Summary Delete an account
// @Description Admins may delete users and admins. The super-admin can never be deleted.
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 409 {object} map[string]string "Concurrent change"
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	h.roleChangeByID(w, r, "delete user", h.adminService.DeleteAccount)
}

type roleChangeFunc func(ctx context.Context, actorID string, target models.RoleChangeRequest) (string, error)

func (h *UserHandler) roleChangeFromBody(w http.ResponseWriter, r *http.Request, op string, change roleChangeFunc) {
	actorID, ok := h.actorID(w, r)
	if !ok {
		return
	}

	var req models.RoleChangeRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, op, err)
		return
	}

	h.applyRoleChange(w, r, op, actorID, req, change)
}

func (h *UserHandler) roleChangeByID(w http.ResponseWriter, r *http.Request, op string, change roleChangeFunc) {
	actorID, ok := h.actorID(w, r)
	if !ok {
		return
	}

	req := models.RoleChangeRequest{TargetID: chi.URLParam(r, "id")}
	h.applyRoleChange(w, r, op, actorID, req, change)
}

func (h *UserHandler) applyRoleChange(w http.ResponseWriter, r *http.Request, op, actorID string, req models.RoleChangeRequest, change roleChangeFunc) {
	message, err := change(r.Context(), actorID, req)
	if err != nil {
		h.RespondServiceError(w, r, op, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, models.MessageResponse{Message: message})
}
