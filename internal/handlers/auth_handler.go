package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gymsite/backend/internal/models"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for signup and login.
type AuthService interface {
	// Method Signup validates the request, creates an account and returns it with an access token.
	//
	// "req" parameter contains name, email and password.
	//
	// The first account ever created becomes super-admin.
	// If the email is taken, an ErrDuplicateEmail error is returned together with nil.
	Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error)
	// Method Login verifies the credentials and returns the account with an access token.
	//
	// "req" parameter contains email and password.
	//
	// If no account has such email, an ErrNotFound error is returned; if the password does not match, ErrInvalidCredential.
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService  AuthService
	cookieMaxAge time.Duration
}

// NewAuthHandler creates a new auth handler.
// "cookieMaxAge" is the lifetime of the access_token cookie and should match the token expiry.
func NewAuthHandler(authService AuthService, cookieMaxAge time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		authService:  authService,
		cookieMaxAge: cookieMaxAge,
	}
}

// RegisterRoutes registers all auth handler routes
// Note: This assumes the router is already scoped to /api
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
}

// Signup handles POST /signup
// @Summary Create an account
// @Description Create an account. The first account ever created becomes super-admin, every later one a user. The access token is returned in the body and as an HTTP-only cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.SignupRequest true "Signup request"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 409 {object} map[string]string "User already exists"
// @Failure 503 {object} map[string]string "Database unavailable"
// @Router /signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, "decode signup request", err)
		return
	}

	resp, err := h.authService.Signup(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, "sign up", err)
		return
	}

	h.setTokenCookie(w, resp.Token)
	h.RespondJSON(w, http.StatusCreated, resp)
}

// Login handles POST /login
// @Summary Login
// @Description Authenticate with email and password. The access token is returned in the body and as an HTTP-only cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 404 {object} map[string]string "User not found"
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, "decode login request", err)
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, "log in", err)
		return
	}

	h.setTokenCookie(w, resp.Token)
	h.RespondJSON(w, http.StatusOK, resp)
}

// setTokenCookie sets the access token as an HTTP-only cookie
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
