// Package middleware authenticates requests with JWT access tokens.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/auth/service"
	"github.com/gymsite/backend/internal/models"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenValidator validates access tokens
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*service.Claims, error)
}

// AuthMiddleware validates JWT access token and stores its claims in the request context
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return RoleMiddleware(validator, models.RoleUser)
}

// RoleMiddleware validates JWT access token and checks if the token role is at least requiredRole.
// The role in the token is only a coarse gate; role transitions re-read the actor from the store.
func RoleMiddleware(validator TokenValidator, requiredRole models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := validator.ValidateAccessToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if !claims.Role.AtLeast(requiredRole) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountLookup reads the stored account of a token subject
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
}

// StoredRoleMiddleware checks the role currently stored for the token subject instead of the role
// carried by the token, so promotions and demotions take effect without a new login.
// It must run after AuthMiddleware. The claims in the context are updated with the stored role.
func StoredRoleMiddleware(lookup AccountLookup, requiredRole models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			account, err := lookup.GetByID(r.Context(), claims.UserID)
			if errors.Is(err, apperrors.ErrNotFound) {
				writeError(w, http.StatusForbidden, "account no longer exists")
				return
			}
			if err != nil {
				writeError(w, apperrors.HTTPStatus(err), apperrors.PublicMessage(err))
				return
			}

			if !account.Role.AtLeast(requiredRole) {
				writeError(w, http.StatusForbidden, "admin access only")
				return
			}

			current := *claims
			current.Role = account.Role
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), &current)))
		})
	}
}

// extractToken reads the token from the Authorization header, falling back to the access_token cookie
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}

	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// GetClaims retrieves the token claims from context
func GetClaims(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*service.Claims)
	return claims, ok
}

// GetUserID retrieves the user ID from context
func GetUserID(ctx context.Context) (string, bool) {
	claims, ok := GetClaims(ctx)
	if !ok {
		return "", false
	}
	return claims.UserID, true
}

// WithClaims returns a copy of ctx carrying claims. Used by tests and tooling
// that call handlers without going through the middleware.
func WithClaims(ctx context.Context, claims *service.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
