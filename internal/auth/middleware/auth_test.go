package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/auth/service"
	"github.com/gymsite/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenFor(t *testing.T, tg *service.TokenGenerator, role models.Role) string {
	t.Helper()
	token, err := tg.GenerateAccessToken(&models.Account{ID: "u-1", Email: "u@gym.io", Role: role})
	require.NoError(t, err)
	return token
}

func TestRoleMiddleware(t *testing.T) {
	tg := service.NewTokenGenerator("secret", time.Hour)

	var gotID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		required       models.Role
		setup          func(r *http.Request)
		expectedStatus int
	}{
		{
			name:           "no token",
			required:       models.RoleUser,
			setup:          func(r *http.Request) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:     "garbage token",
			required: models.RoleUser,
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer nope")
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:     "wrong scheme",
			required: models.RoleUser,
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Basic "+tokenFor(t, tg, models.RoleUser))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:     "user token on user route",
			required: models.RoleUser,
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+tokenFor(t, tg, models.RoleUser))
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:     "cookie token",
			required: models.RoleUser,
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "access_token", Value: tokenFor(t, tg, models.RoleUser)})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:     "user token on admin route",
			required: models.RoleAdmin,
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+tokenFor(t, tg, models.RoleUser))
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:     "super-admin token on admin route",
			required: models.RoleAdmin,
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "bearer "+tokenFor(t, tg, models.RoleSuperAdmin))
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID = ""
			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			tt.setup(req)
			w := httptest.NewRecorder()

			RoleMiddleware(tg, tt.required)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "u-1", gotID)
			} else {
				assert.Empty(t, gotID)
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestAuthMiddleware_StoresClaims(t *testing.T) {
	tg := service.NewTokenGenerator("secret", time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, tg, models.RoleAdmin))

	var claims *service.Claims
	AuthMiddleware(tg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ = GetClaims(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, claims)
	assert.Equal(t, "u@gym.io", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestGetUserID_Missing(t *testing.T) {
	_, ok := GetUserID(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}

type mockLookup struct {
	account *models.Account
	err     error
}

func (m *mockLookup) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.account, nil
}

func TestStoredRoleMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		claims         *service.Claims
		lookup         *mockLookup
		expectedStatus int
		expectedRole   models.Role
	}{
		{
			name:           "no claims",
			lookup:         &mockLookup{},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "promoted since login",
			claims:         &service.Claims{UserID: "u-1", Role: models.RoleUser},
			lookup:         &mockLookup{account: &models.Account{ID: "u-1", Role: models.RoleAdmin}},
			expectedStatus: http.StatusOK,
			expectedRole:   models.RoleAdmin,
		},
		{
			name:           "demoted since login",
			claims:         &service.Claims{UserID: "u-1", Role: models.RoleAdmin},
			lookup:         &mockLookup{account: &models.Account{ID: "u-1", Role: models.RoleUser}},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "deleted account",
			claims:         &service.Claims{UserID: "u-1", Role: models.RoleAdmin},
			lookup:         &mockLookup{err: apperrors.Wrap(apperrors.ErrNotFound, "user u-1")},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "store down",
			claims:         &service.Claims{UserID: "u-1", Role: models.RoleAdmin},
			lookup:         &mockLookup{err: apperrors.Store("get user", errors.New("timeout"))},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/gallery/upload", nil)
			if tt.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), tt.claims))
			}
			w := httptest.NewRecorder()

			var gotRole models.Role
			StoredRoleMiddleware(tt.lookup, models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				claims, _ := GetClaims(r.Context())
				gotRole = claims.Role
			})).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedRole, gotRole)
		})
	}
}

func TestStoredRoleMiddleware_ErrorBodyIsJSON(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:            "message with quotes",
			err:             apperrors.Wrap(apperrors.ErrForbidden, `account "u-1" is locked`),
			expectedStatus:  http.StatusForbidden,
			expectedMessage: `forbidden: account "u-1" is locked`,
		},
		{
			name:            "message with backslash and newline",
			err:             apperrors.Validation("bad id \\x\nnext"),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "validation error: bad id \\x\nnext",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/gallery/upload", nil)
			req = req.WithContext(WithClaims(req.Context(), &service.Claims{UserID: "u-1", Role: models.RoleAdmin}))
			w := httptest.NewRecorder()

			StoredRoleMiddleware(&mockLookup{err: tt.err}, models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next handler must not run")
			})).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedMessage, body["error"])
		})
	}
}
