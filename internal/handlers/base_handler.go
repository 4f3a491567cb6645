package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/auth/middleware"
	"github.com/gymsite/backend/internal/middlewares"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondServiceError maps an error returned by a service to its status and public message.
// Failures of collaborators are logged with their cause, client errors only at debug level.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := apperrors.HTTPStatus(err)
	log := middlewares.RequestLogger(r.Context(), h.Logger)
	if status >= http.StatusInternalServerError {
		log.Error("failed to "+op, zap.Error(err))
	} else {
		log.Debug("failed to "+op, zap.Error(err))
	}
	h.RespondError(w, status, apperrors.PublicMessage(err))
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields and trailing data
func (h *BaseHandler) DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.Validation("request body too large")
		}
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("request body is empty")
		}
		return apperrors.Validation("invalid request body: %v", err)
	}
	if dec.More() {
		return apperrors.Validation("invalid request body: unexpected data after JSON object")
	}
	return nil
}

// actorID returns the id of the authenticated caller
func (h *BaseHandler) actorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.GetUserID(r.Context())
	if !ok || id == "" {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return id, true
}
