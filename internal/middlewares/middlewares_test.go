package middlewares

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name                string
		allowed             []string
		origin              string
		method              string
		expectedOrigin      string
		expectedCredentials string
		expectedStatus      int
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "http://a.io", method: http.MethodGet, expectedOrigin: "*", expectedStatus: http.StatusOK},
		{name: "listed origin", allowed: []string{"http://gym.io"}, origin: "http://GYM.io", method: http.MethodGet, expectedOrigin: "http://GYM.io", expectedCredentials: "true", expectedStatus: http.StatusOK},
		{name: "unlisted origin", allowed: []string{"http://gym.io"}, origin: "http://evil.io", method: http.MethodGet, expectedStatus: http.StatusOK},
		{name: "no origin", allowed: []string{"*"}, method: http.MethodGet, expectedStatus: http.StatusOK},
		{name: "preflight", allowed: []string{"*"}, origin: "http://a.io", method: http.MethodOptions, expectedOrigin: "*", expectedStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/gallery", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()

			CORSMiddleware(tt.allowed)(okHandler).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.expectedCredentials, w.Header().Get("Access-Control-Allow-Credentials"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-42")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, "req-42", seen)
	})

	t.Run("control characters replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "abc\tdef")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Len(t, seen, 36)
	})

	t.Run("oversized id replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("x", 500))
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Len(t, seen, 36)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := RequestIDMiddleware(RecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/gallery", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "handler panicked", entry.Message)
	assert.Equal(t, "GET /api/gallery", entry.ContextMap()["route"])
	assert.NotEmpty(t, entry.ContextMap()["request_id"])
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	h := RequestSizeLimitMiddleware(10, 100)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name           string
		contentType    string
		body           string
		expectedStatus int
	}{
		{name: "small json", contentType: "application/json", body: `{"a":1}`, expectedStatus: http.StatusOK},
		{name: "large json", contentType: "application/json", body: strings.Repeat("a", 50), expectedStatus: http.StatusRequestEntityTooLarge},
		{name: "multipart within upload limit", contentType: "multipart/form-data; boundary=x", body: strings.Repeat("a", 50), expectedStatus: http.StatusOK},
		{name: "multipart over upload limit", contentType: "multipart/form-data; boundary=x", body: strings.Repeat("a", 150), expectedStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
