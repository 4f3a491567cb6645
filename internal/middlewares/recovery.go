package middlewares

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// RecoveryMiddleware turns a panicking handler into a 500 answer.
// The panic value and stack are logged with the request id, the client only sees a generic message.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func RecoveryMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				RequestLogger(r.Context(), logger).Error("handler panicked",
					zap.String("route", r.Method+" "+r.URL.Path),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSONError writes the {"error": msg} body every handler error uses
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
