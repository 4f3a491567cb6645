package middleware

import (
	"net/http"
	"time"

	"github.com/gymsite/backend/internal/middlewares"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerMiddleware logs HTTP requests with request ID.
// Server errors are logged at error level, client errors at warn level.
func LoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code and size
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			level := zapcore.InfoLevel
			switch {
			case ww.statusCode >= http.StatusInternalServerError:
				level = zapcore.ErrorLevel
			case ww.statusCode >= http.StatusBadRequest:
				level = zapcore.WarnLevel
			}

			if ce := logger.Check(level, "HTTP request"); ce != nil {
				ce.Write(
					zap.String("request_id", middlewares.GetRequestID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("query", r.URL.RawQuery),
					zap.Int("status", ww.statusCode),
					zap.Int64("bytes", ww.bytes),
					zap.Duration("duration", time.Since(start)),
					zap.String("ip", r.RemoteAddr),
					zap.String("user_agent", r.UserAgent()),
				)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code and body size
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	bytes       int64
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
