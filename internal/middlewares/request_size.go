package middlewares

import (
	"mime"
	"net/http"
)

// RequestSizeLimitMiddleware limits the size of request bodies.
// Multipart bodies (gallery uploads) get maxUploadSize, every other body gets maxBodySize.
func RequestSizeLimitMiddleware(maxBodySize, maxUploadSize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := maxBodySize
			if isMultipart(r) {
				limit = maxUploadSize
			}

			if r.ContentLength > limit {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// isMultipart reports whether the request carries a multipart/form-data body
func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
