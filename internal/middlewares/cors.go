package middlewares

import (
	"net/http"
	"strings"
)

// corsPolicy is the parsed origin list of CORSMiddleware
type corsPolicy struct {
	anyOrigin bool
	origins   map[string]bool // lowercased
}

func newCORSPolicy(allowedOrigins []string) corsPolicy {
	p := corsPolicy{origins: make(map[string]bool, len(allowedOrigins))}
	for _, o := range allowedOrigins {
		if o == "*" {
			p.anyOrigin = true
			continue
		}
		p.origins[strings.ToLower(o)] = true
	}
	return p
}

// allow returns the Access-Control-Allow-Origin value for origin, "" when it is not allowed
func (p corsPolicy) allow(origin string) string {
	switch {
	case origin == "":
		return ""
	case p.anyOrigin:
		return "*"
	case p.origins[strings.ToLower(origin)]:
		return origin
	default:
		return ""
	}
}

// CORSMiddleware answers preflight requests and sets the CORS headers for the frontend.
// Credentials are only allowed for explicitly listed origins, never with "*".
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newCORSPolicy(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if allowed := policy.allow(r.Header.Get("Origin")); allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Add("Vary", "Origin")
				if allowed != "*" {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			h.Set("Access-Control-Expose-Headers", "X-Request-ID")
			h.Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
