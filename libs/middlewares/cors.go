package middlewares

import (
	"net/http"
	"slices"
	"strings"
)

const (
	corsAllowedMethods = "GET, POST, PUT, PATCH, DELETE"
	corsAllowedHeaders = "Authorization, Content-Type, If-Match, " + RequestIDHeader
	corsExposedHeaders = "ETag, " + RequestIDHeader
	corsMaxAge         = "600"
)

// CORSMiddleware lets the admin panel origins call the editor API.
// A "*" entry allows any origin without credentials. Preflights from other origins get 403.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	wildcard := slices.Contains(allowedOrigins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			listed := originListed(origin, allowedOrigins)

			if origin == "" || (!listed && !wildcard) {
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if listed {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			} else {
				h.Set("Access-Control-Allow-Origin", "*")
			}
			h.Set("Access-Control-Expose-Headers", corsExposedHeaders)

			if preflight {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
				h.Set("Access-Control-Max-Age", corsMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originListed(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}
	return slices.ContainsFunc(allowedOrigins, func(allowed string) bool {
		return strings.EqualFold(origin, allowed)
	})
}
