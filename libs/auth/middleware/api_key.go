package middleware

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader carries the key of internal callers such as the history cleanup job
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware guards the internal routes with a shared key.
// An empty configured key rejects every request.
func APIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	expected := []byte(apiKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(APIKeyHeader)
			if provided == "" {
				writeAuthError(w, http.StatusUnauthorized, `{"error":"missing API key"}`)
				return
			}
			if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
				writeAuthError(w, http.StatusUnauthorized, `{"error":"invalid API key"}`)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
