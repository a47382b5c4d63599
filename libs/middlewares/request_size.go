package middlewares

import (
	"net/http"
	"strings"
)

// RequestSizeLimitMiddleware limits the size of request bodies.
// Multipart uploads get uploadLimit, every other body gets jsonLimit.
func RequestSizeLimitMiddleware(jsonLimit, uploadLimit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := jsonLimit
			if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
				limit = uploadLimit
			}

			if r.ContentLength > limit {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				w.Write([]byte(`{"error":"request body too large"}`))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
