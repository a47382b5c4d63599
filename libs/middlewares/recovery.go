package middlewares

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// panicResponse is written when a handler panics. RequestID lets an operator quote the failed request.
type panicResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// RecoveryMiddleware turns a handler panic into a 500 response that carries the request id.
// http.ErrAbortHandler is re-raised so the server can abort the connection.
func RecoveryMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				requestID := GetRequestID(r.Context())
				logger.Error("Handler panicked",
					zap.String("request_id", requestID),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(panicResponse{Error: "internal server error", RequestID: requestID})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
