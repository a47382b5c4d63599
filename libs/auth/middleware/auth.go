package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hospitalcms/backend/libs/auth/service"
)

type contextKey string

const (
	operatorIDKey contextKey = "operatorID"
	roleKey       contextKey = "role"
)

// AuthMiddleware validates the operator access token and stores operatorID and role in context
func AuthMiddleware(tokenGenerator *service.TokenGenerator) func(http.Handler) http.Handler {
	return RoleMiddleware(tokenGenerator, service.RoleViewer)
}

// extractToken reads the token from the Authorization header, falling back to the access_token cookie
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	cookie, err := r.Cookie("access_token")
	if err == nil {
		return cookie.Value
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// GetOperatorID retrieves the operator ID from context
func GetOperatorID(ctx context.Context) (int, bool) {
	operatorID, ok := ctx.Value(operatorIDKey).(int)
	return operatorID, ok
}

// GetRole retrieves the operator role from context
func GetRole(ctx context.Context) (int, bool) {
	role, ok := ctx.Value(roleKey).(int)
	return role, ok
}

// WithOperator returns a context carrying operatorID and role, as the auth middleware does
func WithOperator(ctx context.Context, operatorID, role int) context.Context {
	ctx = context.WithValue(ctx, operatorIDKey, operatorID)
	return context.WithValue(ctx, roleKey, role)
}
