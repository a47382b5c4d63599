package middleware

import (
	"net/http"

	"github.com/hospitalcms/backend/libs/auth/service"
)

// RoleMiddleware validates JWT access token and checks if operator's role is >= requiredRole
func RoleMiddleware(tokenGenerator *service.TokenGenerator, requiredRole int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, `{"error":"authentication required"}`)
				return
			}

			operatorID, role, err := tokenGenerator.ValidateAccessToken(token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, `{"error":"invalid or expired token"}`)
				return
			}

			if role < requiredRole {
				writeAuthError(w, http.StatusForbidden, `{"error":"insufficient permissions"}`)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), operatorID, role)))
		})
	}
}
