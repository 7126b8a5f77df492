package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/veritas-hq/attendance-engine/internal/domain/employee"
	"github.com/veritas-hq/attendance-engine/internal/handler/http/response"
)

// AdminOnly restricts a route group to employees with the admin role.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, "invalid access token")
			return
		}

		role, ok := claims["role"].(string)
		if !ok || role != string(employee.RoleAdmin) {
			response.Forbidden(w, "admin privilege required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
