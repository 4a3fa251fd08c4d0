package middleware

import (
	"net/http"

	"github.com/agrofield/attendance-backend-go/internal/domain/user"
	"github.com/agrofield/attendance-backend-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// RequireCoordinator requires coordinator or admin role
func RequireCoordinator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, user.ErrCoordinatorAccessRequired)
			return
		}

		roleStr, ok := claims["role"].(string)
		if !ok {
			response.HandleError(w, user.ErrCoordinatorAccessRequired)
			return
		}

		role := user.Role(roleStr)
		if role != user.RoleCoordinator && role != user.RoleAdmin {
			response.HandleError(w, user.ErrCoordinatorAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
