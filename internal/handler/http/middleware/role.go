package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

func callerClaims(r *http.Request) (userID string, role user.Role, ok bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", "", false
	}
	userID, _ = claims["user_id"].(string)
	roleStr, ok := claims["role"].(string)
	if !ok || userID == "" {
		return "", "", false
	}
	return userID, user.Role(roleStr), true
}

func hasRole(role user.Role, roles []user.Role) bool {
	for _, allowed := range roles {
		if role == allowed {
			return true
		}
	}
	return false
}

func roleList(roles []user.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// RequireRoles lets through callers holding one of roles.
func RequireRoles(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, role, ok := callerClaims(r)
			if !ok {
				response.Unauthorized(w, "Access token is required")
				return
			}

			if !hasRole(role, roles) {
				response.Forbidden(w, fmt.Sprintf("Access denied: requires one of roles %s", roleList(roles)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnerOrRoles lets through callers whose id equals the URL parameter
// param, and callers holding one of roles.
func RequireOwnerOrRoles(param string, roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, role, ok := callerClaims(r)
			if !ok {
				response.Unauthorized(w, "Access token is required")
				return
			}

			if userID != chi.URLParam(r, param) && !hasRole(role, roles) {
				response.Forbidden(w, "Access denied: you can only access your own resources")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
