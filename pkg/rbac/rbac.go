// Package rbac provides role-based access control middleware. It must run
// after middleware.Authenticate.
package rbac

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/rincon/pkg/middleware"
	"github.com/shashiranjanraj/rincon/pkg/response"
)

// HasRole allows only users holding one of roles.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := roleSet(roles)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r)
			if !ok || !allowed[role] {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SelfOrRole allows the user whose id equals the {param} path parameter,
// or anyone holding one of roles.
func SelfOrRole(param string, roles ...string) func(http.Handler) http.Handler {
	allowed := roleSet(roles)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := middleware.ClaimsFromCtx(r)
			if !ok {
				response.Forbidden(w)
				return
			}
			if allowed[claims.Role] {
				next.ServeHTTP(w, r)
				return
			}
			id, err := strconv.ParseUint(chi.URLParam(r, param), 10, 64)
			if err != nil || uint(id) != claims.UserID {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func roleSet(roles []string) map[string]bool {
	m := make(map[string]bool, len(roles))
	for _, r := range roles {
		m[r] = true
	}
	return m
}
