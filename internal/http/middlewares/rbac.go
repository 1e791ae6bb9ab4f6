package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/orgauth/internal/http/errors"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
	"github.com/dropDatabas3/orgauth/internal/permission"
)

// RequirePermission exige la clave key en el conjunto efectivo del request.
// Se monta detrás de RequireAuth.
func RequirePermission(key string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			set, ok := permission.FromContext(r.Context())
			if !ok {
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("token invalid or missing"))
				return
			}
			if err := permission.CheckSet(set, key); err != nil {
				logger.From(r.Context()).Info("permission denied", logger.Permission(key))
				errors.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole exige que el rol asignado sea uno de names. Un super admin
// siempre pasa. Roles inactivos o borrados no cuentan.
func RequireRole(roles permission.RoleLookup, names ...string) Middleware {
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if p == nil {
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("token invalid or missing"))
				return
			}
			if p.Identity.RoleID == nil || *p.Identity.RoleID == "" {
				errors.WriteError(w, errors.ErrForbidden.WithDetail("insufficient role"))
				return
			}
			role, err := roles.GetByID(r.Context(), *p.Identity.RoleID)
			if err != nil || !role.IsActive || role.IsDeleted {
				if err != nil {
					logger.From(r.Context()).Warn("role lookup failed", logger.Err(err))
				}
				errors.WriteError(w, errors.ErrForbidden.WithDetail("insufficient role"))
				return
			}
			if _, ok := allowed[strings.ToLower(role.Name)]; !ok && !permission.IsSuperAdmin(role) {
				errors.WriteError(w, errors.ErrForbidden.WithDetail("insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
