// Package router define las rutas HTTP V2 del servicio sobre chi.
package router

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	adminctrl "github.com/dropDatabas3/orgauth/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/orgauth/internal/http/controllers/auth"
	"github.com/dropDatabas3/orgauth/internal/http/controllers/health"
	httperrors "github.com/dropDatabas3/orgauth/internal/http/errors"
	mw "github.com/dropDatabas3/orgauth/internal/http/middlewares"
	"github.com/dropDatabas3/orgauth/internal/permission"
	"github.com/dropDatabas3/orgauth/internal/rate"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Auth   *authctrl.Controllers
	Admin  *adminctrl.Controllers
	Health *health.HealthController

	Authenticator mw.Authenticator
	// AccessCookie es la cookie de la que RequireAuth lee el access token.
	AccessCookie string

	// Limiters por ruta pública. nil = sin rate limit.
	LoginLimiter   rate.Limiter
	RefreshLimiter rate.Limiter

	// Metrics es el handler de /metrics. nil = no se expone.
	Metrics http.Handler

	// TrustedProxies habilita X-Forwarded-For solo para estos peers.
	TrustedProxies []*net.IPNet
}

// New arma el handler raíz con los middlewares globales.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// Orden: recover → request id → ip → headers → métricas → logging
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithClientIP(d.TrustedProxies),
		mw.WithSecurityHeaders(),
		mw.WithMetrics(),
		mw.WithLogging(),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	if d.Health != nil {
		r.Get("/readyz", d.Health.Readyz)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/v2", func(r chi.Router) {
		registerAuthRoutes(r, d)
		registerAdminRoutes(r, d)
	})
	return r
}

func registerAuthRoutes(r chi.Router, d Deps) {
	c := d.Auth
	requireAuth := mw.RequireAuth(d.Authenticator, d.AccessCookie)

	// ─── Públicas ───
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())
		r.With(rateLimit(d.LoginLimiter)).Post("/auth/login", c.Login.Login)
		r.With(rateLimit(d.RefreshLimiter)).Post("/auth/refresh", c.Refresh.Refresh)
		r.Post("/auth/validate", c.Validate.Validate)
	})

	// ─── Autenticadas ───
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore(), requireAuth)
		r.Post("/auth/logout", c.Logout.Logout)
		r.Post("/auth/logout-all", c.Logout.LogoutAll)
		r.Post("/auth/change-password", c.Password.ChangePassword)
		r.Get("/me", c.Me.Me)
		r.Get("/me/devices", c.Me.Devices)
	})
}

func registerAdminRoutes(r chi.Router, d Deps) {
	c := d.Admin
	if c == nil {
		return
	}
	requireAuth := mw.RequireAuth(d.Authenticator, d.AccessCookie)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/permissions/catalog", c.Catalog.Catalog)

		r.Route("/admin/users/{id}", func(r chi.Router) {
			r.Use(mw.WithNoStore())
			r.With(mw.RequirePermission(permission.KeyUsersLock)).Post("/lock", c.Users.Lock)
			r.With(mw.RequirePermission(permission.KeyUsersUnlock)).Post("/unlock", c.Users.Unlock)
			r.With(mw.RequirePermission(permission.KeyUsersViewDevices)).Get("/devices", c.Users.Devices)
		})
	})
}

func rateLimit(l rate.Limiter) func(http.Handler) http.Handler {
	return mw.WithRateLimit(mw.RateLimitConfig{Limiter: l, KeyFunc: mw.IPPathRateKey})
}
