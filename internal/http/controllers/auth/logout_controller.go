package auth

import (
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/orgauth/internal/http/dto/auth"
	"github.com/dropDatabas3/orgauth/internal/http/helpers"
	mw "github.com/dropDatabas3/orgauth/internal/http/middlewares"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
)

// LogoutController maneja POST /v2/auth/logout y /v2/auth/logout-all.
// Ambas rutas requieren RequireAuth.
type LogoutController struct {
	service Service
	cookies helpers.CookieConfig
}

// Logout cierra un dispositivo propio (por defecto, el del token).
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.Logout"))
	p := mw.MustGetPrincipal(ctx)

	var req dto.LogoutRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	deviceID := strings.TrimSpace(req.DeviceID)
	if deviceID == "" {
		deviceID = p.DeviceID
	}

	if err := c.service.Logout(ctx, p.Identity.ID, deviceID); err != nil {
		writeError(w, err, log)
		return
	}
	if deviceID == p.DeviceID {
		c.cookies.ClearSessionCookies(w)
	}
	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll cierra todos los dispositivos de la identidad.
func (c *LogoutController) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.LogoutAll"))
	p := mw.MustGetPrincipal(ctx)

	n, err := c.service.LogoutAll(ctx, p.Identity.ID)
	if err != nil {
		writeError(w, err, log)
		return
	}
	c.cookies.ClearSessionCookies(w)
	helpers.WriteJSON(w, http.StatusOK, dto.LogoutAllResponse{Sessions: n})
}
