package auth

import (
	"net/http"

	svc "github.com/dropDatabas3/orgauth/internal/auth"
	dto "github.com/dropDatabas3/orgauth/internal/http/dto/auth"
	"github.com/dropDatabas3/orgauth/internal/http/helpers"
	mw "github.com/dropDatabas3/orgauth/internal/http/middlewares"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
)

// PasswordController maneja POST /v2/auth/change-password.
type PasswordController struct {
	service Service
	cookies helpers.CookieConfig
}

// ChangePassword cambia la contraseña propia. Todas las sesiones, incluida
// la actual, quedan revocadas.
func (c *PasswordController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PasswordController.ChangePassword"))
	p := mw.MustGetPrincipal(ctx)

	var req dto.ChangePasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	err := c.service.ChangePassword(ctx, svc.ChangePasswordInput{
		IdentityID: p.Identity.ID,
		Old:        req.OldPassword,
		New:        req.NewPassword,
		Confirm:    req.ConfirmPassword,
	})
	if err != nil {
		writeError(w, err, log)
		return
	}
	c.cookies.ClearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}
