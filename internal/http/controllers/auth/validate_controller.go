package auth

import (
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/orgauth/internal/http/dto/auth"
	"github.com/dropDatabas3/orgauth/internal/http/helpers"
	mw "github.com/dropDatabas3/orgauth/internal/http/middlewares"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
)

// ValidateController maneja POST /v2/auth/validate (introspección).
type ValidateController struct {
	service Service
	cookies helpers.CookieConfig
}

// Validate aplica el mismo pipeline que RequireAuth. Un token rechazado
// responde el código del motivo.
func (c *ValidateController) Validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ValidateController.Validate"))

	var req dto.ValidateRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	raw := strings.TrimSpace(req.Token)
	if raw == "" {
		raw = mw.ExtractToken(r, c.cookies.AccessName)
	}

	p, err := c.service.ValidateToken(ctx, raw)
	if err != nil {
		writeError(w, err, log)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ValidateResponse{
		Active:   true,
		Sub:      p.Identity.ID,
		DeviceID: p.DeviceID,
		Org:      p.OrgID,
		Exp:      p.ExpiresAt.Unix(),
	})
}
