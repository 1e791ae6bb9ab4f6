package auth

import (
	"net/http"
	"strings"
	"time"

	svc "github.com/dropDatabas3/orgauth/internal/auth"
	dto "github.com/dropDatabas3/orgauth/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/orgauth/internal/http/errors"
	"github.com/dropDatabas3/orgauth/internal/http/helpers"
	mw "github.com/dropDatabas3/orgauth/internal/http/middlewares"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
)

// RefreshController maneja POST /v2/auth/refresh.
type RefreshController struct {
	service Service
	cookies helpers.CookieConfig
}

func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RefreshController.Refresh"))

	var req dto.RefreshRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	raw := c.cookies.RefreshFromCookie(r)
	if raw == "" {
		raw = strings.TrimSpace(req.RefreshToken)
	}
	if raw == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("refresh_token"))
		return
	}

	res, err := c.service.Refresh(ctx, svc.RefreshInput{
		RefreshToken: raw,
		DeviceID:     req.DeviceID,
		UserAgent:    r.UserAgent(),
		IP:           mw.ClientIP(r),
	})
	if err != nil {
		// El refresh ya no sirve: se limpian las cookies para que el cliente re-loguee
		c.cookies.ClearSessionCookies(w)
		writeError(w, err, log)
		return
	}

	c.cookies.SetSessionCookies(w,
		res.AccessToken, time.Until(res.AccessExpiresAt),
		res.RefreshToken, time.Until(res.RefreshExpiresAt))

	helpers.WriteJSON(w, http.StatusOK, dto.RefreshResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   secondsUntil(res.AccessExpiresAt),
		DeviceID:    res.DeviceID,
	})
}
