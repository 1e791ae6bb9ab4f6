package auth

import (
	"net/http"
	"time"

	svc "github.com/dropDatabas3/orgauth/internal/auth"
	dto "github.com/dropDatabas3/orgauth/internal/http/dto/auth"
	"github.com/dropDatabas3/orgauth/internal/http/helpers"
	mw "github.com/dropDatabas3/orgauth/internal/http/middlewares"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
)

// LoginController maneja POST /v2/auth/login.
type LoginController struct {
	service Service
	cookies helpers.CookieConfig
}

func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	res, err := c.service.Login(ctx, svc.LoginInput{
		LoginID:   req.LoginID,
		Password:  req.Password,
		DeviceID:  req.DeviceID,
		UserAgent: r.UserAgent(),
		IP:        mw.ClientIP(r),
	})
	if err != nil {
		writeError(w, err, log)
		return
	}

	c.cookies.SetSessionCookies(w,
		res.AccessToken, time.Until(res.AccessExpiresAt),
		res.RefreshToken, time.Until(res.RefreshExpiresAt))

	helpers.WriteJSON(w, http.StatusOK, dto.LoginResponse{
		AccessToken:         res.AccessToken,
		TokenType:           "Bearer",
		ExpiresIn:           secondsUntil(res.AccessExpiresAt),
		DeviceID:            res.DeviceID,
		ForcePasswordChange: res.ForcePasswordChange,
		Permissions:         res.Permissions,
	})
}
