// Package auth contiene los controllers de autenticación.
package auth

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	svc "github.com/dropDatabas3/orgauth/internal/auth"
	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	httperrors "github.com/dropDatabas3/orgauth/internal/http/errors"
	"github.com/dropDatabas3/orgauth/internal/http/helpers"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
)

// Service es lo que los controllers usan del core de auth.
type Service interface {
	Login(ctx context.Context, in svc.LoginInput) (*svc.LoginResult, error)
	Refresh(ctx context.Context, in svc.RefreshInput) (*svc.RefreshResult, error)
	Logout(ctx context.Context, identityID, deviceID string) error
	LogoutAll(ctx context.Context, identityID string) (int, error)
	ChangePassword(ctx context.Context, in svc.ChangePasswordInput) error
	ValidateToken(ctx context.Context, raw string) (*svc.Principal, error)
	Devices(ctx context.Context, identityID string) ([]repository.DeviceSession, error)
	RefreshTTL() time.Duration
}

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Login    *LoginController
	Refresh  *RefreshController
	Logout   *LogoutController
	Password *PasswordController
	Validate *ValidateController
	Me       *MeController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s Service, cookies helpers.CookieConfig) *Controllers {
	return &Controllers{
		Login:    &LoginController{service: s, cookies: cookies},
		Refresh:  &RefreshController{service: s, cookies: cookies},
		Logout:   &LogoutController{service: s, cookies: cookies},
		Password: &PasswordController{service: s, cookies: cookies},
		Validate: &ValidateController{service: s, cookies: cookies},
		Me:       &MeController{service: s},
	}
}

// writeError responde err y loguea lo que no es un error esperado.
func writeError(w http.ResponseWriter, err error, log *zap.Logger) {
	appErr := httperrors.FromError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		log.Error("unexpected error", logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}

// secondsUntil redondea al segundo más cercano; nunca negativo.
func secondsUntil(t time.Time) int64 {
	d := time.Until(t).Round(time.Second)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
