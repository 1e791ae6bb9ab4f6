// Package admin contiene los controllers administrativos: bloqueo de
// cuentas, dispositivos de un usuario y catálogo de permisos.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	svc "github.com/dropDatabas3/orgauth/internal/auth"
	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	httperrors "github.com/dropDatabas3/orgauth/internal/http/errors"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
	"github.com/dropDatabas3/orgauth/internal/permission"
)

// Service es lo que los controllers admin usan del core de auth.
type Service interface {
	LockAccount(ctx context.Context, identityID, reason string, duration time.Duration) (*time.Time, error)
	UnlockAccount(ctx context.Context, identityID string) error
	Devices(ctx context.Context, identityID string) ([]repository.DeviceSession, error)
}

// Deps contiene las dependencias de los controllers admin.
type Deps struct {
	Service    Service
	Identities repository.IdentityRepository
	Catalog    *permission.Catalog
}

// Controllers agrupa todos los controllers del dominio admin.
type Controllers struct {
	Users   *UsersController
	Catalog *CatalogController
}

// NewControllers crea el agregador de controllers admin.
func NewControllers(d Deps) *Controllers {
	if d.Catalog == nil {
		d.Catalog = permission.DefaultCatalog
	}
	return &Controllers{
		Users:   &UsersController{service: d.Service, identities: d.Identities},
		Catalog: &CatalogController{catalog: d.Catalog},
	}
}

func writeError(w http.ResponseWriter, err error, log *zap.Logger) {
	// En rutas admin la identidad objetivo inexistente es un 404, no un 401
	if errors.Is(err, svc.ErrUserNotFound) {
		httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("user not found"))
		return
	}
	appErr := httperrors.FromError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		log.Error("unexpected error", logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}
