package admin

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	svc "github.com/dropDatabas3/orgauth/internal/auth"
	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	dto "github.com/dropDatabas3/orgauth/internal/http/dto/admin"
	authdto "github.com/dropDatabas3/orgauth/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/orgauth/internal/http/errors"
	"github.com/dropDatabas3/orgauth/internal/http/helpers"
	mw "github.com/dropDatabas3/orgauth/internal/http/middlewares"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
	"github.com/dropDatabas3/orgauth/internal/permission"
)

// UsersController maneja las acciones administrativas sobre un usuario.
// El usuario objetivo debe pertenecer a la organización del actor, salvo
// super admin.
type UsersController struct {
	service    Service
	identities repository.IdentityRepository
}

// target resuelve {id} y aplica el alcance por organización. Un usuario de
// otra organización responde igual que uno inexistente.
func (c *UsersController) target(ctx context.Context, r *http.Request) (*repository.Identity, error) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		return nil, httperrors.ErrMissingFields.WithDetail("id")
	}
	identity, err := c.identities.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, svc.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	p := mw.MustGetPrincipal(ctx)
	set, _ := permission.FromContext(ctx)
	if !set.IsAll() && identity.OrganizationID != p.Identity.OrganizationID {
		return nil, svc.ErrUserNotFound
	}
	return identity, nil
}

// Lock maneja POST /v2/admin/users/{id}/lock.
func (c *UsersController) Lock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.Lock"))

	var req dto.LockRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	identity, err := c.target(ctx, r)
	if err != nil {
		writeError(w, err, log)
		return
	}
	if identity.ID == mw.MustGetPrincipal(ctx).Identity.ID {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("cannot lock own account"))
		return
	}

	until, err := c.service.LockAccount(ctx, identity.ID, req.Reason, time.Duration(req.DurationSeconds)*time.Second)
	if err != nil {
		writeError(w, err, log)
		return
	}
	log.Info("account locked by admin",
		logger.IdentityID(identity.ID),
		logger.String("actor", mw.MustGetPrincipal(ctx).Identity.ID))

	helpers.WriteJSON(w, http.StatusOK, dto.LockResponse{
		IdentityID:  identity.ID,
		Locked:      true,
		LockedUntil: until,
	})
}

// Unlock maneja POST /v2/admin/users/{id}/unlock.
func (c *UsersController) Unlock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.Unlock"))

	identity, err := c.target(ctx, r)
	if err != nil {
		writeError(w, err, log)
		return
	}
	if err := c.service.UnlockAccount(ctx, identity.ID); err != nil {
		writeError(w, err, log)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.LockResponse{IdentityID: identity.ID, Locked: false})
}

// Devices maneja GET /v2/admin/users/{id}/devices.
func (c *UsersController) Devices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.Devices"))

	identity, err := c.target(ctx, r)
	if err != nil {
		writeError(w, err, log)
		return
	}
	list, err := c.service.Devices(ctx, identity.ID)
	if err != nil {
		writeError(w, err, log)
		return
	}
	out := make([]authdto.DeviceResponse, 0, len(list))
	for _, ds := range list {
		out = append(out, authdto.DeviceResponse{
			DeviceID:   ds.DeviceID,
			UserAgent:  ds.UserAgent,
			IP:         ds.IP,
			CreatedAt:  ds.CreatedAt,
			LastSeenAt: ds.LastSeenAt,
		})
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}
