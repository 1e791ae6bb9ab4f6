package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/orgauth/internal/http/dto/auth"
	"github.com/dropDatabas3/orgauth/internal/http/helpers"
	mw "github.com/dropDatabas3/orgauth/internal/http/middlewares"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
	"github.com/dropDatabas3/orgauth/internal/permission"
)

// MeController maneja GET /v2/me y GET /v2/me/devices.
type MeController struct {
	service Service
}

func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	p := mw.MustGetPrincipal(r.Context())
	set, _ := permission.FromContext(r.Context())
	id := p.Identity

	helpers.WriteJSON(w, http.StatusOK, dto.MeResponse{
		ID:             id.ID,
		OrganizationID: id.OrganizationID,
		BranchID:       id.BranchID,
		RoleID:         id.RoleID,
		Username:       id.Username,
		Email:          id.Email,
		Name:           id.Name,
		DeviceID:       p.DeviceID,
		Permissions:    set.Keys(),
	})
}

func (c *MeController) Devices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MeController.Devices"))
	p := mw.MustGetPrincipal(ctx)

	list, err := c.service.Devices(ctx, p.Identity.ID)
	if err != nil {
		writeError(w, err, log)
		return
	}
	out := make([]dto.DeviceResponse, 0, len(list))
	for _, ds := range list {
		out = append(out, dto.DeviceResponse{
			DeviceID:   ds.DeviceID,
			Current:    ds.DeviceID == p.DeviceID,
			UserAgent:  ds.UserAgent,
			IP:         ds.IP,
			CreatedAt:  ds.CreatedAt,
			LastSeenAt: ds.LastSeenAt,
		})
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}
