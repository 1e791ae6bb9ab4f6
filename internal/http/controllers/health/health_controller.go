// Package health contiene el controller de readiness.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/orgauth/internal/http/helpers"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
)

// Check es un chequeo de un componente. Required=false degrada en lugar de
// marcar el servicio como no disponible.
type Check struct {
	Name     string
	Required bool
	Ping     func(ctx context.Context) error
}

// ComponentStatus es el resultado de un chequeo.
type ComponentStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok | fail
	Error  string `json:"error,omitempty"`
}

// Response es el body de GET /readyz.
type Response struct {
	Status     string            `json:"status"` // ready | degraded | unavailable
	Version    string            `json:"version,omitempty"`
	Components []ComponentStatus `json:"components"`
}

// HealthController maneja GET /readyz.
type HealthController struct {
	checks  []Check
	version string
	timeout time.Duration
}

// NewHealthController crea el controller. timeout <= 0 usa 2s por chequeo.
func NewHealthController(version string, timeout time.Duration, checks ...Check) *HealthController {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthController{checks: checks, version: version, timeout: timeout}
}

// Readyz maneja GET /readyz
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	resp := Response{Status: "ready", Version: c.version, Components: make([]ComponentStatus, 0, len(c.checks))}
	for _, chk := range c.checks {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		err := chk.Ping(cctx)
		cancel()

		st := ComponentStatus{Name: chk.Name, Status: "ok"}
		if err != nil {
			st.Status, st.Error = "fail", err.Error()
			switch {
			case chk.Required:
				resp.Status = "unavailable"
			case resp.Status == "ready":
				resp.Status = "degraded"
			}
			log.Warn("readiness check failed", logger.Component(chk.Name), logger.Err(err))
		}
		resp.Components = append(resp.Components, st)
	}

	if c.version != "" {
		w.Header().Set("X-Service-Version", c.version)
	}
	w.Header().Set("Cache-Control", "no-store")

	status := http.StatusOK
	if resp.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}
	helpers.WriteJSON(w, status, resp)
}
