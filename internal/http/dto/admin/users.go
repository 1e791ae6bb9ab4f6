// Package admin contiene DTOs para endpoints administrativos.
package admin

import (
	"time"

	"github.com/dropDatabas3/orgauth/internal/permission"
)

// LockRequest: DurationSeconds <= 0 bloquea de forma indefinida.
type LockRequest struct {
	Reason          string `json:"reason,omitempty"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`
}

type LockResponse struct {
	IdentityID  string     `json:"identity_id"`
	Locked      bool       `json:"locked"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

// CatalogResponse expone el catálogo como lista plana y como árbol
// módulo → página → acción.
type CatalogResponse struct {
	Keys    []string            `json:"keys"`
	Modules []permission.Module `json:"modules"`
}
