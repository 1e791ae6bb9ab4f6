package repository

import (
	"context"
	"time"
)

// Identity representa un usuario (principal) dentro de una organización.
// El core de auth la lee; nunca la modifica salvo para chequear su estado.
type Identity struct {
	ID             string
	OrganizationID string
	BranchID       *string
	RoleID         *string // nil = sin rol (solo permisos directos)
	UserID         string  // id numérico legado, en forma de string
	Username       string
	Email          string
	Name           string
	Permissions    []string // overrides directos a nivel usuario
	CanLogin       bool
	IsBlocked      bool
	CreatedAt      time.Time
}

// IdentityRepository define la lectura de identidades.
type IdentityRepository interface {
	// GetByID busca una identidad por ID.
	// Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Identity, error)
}
