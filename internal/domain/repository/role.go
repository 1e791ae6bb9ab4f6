package repository

import (
	"context"
	"time"
)

// Categorías de rol.
const (
	RoleCategorySystem = "system"
	RoleCategoryCustom = "custom"
)

// Role es un conjunto nombrado de claves de permiso.
// OrganizationID nil = rol de alcance global.
type Role struct {
	ID             string
	OrganizationID *string
	Name           string
	Category       string
	Priority       int
	IsActive       bool
	IsDeleted      bool
	PermissionKeys []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsSystem indica si el rol es de sistema (no se borra ni se renombra).
func (r *Role) IsSystem() bool {
	return r != nil && r.Category == RoleCategorySystem
}

// RoleRepository define operaciones sobre roles.
type RoleRepository interface {
	// GetByID busca un rol por ID (incluye borrados lógicos).
	// Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Role, error)

	// Create crea un rol. Retorna ErrConflict si el nombre ya existe
	// dentro de la organización entre roles no borrados.
	Create(ctx context.Context, role Role) (*Role, error)

	// Rename cambia el nombre. ErrSystemRole para roles de sistema.
	Rename(ctx context.Context, id, name string) error

	// Delete hace borrado lógico. ErrSystemRole para roles de sistema.
	Delete(ctx context.Context, id string) error
}
