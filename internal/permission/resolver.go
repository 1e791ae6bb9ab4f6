package permission

import (
	"context"
	"errors"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
)

const componentResolver = "permission.resolver"

// RoleLookup obtiene un rol por ID. repository.RoleRepository y CachedRoles
// la satisfacen.
type RoleLookup interface {
	GetByID(ctx context.Context, id string) (*repository.Role, error)
}

// Resolver calcula conjuntos efectivos.
type Resolver struct {
	roles RoleLookup
}

// NewResolver crea un resolver. roles puede ser nil si los roles siempre
// vienen pre-cargados.
func NewResolver(roles RoleLookup) *Resolver {
	return &Resolver{roles: roles}
}

// Resolve retorna el conjunto efectivo de identity. Si role es nil y la
// identidad tiene RoleID, el rol se busca con RoleLookup.
//
// Un rol inexistente, inactivo o borrado no aporta claves. Cualquier otro
// error de lookup degrada a un conjunto vacío (falla cerrado).
func (r *Resolver) Resolve(ctx context.Context, identity *repository.Identity, role *repository.Role) Set {
	if identity == nil {
		return Empty()
	}
	log := logger.From(ctx).With(
		logger.Layer("permission"),
		logger.Component(componentResolver),
		logger.Op("Resolve"),
		logger.IdentityID(identity.ID),
	)

	if role == nil && identity.RoleID != nil && *identity.RoleID != "" {
		if r.roles == nil {
			log.Error("role lookup not configured, denying all")
			return Empty()
		}
		found, err := r.roles.GetByID(ctx, *identity.RoleID)
		switch {
		case err == nil:
			role = found
		case errors.Is(err, repository.ErrNotFound):
			log.Warn("identity references a missing role", logger.String("role_id", *identity.RoleID))
		default:
			log.Error("role lookup failed, denying all", logger.Err(err))
			return Empty()
		}
	}

	return roleSet(role).Union(NewSet(identity.Permissions...))
}

// roleSet retorna las claves que aporta un rol.
func roleSet(role *repository.Role) Set {
	if role == nil || !role.IsActive || role.IsDeleted {
		return Empty()
	}
	if role.Name == SuperAdminRole {
		return All()
	}
	return NewSet(role.PermissionKeys...)
}

// Authorize indica si identity tiene key.
func (r *Resolver) Authorize(ctx context.Context, identity *repository.Identity, key string) bool {
	return r.Resolve(ctx, identity, nil).Has(key)
}

// Check retorna *DeniedError si identity no tiene key.
func (r *Resolver) Check(ctx context.Context, identity *repository.Identity, key string) error {
	return CheckSet(r.Resolve(ctx, identity, nil), key)
}

// CheckSet aplica Check sobre un conjunto ya resuelto.
func CheckSet(s Set, key string) error {
	if s.Has(key) {
		return nil
	}
	return &DeniedError{Key: key}
}

// IsSuperAdmin indica si el rol otorga el bypass total.
func IsSuperAdmin(role *repository.Role) bool {
	return roleSet(role).IsAll()
}
