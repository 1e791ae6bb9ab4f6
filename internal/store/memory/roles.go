package memory

import (
	"context"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	"github.com/dropDatabas3/orgauth/internal/ids"
)

type roleRepo Store

func (r *roleRepo) GetByID(ctx context.Context, id string) (*repository.Role, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRole(role), nil
}

func (r *roleRepo) Create(ctx context.Context, role repository.Role) (*repository.Role, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if role.ID == "" {
		role.ID = ids.New()
	}
	if _, ok := s.roles[role.ID]; ok {
		return nil, repository.ErrConflict
	}
	if s.nameTaken(role.OrganizationID, role.Name, "") {
		return nil, repository.ErrConflict
	}
	if role.Category == "" {
		role.Category = repository.RoleCategoryCustom
	}
	now := s.now().UTC()
	role.CreatedAt, role.UpdatedAt = now, now
	s.roles[role.ID] = cloneRole(&role)
	return cloneRole(&role), nil
}

func (r *roleRepo) Rename(ctx context.Context, id, name string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[id]
	if !ok || role.IsDeleted {
		return repository.ErrNotFound
	}
	if role.IsSystem() {
		return repository.ErrSystemRole
	}
	if s.nameTaken(role.OrganizationID, name, id) {
		return repository.ErrConflict
	}
	role.Name = name
	role.UpdatedAt = s.now().UTC()
	return nil
}

func (r *roleRepo) Delete(ctx context.Context, id string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[id]
	if !ok || role.IsDeleted {
		return repository.ErrNotFound
	}
	if role.IsSystem() {
		return repository.ErrSystemRole
	}
	role.IsDeleted = true
	role.IsActive = false
	role.UpdatedAt = s.now().UTC()
	return nil
}

// nameTaken aplica la unicidad (organización, nombre) entre roles no borrados.
// Requiere s.mu tomado.
func (s *Store) nameTaken(orgID *string, name, exceptID string) bool {
	for id, other := range s.roles {
		if id == exceptID || other.IsDeleted || other.Name != name {
			continue
		}
		if sameOrg(other.OrganizationID, orgID) {
			return true
		}
	}
	return false
}

func sameOrg(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
