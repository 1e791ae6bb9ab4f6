package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	"github.com/dropDatabas3/orgauth/internal/ids"
)

type roleRepo struct {
	pool *pgxpool.Pool
}

const roleColumns = `id, organization_id, name, category, priority, is_active, is_deleted, permission_keys, created_at, updated_at`

func scanRole(row pgx.Row) (*repository.Role, error) {
	var r repository.Role
	err := row.Scan(&r.ID, &r.OrganizationID, &r.Name, &r.Category, &r.Priority,
		&r.IsActive, &r.IsDeleted, &r.PermissionKeys, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

func (r *roleRepo) GetByID(ctx context.Context, id string) (*repository.Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM role WHERE id = $1`, id))
}

func (r *roleRepo) Create(ctx context.Context, role repository.Role) (*repository.Role, error) {
	if role.ID == "" {
		role.ID = ids.New()
	}
	if role.Category == "" {
		role.Category = repository.RoleCategoryCustom
	}
	keys := role.PermissionKeys
	if keys == nil {
		keys = []string{}
	}
	// la unicidad (org, name) la garantiza role_org_name_active_uq → 23505 → ErrConflict
	return scanRole(r.pool.QueryRow(ctx, `
		INSERT INTO role (id, organization_id, name, category, priority, is_active, permission_keys)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+roleColumns,
		role.ID, role.OrganizationID, role.Name, role.Category, role.Priority, role.IsActive, keys,
	))
}

func (r *roleRepo) Rename(ctx context.Context, id, name string) error {
	return r.mutate(ctx, id, `UPDATE role SET name = $2, updated_at = NOW() WHERE id = $1 AND is_deleted = FALSE`, name)
}

func (r *roleRepo) Delete(ctx context.Context, id string) error {
	return r.mutate(ctx, id, `UPDATE role SET is_deleted = TRUE, is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_deleted = FALSE`)
}

// mutate bloquea la fila, rechaza roles de sistema y aplica la sentencia.
func (r *roleRepo) mutate(ctx context.Context, id, stmt string, args ...any) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var category string
	var deleted bool
	err = tx.QueryRow(ctx, `SELECT category, is_deleted FROM role WHERE id = $1 FOR UPDATE`, id).Scan(&category, &deleted)
	if err != nil {
		return mapErr(err)
	}
	if deleted {
		return repository.ErrNotFound
	}
	if category == repository.RoleCategorySystem {
		return repository.ErrSystemRole
	}
	if _, err := tx.Exec(ctx, stmt, append([]any{id}, args...)...); err != nil {
		return mapErr(err)
	}
	return tx.Commit(ctx)
}
