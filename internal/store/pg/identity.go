package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
)

type identityRepo struct {
	pool *pgxpool.Pool
}

func (r *identityRepo) GetByID(ctx context.Context, id string) (*repository.Identity, error) {
	const query = `
		SELECT id, organization_id, branch_id, role_id, COALESCE(user_id, ''), username,
		       COALESCE(email, ''), name, permissions, can_login, is_blocked, created_at
		FROM identity WHERE id = $1
	`
	var it repository.Identity
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&it.ID, &it.OrganizationID, &it.BranchID, &it.RoleID, &it.UserID, &it.Username,
		&it.Email, &it.Name, &it.Permissions, &it.CanLogin, &it.IsBlocked, &it.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &it, nil
}

type provisioningRepo struct {
	pool *pgxpool.Pool
}

func (r *provisioningRepo) CreateIdentity(ctx context.Context, it repository.Identity, cred repository.Credential) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	perms := it.Permissions
	if perms == nil {
		perms = []string{}
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO identity (id, organization_id, branch_id, role_id, user_id, username, email, name,
		                      permissions, can_login, is_blocked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		it.ID, it.OrganizationID, it.BranchID, it.RoleID, nullIfEmpty(it.UserID), it.Username,
		nullIfEmpty(it.Email), it.Name, perms, it.CanLogin, it.IsBlocked,
	)
	if err != nil {
		return mapErr(err)
	}

	username := cred.Username
	if username == "" {
		username = it.Username
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO credential (identity_id, username, password_hash, force_password_change)
		VALUES ($1, $2, $3, $4)`,
		it.ID, username, cred.PasswordHash, cred.ForcePasswordChange,
	)
	if err != nil {
		return mapErr(err)
	}
	return tx.Commit(ctx)
}
