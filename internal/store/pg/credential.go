package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
)

type credentialRepo struct {
	pool *pgxpool.Pool
}

const credentialColumns = `
	c.identity_id, c.username, c.password_hash, c.force_password_change, c.lock_level,
	c.locked_until, c.lock_reason, c.failed_attempts, c.password_changed_at`

func scanCredential(row interface{ Scan(...any) error }) (*repository.Credential, error) {
	var c repository.Credential
	err := row.Scan(
		&c.IdentityID, &c.Username, &c.PasswordHash, &c.ForcePasswordChange, &c.LockLevel,
		&c.LockedUntil, &c.LockReason, &c.FailedAttempts, &c.PasswordChangedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *credentialRepo) FindByLogin(ctx context.Context, field repository.LoginField, value string) (*repository.Credential, error) {
	if value == "" {
		return nil, repository.ErrNotFound
	}
	var where string
	switch field {
	case repository.LoginByUsername:
		where = "i.username = $1"
	case repository.LoginByUserID:
		where = "i.user_id = $1"
	case repository.LoginByEmail:
		where = "LOWER(i.email) = LOWER($1)"
	default:
		return nil, fmt.Errorf("unknown login field %q", field)
	}
	query := `SELECT ` + credentialColumns + `
		FROM credential c JOIN identity i ON i.id = c.identity_id
		WHERE ` + where + ` LIMIT 1`
	return scanCredential(r.pool.QueryRow(ctx, query, value))
}

func (r *credentialRepo) GetByIdentityID(ctx context.Context, identityID string) (*repository.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credential c WHERE c.identity_id = $1`
	return scanCredential(r.pool.QueryRow(ctx, query, identityID))
}

func (r *credentialRepo) RecordFailure(ctx context.Context, identityID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		UPDATE credential SET failed_attempts = failed_attempts + 1
		WHERE identity_id = $1
		RETURNING failed_attempts`, identityID).Scan(&n)
	if err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

func (r *credentialRepo) ResetFailures(ctx context.Context, identityID string) error {
	return r.exec(ctx, `
		UPDATE credential
		SET failed_attempts = 0, lock_level = 0, locked_until = NULL, lock_reason = ''
		WHERE identity_id = $1`, identityID)
}

func (r *credentialRepo) Lock(ctx context.Context, identityID string, level int, until *time.Time, reason string) error {
	return r.exec(ctx, `
		UPDATE credential
		SET lock_level = $2, locked_until = $3, lock_reason = $4, failed_attempts = 0
		WHERE identity_id = $1`, identityID, level, until, reason)
}

func (r *credentialRepo) Unlock(ctx context.Context, identityID string) error {
	return r.ResetFailures(ctx, identityID)
}

func (r *credentialRepo) UpdatePasswordHash(ctx context.Context, identityID, hash string, changedAt time.Time) error {
	return r.exec(ctx, `
		UPDATE credential
		SET password_hash = $2, force_password_change = FALSE, password_changed_at = $3
		WHERE identity_id = $1`, identityID, hash, changedAt)
}

func (r *credentialRepo) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
