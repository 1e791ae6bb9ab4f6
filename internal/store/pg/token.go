package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
)

type refreshRepo struct {
	pool *pgxpool.Pool
}

func (r *refreshRepo) Create(ctx context.Context, t repository.RefreshToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_token (id, identity_id, device_id, token_hash, session_version, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.IdentityID, t.DeviceID, t.TokenHash, t.SessionVersion, t.IssuedAt, t.ExpiresAt,
	)
	return mapErr(err)
}

// Consume es un compare-and-set: solo la primera sentencia que ve
// consumed_at IS NULL actualiza la fila.
func (r *refreshRepo) Consume(ctx context.Context, tokenHash string, at time.Time) (*repository.RefreshToken, error) {
	var t repository.RefreshToken
	err := r.pool.QueryRow(ctx, `
		UPDATE refresh_token SET consumed_at = $2
		WHERE token_hash = $1 AND consumed_at IS NULL
		RETURNING id, identity_id, device_id, token_hash, session_version, issued_at, expires_at, consumed_at`,
		tokenHash, at,
	).Scan(&t.ID, &t.IdentityID, &t.DeviceID, &t.TokenHash, &t.SessionVersion, &t.IssuedAt, &t.ExpiresAt, &t.ConsumedAt)
	if err == nil {
		return &t, nil
	}
	if err = mapErr(err); !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// Distinguir "no existe" de "ya rotado"
	var exists bool
	if qerr := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM refresh_token WHERE token_hash = $1)`, tokenHash,
	).Scan(&exists); qerr != nil {
		return nil, qerr
	}
	if exists {
		return nil, repository.ErrAlreadyConsumed
	}
	return nil, repository.ErrNotFound
}

func (r *refreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_token WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
