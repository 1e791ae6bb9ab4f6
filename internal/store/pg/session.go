package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
)

// sessionRepo implementa repository.DeviceSessionRepository.
// Los incrementos se hacen en la misma sentencia UPDATE (atómicos a nivel fila).
type sessionRepo struct {
	pool *pgxpool.Pool
}

const sessionColumns = `identity_id, device_id, token_version, user_agent, ip, created_at, last_seen_at`

func scanSession(row interface{ Scan(...any) error }) (*repository.DeviceSession, error) {
	var s repository.DeviceSession
	if err := row.Scan(&s.IdentityID, &s.DeviceID, &s.TokenVersion, &s.UserAgent, &s.IP, &s.CreatedAt, &s.LastSeenAt); err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (r *sessionRepo) GetOrCreate(ctx context.Context, identityID, deviceID string, meta repository.DeviceMeta) (*repository.DeviceSession, error) {
	// ON CONFLICT DO NOTHING + SELECT: no toca token_version de una sesión existente.
	_, err := r.pool.Exec(ctx, `
		INSERT INTO device_session (identity_id, device_id, user_agent, ip)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identity_id, device_id) DO NOTHING`,
		identityID, deviceID, meta.UserAgent, meta.IP,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return r.Find(ctx, identityID, deviceID)
}

func (r *sessionRepo) Find(ctx context.Context, identityID, deviceID string) (*repository.DeviceSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM device_session WHERE identity_id = $1 AND device_id = $2`,
		identityID, deviceID))
}

func (r *sessionRepo) BumpVersion(ctx context.Context, identityID, deviceID string) (int64, error) {
	var v int64
	err := r.pool.QueryRow(ctx, `
		UPDATE device_session SET token_version = token_version + 1
		WHERE identity_id = $1 AND device_id = $2
		RETURNING token_version`, identityID, deviceID).Scan(&v)
	if err != nil {
		return 0, mapErr(err)
	}
	return v, nil
}

func (r *sessionRepo) BumpAllVersions(ctx context.Context, identityID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE device_session SET token_version = token_version + 1
		WHERE identity_id = $1`, identityID)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *sessionRepo) List(ctx context.Context, identityID string) ([]repository.DeviceSession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+` FROM device_session
		WHERE identity_id = $1
		ORDER BY last_seen_at DESC, device_id`, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.DeviceSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *sessionRepo) Touch(ctx context.Context, identityID, deviceID string, meta repository.DeviceMeta, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE device_session
		SET last_seen_at = $3,
		    user_agent = COALESCE(NULLIF($4, ''), user_agent),
		    ip = COALESCE(NULLIF($5, ''), ip)
		WHERE identity_id = $1 AND device_id = $2`,
		identityID, deviceID, at, meta.UserAgent, meta.IP)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
