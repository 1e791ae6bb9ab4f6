// Package pg implementa los repositorios sobre PostgreSQL (pgx/v5).
// El esquema vive en migrations/postgres.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
)

// PoolConfig ajusta el pool de conexiones.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store es la conexión a Postgres con acceso a los repositorios.
type Store struct{ pool *pgxpool.Pool }

// New abre el pool y verifica conectividad.
func New(ctx context.Context, dsn string, pc PoolConfig) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgxpool config: %w", err)
	}
	if pc.MaxOpenConns > 0 {
		cfg.MaxConns = int32(pc.MaxOpenConns)
	}
	// Mapear MaxIdleConns → MinConns (pgxpool)
	if pc.MaxIdleConns > 0 {
		cfg.MinConns = int32(pc.MaxIdleConns)
	}
	if pc.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = pc.ConnMaxLifetime
		cfg.MaxConnIdleTime = pc.ConnMaxLifetime
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pgxpool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewFromPool envuelve un pool existente.
func NewFromPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool expone el pool interno (migraciones).
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close cierra el pool subyacente (idempotente).
func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) Identities() repository.IdentityRepository        { return &identityRepo{pool: s.pool} }
func (s *Store) Credentials() repository.CredentialRepository     { return &credentialRepo{pool: s.pool} }
func (s *Store) Roles() repository.RoleRepository                 { return &roleRepo{pool: s.pool} }
func (s *Store) Sessions() repository.DeviceSessionRepository     { return &sessionRepo{pool: s.pool} }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return &refreshRepo{pool: s.pool} }
func (s *Store) Provisioning() repository.ProvisioningRepository {
	return &provisioningRepo{pool: s.pool}
}

// mapErr traduce errores de pgx a errores de dominio.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
