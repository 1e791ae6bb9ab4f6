// Package store arma los repositorios según la configuración.
//
// Storage (identidades, credenciales, roles): "memory" | "postgres".
// Sessions (sesiones por dispositivo + refresh tokens): "store" (mismo
// backend que storage) | "redis".
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	"github.com/dropDatabas3/orgauth/internal/store/memory"
	"github.com/dropDatabas3/orgauth/internal/store/pg"
	redisstore "github.com/dropDatabas3/orgauth/internal/store/redis"
)

// Config selecciona y configura drivers.
type Config struct {
	Driver   string // memory | postgres
	DSN      string
	Postgres pg.PoolConfig

	SessionsDriver string // store | redis
	Redis          redisstore.Config
}

// Repositories es el conjunto de repositorios que consume el core.
type Repositories struct {
	Identities    repository.IdentityRepository
	Credentials   repository.CredentialRepository
	Roles         repository.RoleRepository
	Sessions      repository.DeviceSessionRepository
	RefreshTokens repository.RefreshTokenRepository
	Provisioning  repository.ProvisioningRepository

	// Driver describe la combinación activa (ej: "postgres+redis").
	Driver string

	pgPool *pgxpool.Pool

	pingers []func(context.Context) error
	closers []func() error
}

// Ping verifica todos los backends abiertos.
func (r *Repositories) Ping(ctx context.Context) error {
	for _, p := range r.pingers {
		if err := p(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close cierra todos los backends, en orden inverso de apertura.
func (r *Repositories) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromMemory arma los repositorios sobre un store en memoria.
func FromMemory(m *memory.Store) *Repositories {
	return &Repositories{
		Identities:    m.Identities(),
		Credentials:   m.Credentials(),
		Roles:         m.Roles(),
		Sessions:      m.Sessions(),
		RefreshTokens: m.RefreshTokens(),
		Provisioning:  m.Provisioning(),
		Driver:        m.Name(),
		pingers:       []func(context.Context) error{m.Ping},
		closers:       []func() error{m.Close},
	}
}

// FromPostgres arma los repositorios sobre un store Postgres.
func FromPostgres(s *pg.Store) *Repositories {
	return &Repositories{
		Identities:    s.Identities(),
		Credentials:   s.Credentials(),
		Roles:         s.Roles(),
		Sessions:      s.Sessions(),
		RefreshTokens: s.RefreshTokens(),
		Provisioning:  s.Provisioning(),
		Driver:        s.Name(),
		pgPool:        s.Pool(),
		pingers:       []func(context.Context) error{s.Ping},
		closers:       []func() error{s.Close},
	}
}

// PGPool retorna el pool de Postgres, o nil si el storage no es Postgres.
func (r *Repositories) PGPool() *pgxpool.Pool { return r.pgPool }

// WithRedisSessions reemplaza sesiones y refresh tokens por el backend Redis.
func (r *Repositories) WithRedisSessions(s *redisstore.Store) *Repositories {
	r.Sessions = s.Sessions()
	r.RefreshTokens = s.RefreshTokens()
	r.Driver += "+" + s.Name()
	r.pingers = append(r.pingers, s.Ping)
	r.closers = append(r.closers, s.Close)
	return r
}

// Open abre los backends indicados por cfg.
func Open(ctx context.Context, cfg Config) (*Repositories, error) {
	var repos *Repositories
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory", "mem":
		repos = FromMemory(memory.New())
	case "postgres", "pg", "postgresql":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("store: postgres driver requires a DSN")
		}
		s, err := pg.New(ctx, cfg.DSN, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		repos = FromPostgres(s)
	default:
		return nil, fmt.Errorf("store: unsupported driver: %s", cfg.Driver)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.SessionsDriver)) {
	case "", "store":
	case "redis":
		rs, err := redisstore.New(ctx, cfg.Redis)
		if err != nil {
			_ = repos.Close()
			return nil, err
		}
		repos.WithRedisSessions(rs)
	default:
		_ = repos.Close()
		return nil, fmt.Errorf("store: unsupported sessions driver: %s", cfg.SessionsDriver)
	}
	return repos, nil
}
