// Package redis implementa el registro de sesiones por dispositivo y los
// refresh tokens sobre Redis (go-redis/v9).
//
// Layout de keys (prefijo configurable, default "orgauth"):
//
//	{p}:ds:{identity}:{device}  HASH  ver, ua, ip, created, seen
//	{p}:dsidx:{identity}        SET   device ids
//	{p}:rt:{hash}               STRING JSON del RefreshToken (TTL = expiración)
//	{p}:rtc:{hash}              STRING marca de consumido (mismo TTL)
package redis

import (
	"context"
	"fmt"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
)

// Config de conexión.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store agrupa los repositorios respaldados por Redis.
type Store struct {
	client *rdb.Client
	prefix string
	now    func() time.Time
}

// New conecta y verifica con PING.
func New(ctx context.Context, cfg Config) (*Store, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	client := rdb.NewClient(&rdb.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewFromClient(client, cfg.Prefix), nil
}

// NewFromClient envuelve un cliente existente (compartido con rate limiting).
func NewFromClient(client *rdb.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "orgauth"
	}
	return &Store{client: client, prefix: prefix, now: time.Now}
}

// Client expone el cliente subyacente.
func (s *Store) Client() *rdb.Client { return s.client }

func (s *Store) Name() string { return "redis" }

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Sessions() repository.DeviceSessionRepository     { return (*sessionRepo)(s) }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return (*refreshRepo)(s) }

func (s *Store) sessionKey(identityID, deviceID string) string {
	return s.prefix + ":ds:" + identityID + ":" + deviceID
}

func (s *Store) indexKey(identityID string) string {
	return s.prefix + ":dsidx:" + identityID
}

func (s *Store) tokenKey(hash string) string {
	return s.prefix + ":rt:" + hash
}

func (s *Store) consumedKey(hash string) string {
	return s.prefix + ":rtc:" + hash
}
