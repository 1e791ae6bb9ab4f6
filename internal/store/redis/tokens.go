package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
)

type refreshRepo Store

func (r *refreshRepo) Create(ctx context.Context, t repository.RefreshToken) error {
	s := (*Store)(r)
	ttl := time.Until(t.ExpiresAt)
	if ttl <= 0 {
		return errors.New("refresh token already expired")
	}
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, s.tokenKey(t.TokenHash), b, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrConflict
	}
	return nil
}

// Consume usa GETDEL: solo un llamado concurrente obtiene el valor.
func (r *refreshRepo) Consume(ctx context.Context, tokenHash string, at time.Time) (*repository.RefreshToken, error) {
	s := (*Store)(r)
	raw, err := s.client.GetDel(ctx, s.tokenKey(tokenHash)).Bytes()
	if errors.Is(err, rdb.Nil) {
		n, err := s.client.Exists(ctx, s.consumedKey(tokenHash)).Result()
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, repository.ErrAlreadyConsumed
		}
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var t repository.RefreshToken
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	consumed := at.UTC()
	t.ConsumedAt = &consumed

	if ttl := time.Until(t.ExpiresAt); ttl > 0 {
		_ = s.client.Set(ctx, s.consumedKey(tokenHash), consumed.Unix(), ttl).Err()
	}
	return &t, nil
}

// DeleteExpired no hace nada: Redis expira las keys por TTL.
func (r *refreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
