package redis

import (
	"context"
	"sort"
	"strconv"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
)

type sessionRepo Store

// bumpScript incrementa "ver" solo si el hash existe. Retorna -1 si no existe.
var bumpScript = rdb.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
return redis.call("HINCRBY", KEYS[1], "ver", 1)
`)

func (r *sessionRepo) GetOrCreate(ctx context.Context, identityID, deviceID string, meta repository.DeviceMeta) (*repository.DeviceSession, error) {
	s := (*Store)(r)
	key := s.sessionKey(identityID, deviceID)
	now := strconv.FormatInt(s.now().UTC().UnixNano(), 10)

	// HSETNX por campo: una sesión existente conserva su versión.
	pipe := s.client.TxPipeline()
	pipe.HSetNX(ctx, key, "ver", 0)
	pipe.HSetNX(ctx, key, "created", now)
	pipe.HSetNX(ctx, key, "seen", now)
	pipe.HSetNX(ctx, key, "ua", meta.UserAgent)
	pipe.HSetNX(ctx, key, "ip", meta.IP)
	pipe.SAdd(ctx, s.indexKey(identityID), deviceID)
	all := pipe.HGetAll(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return decodeSession(identityID, deviceID, all.Val())
}

func (r *sessionRepo) Find(ctx context.Context, identityID, deviceID string) (*repository.DeviceSession, error) {
	s := (*Store)(r)
	m, err := s.client.HGetAll(ctx, s.sessionKey(identityID, deviceID)).Result()
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, repository.ErrNotFound
	}
	return decodeSession(identityID, deviceID, m)
}

func (r *sessionRepo) BumpVersion(ctx context.Context, identityID, deviceID string) (int64, error) {
	s := (*Store)(r)
	v, err := bumpScript.Run(ctx, s.client, []string{s.sessionKey(identityID, deviceID)}).Int64()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, repository.ErrNotFound
	}
	return v, nil
}

func (r *sessionRepo) BumpAllVersions(ctx context.Context, identityID string) (int, error) {
	s := (*Store)(r)
	devices, err := s.client.SMembers(ctx, s.indexKey(identityID)).Result()
	if err != nil {
		return 0, err
	}
	if len(devices) == 0 {
		return 0, nil
	}
	pipe := s.client.TxPipeline()
	cmds := make([]*rdb.Cmd, 0, len(devices))
	for _, d := range devices {
		cmds = append(cmds, bumpScript.Eval(ctx, pipe, []string{s.sessionKey(identityID, d)}))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	n := 0
	for _, c := range cmds {
		if v, err := c.Int64(); err == nil && v >= 0 {
			n++
		}
	}
	return n, nil
}

func (r *sessionRepo) List(ctx context.Context, identityID string) ([]repository.DeviceSession, error) {
	s := (*Store)(r)
	devices, err := s.client.SMembers(ctx, s.indexKey(identityID)).Result()
	if err != nil {
		return nil, err
	}
	pipe := s.client.Pipeline()
	cmds := make([]*rdb.MapStringStringCmd, len(devices))
	for i, d := range devices {
		cmds[i] = pipe.HGetAll(ctx, s.sessionKey(identityID, d))
	}
	if len(devices) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
	}
	out := make([]repository.DeviceSession, 0, len(devices))
	for i, c := range cmds {
		if len(c.Val()) == 0 {
			continue
		}
		ds, err := decodeSession(identityID, devices[i], c.Val())
		if err != nil {
			return nil, err
		}
		out = append(out, *ds)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastSeenAt.Equal(out[j].LastSeenAt) {
			return out[i].DeviceID < out[j].DeviceID
		}
		return out[i].LastSeenAt.After(out[j].LastSeenAt)
	})
	return out, nil
}

func (r *sessionRepo) Touch(ctx context.Context, identityID, deviceID string, meta repository.DeviceMeta, at time.Time) error {
	s := (*Store)(r)
	key := s.sessionKey(identityID, deviceID)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return repository.ErrNotFound
	}
	fields := []any{"seen", strconv.FormatInt(at.UTC().UnixNano(), 10)}
	if meta.UserAgent != "" {
		fields = append(fields, "ua", meta.UserAgent)
	}
	if meta.IP != "" {
		fields = append(fields, "ip", meta.IP)
	}
	return s.client.HSet(ctx, key, fields...).Err()
}

func decodeSession(identityID, deviceID string, m map[string]string) (*repository.DeviceSession, error) {
	ver, err := strconv.ParseInt(m["ver"], 10, 64)
	if err != nil {
		return nil, err
	}
	return &repository.DeviceSession{
		IdentityID:   identityID,
		DeviceID:     deviceID,
		TokenVersion: ver,
		UserAgent:    m["ua"],
		IP:           m["ip"],
		CreatedAt:    parseNanos(m["created"]),
		LastSeenAt:   parseNanos(m["seen"]),
	}, nil
}

func parseNanos(s string) time.Time {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
