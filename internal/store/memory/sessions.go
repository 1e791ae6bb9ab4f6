package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
)

type sessionRepo Store

func (r *sessionRepo) GetOrCreate(ctx context.Context, identityID, deviceID string, meta repository.DeviceMeta) (*repository.DeviceSession, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	k := sessionKey{identityID, deviceID}
	if ds, ok := s.sessions[k]; ok {
		out := *ds
		return &out, nil
	}
	now := s.now().UTC()
	ds := &repository.DeviceSession{
		IdentityID: identityID,
		DeviceID:   deviceID,
		UserAgent:  meta.UserAgent,
		IP:         meta.IP,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	s.sessions[k] = ds
	out := *ds
	return &out, nil
}

func (r *sessionRepo) Find(ctx context.Context, identityID, deviceID string) (*repository.DeviceSession, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.sessions[sessionKey{identityID, deviceID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *ds
	return &out, nil
}

func (r *sessionRepo) BumpVersion(ctx context.Context, identityID, deviceID string) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.sessions[sessionKey{identityID, deviceID}]
	if !ok {
		return 0, repository.ErrNotFound
	}
	ds.TokenVersion++
	return ds.TokenVersion, nil
}

func (r *sessionRepo) BumpAllVersions(ctx context.Context, identityID string) (int, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, ds := range s.sessions {
		if k.identityID == identityID {
			ds.TokenVersion++
			n++
		}
	}
	return n, nil
}

func (r *sessionRepo) List(ctx context.Context, identityID string) ([]repository.DeviceSession, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.DeviceSession
	for k, ds := range s.sessions {
		if k.identityID == identityID {
			out = append(out, *ds)
		}
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
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.sessions[sessionKey{identityID, deviceID}]
	if !ok {
		return repository.ErrNotFound
	}
	ds.LastSeenAt = at.UTC()
	if meta.UserAgent != "" {
		ds.UserAgent = meta.UserAgent
	}
	if meta.IP != "" {
		ds.IP = meta.IP
	}
	return nil
}

// ─── Refresh tokens ───

type refreshRepo Store

func (r *refreshRepo) Create(ctx context.Context, token repository.RefreshToken) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.refresh[token.TokenHash]; ok {
		return repository.ErrConflict
	}
	t := token
	s.refresh[token.TokenHash] = &t
	return nil
}

func (r *refreshRepo) Consume(ctx context.Context, tokenHash string, at time.Time) (*repository.RefreshToken, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.refresh[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if t.ConsumedAt != nil {
		return nil, repository.ErrAlreadyConsumed
	}
	consumed := at.UTC()
	t.ConsumedAt = &consumed
	out := *t
	return &out, nil
}

func (r *refreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for h, t := range s.refresh {
		if !t.ExpiresAt.After(now) {
			delete(s.refresh, h)
			n++
		}
	}
	return n, nil
}
