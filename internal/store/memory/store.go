// Package memory implementa los repositorios en memoria.
// Se usa en dev (driver "memory") y como fake en tests.
// Todas las operaciones toman el mismo mutex, así que los incrementos de
// TokenVersion y el consumo de refresh tokens son linealizables.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
)

// Store agrupa el estado de todos los repositorios.
type Store struct {
	mu         sync.Mutex
	identities map[string]*repository.Identity
	creds      map[string]*repository.Credential // por identity id
	roles      map[string]*repository.Role
	sessions   map[sessionKey]*repository.DeviceSession
	refresh    map[string]*repository.RefreshToken // por token hash
	now        func() time.Time
}

type sessionKey struct {
	identityID string
	deviceID   string
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		identities: make(map[string]*repository.Identity),
		creds:      make(map[string]*repository.Credential),
		roles:      make(map[string]*repository.Role),
		sessions:   make(map[sessionKey]*repository.DeviceSession),
		refresh:    make(map[string]*repository.RefreshToken),
		now:        time.Now,
	}
}

// WithClock reemplaza el reloj usado para timestamps internos.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

func (s *Store) Name() string                   { return "memory" }
func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }

func (s *Store) Identities() repository.IdentityRepository        { return (*identityRepo)(s) }
func (s *Store) Credentials() repository.CredentialRepository     { return (*credentialRepo)(s) }
func (s *Store) Roles() repository.RoleRepository                 { return (*roleRepo)(s) }
func (s *Store) Sessions() repository.DeviceSessionRepository     { return (*sessionRepo)(s) }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return (*refreshRepo)(s) }
func (s *Store) Provisioning() repository.ProvisioningRepository  { return (*provisioningRepo)(s) }

// ─── Identities ───

type identityRepo Store

func (r *identityRepo) GetByID(ctx context.Context, id string) (*repository.Identity, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.identities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneIdentity(it), nil
}

// ─── Provisioning ───

type provisioningRepo Store

func (r *provisioningRepo) CreateIdentity(ctx context.Context, identity repository.Identity, cred repository.Credential) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.identities[identity.ID]; ok {
		return repository.ErrConflict
	}
	for _, other := range s.identities {
		if other.Username == identity.Username ||
			(identity.UserID != "" && other.UserID == identity.UserID) ||
			(identity.Email != "" && strings.EqualFold(other.Email, identity.Email)) {
			return repository.ErrConflict
		}
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = s.now().UTC()
	}
	cred.IdentityID = identity.ID
	if cred.Username == "" {
		cred.Username = identity.Username
	}
	s.identities[identity.ID] = cloneIdentity(&identity)
	s.creds[identity.ID] = cloneCredential(&cred)
	return nil
}

// SetStanding modifica CanLogin/IsBlocked. Lo usa el CRUD externo; acá
// existe para tests.
func (s *Store) SetStanding(identityID string, canLogin, isBlocked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.identities[identityID]
	if !ok {
		return repository.ErrNotFound
	}
	it.CanLogin = canLogin
	it.IsBlocked = isBlocked
	return nil
}

// DeleteIdentity elimina la identidad y su credencial (purga de cuenta).
func (s *Store) DeleteIdentity(identityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.identities, identityID)
	delete(s.creds, identityID)
	for k := range s.sessions {
		if k.identityID == identityID {
			delete(s.sessions, k)
		}
	}
}

// SetRoleID cambia el rol asignado a una identidad.
func (s *Store) SetRoleID(identityID string, roleID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.identities[identityID]
	if !ok {
		return repository.ErrNotFound
	}
	it.RoleID = cloneStrPtr(roleID)
	return nil
}

// ─── Credentials ───

type credentialRepo Store

func (r *credentialRepo) FindByLogin(ctx context.Context, field repository.LoginField, value string) (*repository.Credential, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		return nil, repository.ErrNotFound
	}
	for id, it := range s.identities {
		var match bool
		switch field {
		case repository.LoginByUsername:
			match = it.Username == value
		case repository.LoginByUserID:
			match = it.UserID != "" && it.UserID == value
		case repository.LoginByEmail:
			match = it.Email != "" && strings.EqualFold(it.Email, value)
		}
		if match {
			if c, ok := s.creds[id]; ok {
				return cloneCredential(c), nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (r *credentialRepo) GetByIdentityID(ctx context.Context, identityID string) (*repository.Credential, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[identityID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneCredential(c), nil
}

func (r *credentialRepo) RecordFailure(ctx context.Context, identityID string) (int, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[identityID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	c.FailedAttempts++
	return c.FailedAttempts, nil
}

func (r *credentialRepo) ResetFailures(ctx context.Context, identityID string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[identityID]
	if !ok {
		return repository.ErrNotFound
	}
	c.FailedAttempts = 0
	c.LockLevel = 0
	c.LockedUntil = nil
	c.LockReason = ""
	return nil
}

func (r *credentialRepo) Lock(ctx context.Context, identityID string, level int, until *time.Time, reason string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[identityID]
	if !ok {
		return repository.ErrNotFound
	}
	c.LockLevel = level
	c.LockedUntil = cloneTimePtr(until)
	c.LockReason = reason
	c.FailedAttempts = 0
	return nil
}

func (r *credentialRepo) Unlock(ctx context.Context, identityID string) error {
	return r.ResetFailures(ctx, identityID)
}

func (r *credentialRepo) UpdatePasswordHash(ctx context.Context, identityID, hash string, changedAt time.Time) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[identityID]
	if !ok {
		return repository.ErrNotFound
	}
	c.PasswordHash = hash
	c.ForcePasswordChange = false
	at := changedAt
	c.PasswordChangedAt = &at
	return nil
}

// ─── Clones ───

func cloneIdentity(in *repository.Identity) *repository.Identity {
	out := *in
	out.BranchID = cloneStrPtr(in.BranchID)
	out.RoleID = cloneStrPtr(in.RoleID)
	out.Permissions = append([]string(nil), in.Permissions...)
	return &out
}

func cloneCredential(in *repository.Credential) *repository.Credential {
	out := *in
	out.LockedUntil = cloneTimePtr(in.LockedUntil)
	out.PasswordChangedAt = cloneTimePtr(in.PasswordChangedAt)
	return &out
}

func cloneRole(in *repository.Role) *repository.Role {
	out := *in
	out.OrganizationID = cloneStrPtr(in.OrganizationID)
	out.PermissionKeys = append([]string(nil), in.PermissionKeys...)
	return &out
}

func cloneStrPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
