package repository

import (
	"context"
	"time"
)

// LoginField indica contra qué campo se resuelve un login_id.
type LoginField string

const (
	LoginByUsername LoginField = "username"
	LoginByUserID   LoginField = "user_id"
	LoginByEmail    LoginField = "email"
)

// Credential es la identidad de login de un usuario (1:1 con Identity).
type Credential struct {
	IdentityID          string
	Username            string
	PasswordHash        string // PHC argon2id
	ForcePasswordChange bool
	LockLevel           int
	LockedUntil         *time.Time // nil con LockLevel > 0 = bloqueo indefinido
	LockReason          string
	FailedAttempts      int
	PasswordChangedAt   *time.Time
}

// IsLocked indica si la cuenta está bloqueada en el instante now.
func (c *Credential) IsLocked(now time.Time) bool {
	if c == nil || c.LockLevel <= 0 {
		return false
	}
	return c.LockedUntil == nil || now.Before(*c.LockedUntil)
}

// CredentialRepository define operaciones sobre credenciales.
type CredentialRepository interface {
	// FindByLogin busca la credencial por el campo indicado.
	// Email se compara sin distinguir mayúsculas. Retorna ErrNotFound si no existe.
	FindByLogin(ctx context.Context, field LoginField, value string) (*Credential, error)

	// GetByIdentityID obtiene la credencial de una identidad.
	GetByIdentityID(ctx context.Context, identityID string) (*Credential, error)

	// RecordFailure incrementa atómicamente el contador de intentos fallidos
	// y retorna el nuevo valor.
	RecordFailure(ctx context.Context, identityID string) (int, error)

	// ResetFailures deja el contador en 0 y limpia el bloqueo (login exitoso).
	ResetFailures(ctx context.Context, identityID string) error

	// Lock fija nivel/expiración de bloqueo y resetea el contador de fallos.
	Lock(ctx context.Context, identityID string, level int, until *time.Time, reason string) error

	// Unlock limpia el bloqueo y el contador de fallos.
	Unlock(ctx context.Context, identityID string) error

	// UpdatePasswordHash persiste un nuevo hash y limpia ForcePasswordChange.
	UpdatePasswordHash(ctx context.Context, identityID, hash string, changedAt time.Time) error
}
