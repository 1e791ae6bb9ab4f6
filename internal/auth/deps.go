// Package auth es el core de autenticación: login, refresh con rotación,
// logout por dispositivo o global, cambio de contraseña, bloqueo de cuentas
// y la validación por request de access tokens.
package auth

import (
	"context"
	"time"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	jwtx "github.com/dropDatabas3/orgauth/internal/jwt"
	"github.com/dropDatabas3/orgauth/internal/permission"
	"github.com/dropDatabas3/orgauth/internal/security/password"
	"github.com/dropDatabas3/orgauth/internal/session"
)

// DefaultRefreshTTL aplica si Deps.RefreshTTL <= 0.
const DefaultRefreshTTL = 30 * 24 * time.Hour

// PolicyProvider obtiene la política de contraseñas de una organización.
// La configuración de organizaciones es externa a este servicio.
type PolicyProvider interface {
	PasswordPolicy(ctx context.Context, orgID string) (password.Policy, error)
}

// StaticPolicy aplica la misma política a todas las organizaciones.
type StaticPolicy struct {
	Policy password.Policy
}

func (p StaticPolicy) PasswordPolicy(ctx context.Context, orgID string) (password.Policy, error) {
	return p.Policy, nil
}

// Notifier recibe eventos de seguridad. Es best-effort: sus errores se loguean.
type Notifier interface {
	AccountLocked(ctx context.Context, identity *repository.Identity, until *time.Time, reason string) error
}

// NoopNotifier descarta notificaciones.
type NoopNotifier struct{}

func (NoopNotifier) AccountLocked(context.Context, *repository.Identity, *time.Time, string) error {
	return nil
}

// EventRecorder cuenta eventos de auth (métricas).
type EventRecorder interface {
	AuthEvent(event, result string)
}

type noopRecorder struct{}

func (noopRecorder) AuthEvent(string, string) {}

// Deps contiene las dependencias del servicio.
type Deps struct {
	Identities    repository.IdentityRepository
	Credentials   repository.CredentialRepository
	RefreshTokens repository.RefreshTokenRepository
	Sessions      *session.Registry
	Codec         *jwtx.Codec
	Permissions   *permission.Resolver

	RefreshTTL     time.Duration
	Lockout        LockoutPolicy // zero value = DefaultLockoutPolicy
	PasswordParams password.Params
	Policies       PolicyProvider // nil = password.DefaultPolicy
	Notifier       Notifier       // nil = NoOp
	Events         EventRecorder  // nil = NoOp
	Now            func() time.Time
}

// Service implementa las operaciones del core.
type Service struct {
	deps      Deps
	dummyHash string
}

// NewService crea el servicio completando defaults.
func NewService(deps Deps) *Service {
	if deps.RefreshTTL <= 0 {
		deps.RefreshTTL = DefaultRefreshTTL
	}
	if deps.Lockout.Threshold == 0 && deps.Lockout.Windows == nil {
		// Threshold < 0 deshabilita el bloqueo automático
		deps.Lockout = DefaultLockoutPolicy
	}
	if deps.PasswordParams == (password.Params{}) {
		deps.PasswordParams = password.Default
	}
	if deps.Policies == nil {
		deps.Policies = StaticPolicy{Policy: password.DefaultPolicy}
	}
	if deps.Notifier == nil {
		deps.Notifier = NoopNotifier{}
	}
	if deps.Events == nil {
		deps.Events = noopRecorder{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Permissions == nil {
		deps.Permissions = permission.NewResolver(nil)
	}
	return &Service{
		deps:      deps,
		dummyHash: password.DummyHash(deps.PasswordParams),
	}
}

// RefreshTTL retorna el TTL de refresh tokens (cookie Max-Age).
func (s *Service) RefreshTTL() time.Duration {
	return s.deps.RefreshTTL
}

func (s *Service) now() time.Time {
	return s.deps.Now().UTC()
}
