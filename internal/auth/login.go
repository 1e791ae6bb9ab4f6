package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	"github.com/dropDatabas3/orgauth/internal/ids"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
	"github.com/dropDatabas3/orgauth/internal/security/password"
	tokens "github.com/dropDatabas3/orgauth/internal/security/token"
	"github.com/dropDatabas3/orgauth/internal/session"
)

const componentLogin = "auth.login"

// LoginInput son los datos de un intento de login.
type LoginInput struct {
	LoginID   string // username, user_id numérico o email
	Password  string
	DeviceID  string // vacío = el servidor genera uno
	UserAgent string
	IP        string
}

// LoginResult es la sesión emitida.
type LoginResult struct {
	AccessToken         string
	AccessExpiresAt     time.Time
	RefreshToken        string
	RefreshExpiresAt    time.Time
	DeviceID            string
	ForcePasswordChange bool
	Permissions         []string
}

// loginResolution es el orden fijo en que se interpreta un login_id.
// Gana el primer campo con coincidencia.
var loginResolution = []repository.LoginField{
	repository.LoginByUsername,
	repository.LoginByUserID,
	repository.LoginByEmail,
}

// Login autentica credenciales y emite access + refresh token para el dispositivo.
//
// Orden de chequeos: credencial → bloqueo → contraseña → can_login →
// is_blocked. Un login_id desconocido y una contraseña incorrecta retornan
// el mismo ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentLogin),
		logger.Op("Login"),
	)

	in.LoginID = strings.TrimSpace(in.LoginID)
	if in.LoginID == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	deviceID, err := session.NormalizeDeviceID(in.DeviceID)
	if err != nil {
		return nil, ErrInvalidDeviceID
	}

	// Paso 1: resolver credencial
	cred, err := s.resolveCredential(ctx, in.LoginID)
	if errors.Is(err, repository.ErrNotFound) {
		// Mismo costo que un verify real para no revelar si el usuario existe
		password.Verify(in.Password, s.dummyHash)
		log.Debug("login id not found")
		s.deps.Events.AuthEvent("login", "invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		log.Error("credential lookup failed", logger.Err(err))
		return nil, err
	}
	log = log.With(logger.IdentityID(cred.IdentityID))
	now := s.now()

	// Paso 2: bloqueo vigente
	if lockErr := lockedError(cred, now); lockErr != nil {
		log.Info("login rejected: account locked")
		s.deps.Events.AuthEvent("login", "locked")
		return nil, lockErr
	}

	// Paso 3: contraseña
	if !password.Verify(in.Password, cred.PasswordHash) {
		s.registerFailure(ctx, log, cred, now)
		s.deps.Events.AuthEvent("login", "invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	// Paso 4: estado de la cuenta
	identity, err := s.deps.Identities.GetByID(ctx, cred.IdentityID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("credential without identity")
		s.deps.Events.AuthEvent("login", "invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		log.Error("identity lookup failed", logger.Err(err))
		return nil, err
	}
	if err := standing(identity); err != nil {
		log.Info("login rejected", logger.Reason(err.Error()))
		s.deps.Events.AuthEvent("login", reasonLabel(err))
		return nil, err
	}

	// Paso 5: reset de intentos fallidos y nivel de bloqueo
	if cred.FailedAttempts > 0 || cred.LockLevel > 0 {
		if err := s.deps.Credentials.ResetFailures(ctx, cred.IdentityID); err != nil {
			log.Error("reset failures failed", logger.Err(err))
			return nil, err
		}
	}

	// Paso 6: sesión del dispositivo y emisión
	ds, err := s.deps.Sessions.GetOrCreate(ctx, identity.ID, deviceID, repository.DeviceMeta{UserAgent: in.UserAgent, IP: in.IP})
	if err != nil {
		log.Error("device session failed", logger.Err(err))
		return nil, err
	}
	pair, err := s.issuePair(ctx, identity, ds, now)
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		return nil, err
	}

	log.Info("login succeeded", logger.DeviceID(ds.DeviceID), logger.TokenVersion(ds.TokenVersion))
	s.deps.Events.AuthEvent("login", "success")

	return &LoginResult{
		AccessToken:         pair.access,
		AccessExpiresAt:     pair.accessExp,
		RefreshToken:        pair.refresh,
		RefreshExpiresAt:    pair.refreshExp,
		DeviceID:            ds.DeviceID,
		ForcePasswordChange: cred.ForcePasswordChange,
		Permissions:         s.deps.Permissions.Resolve(ctx, identity, nil).Keys(),
	}, nil
}

// resolveCredential aplica loginResolution.
func (s *Service) resolveCredential(ctx context.Context, loginID string) (*repository.Credential, error) {
	for _, field := range loginResolution {
		if field == repository.LoginByUserID && !isDigits(loginID) {
			continue
		}
		if field == repository.LoginByEmail && !strings.Contains(loginID, "@") {
			continue
		}
		cred, err := s.deps.Credentials.FindByLogin(ctx, field, loginID)
		if err == nil {
			return cred, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	return nil, repository.ErrNotFound
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// registerFailure incrementa el contador y bloquea si cruza el umbral.
// Los errores se loguean: el intento ya falló por contraseña incorrecta.
func (s *Service) registerFailure(ctx context.Context, log *zap.Logger, cred *repository.Credential, now time.Time) {
	n, err := s.deps.Credentials.RecordFailure(ctx, cred.IdentityID)
	if err != nil {
		log.Error("record failure failed", logger.Err(err))
		return
	}
	if !s.deps.Lockout.Crossed(n) {
		log.Info("invalid password", logger.Count(n))
		return
	}

	level := cred.LockLevel + 1
	until := now.Add(s.deps.Lockout.Window(level))
	if err := s.deps.Credentials.Lock(ctx, cred.IdentityID, level, &until, LockReasonFailedAttempts); err != nil {
		log.Error("lock failed", logger.Err(err))
		return
	}
	log.Info("account locked after failed attempts",
		logger.Int("lock_level", level), logger.Any("locked_until", until))
	s.deps.Events.AuthEvent("lock", "automatic")
	s.notifyLocked(ctx, cred.IdentityID, &until, LockReasonFailedAttempts)
}

// lockedError retorna *LockedError si el bloqueo está vigente en now.
func lockedError(cred *repository.Credential, now time.Time) error {
	if !cred.IsLocked(now) {
		return nil
	}
	e := &LockedError{Level: cred.LockLevel}
	if cred.LockedUntil != nil {
		until := *cred.LockedUntil
		e.Until = &until
		e.Remaining = until.Sub(now)
	}
	return e
}

// standing aplica can_login / is_blocked.
func standing(identity *repository.Identity) error {
	if !identity.CanLogin {
		return ErrLoginDisabled
	}
	if identity.IsBlocked {
		return ErrAccountBlocked
	}
	return nil
}

// reasonLabel es la etiqueta de métricas de un rechazo.
func reasonLabel(err error) string {
	switch {
	case errors.Is(err, ErrLoginDisabled):
		return "login_disabled"
	case errors.Is(err, ErrAccountBlocked):
		return "account_blocked"
	case errors.Is(err, ErrAccountLocked):
		return "locked"
	default:
		return "error"
	}
}

type tokenPair struct {
	access     string
	accessExp  time.Time
	refresh    string
	refreshExp time.Time
}

// issuePair firma el access token con la versión actual de la sesión y
// persiste un refresh token nuevo ligado a esa misma versión.
func (s *Service) issuePair(ctx context.Context, identity *repository.Identity, ds *repository.DeviceSession, now time.Time) (*tokenPair, error) {
	access, accessExp, err := s.deps.Codec.Issue(identity.ID, identity.OrganizationID, ds.DeviceID, ds.TokenVersion, 0)
	if err != nil {
		return nil, err
	}
	raw, err := tokens.GenerateOpaqueToken(tokens.RefreshTokenBytes)
	if err != nil {
		return nil, err
	}
	refreshExp := now.Add(s.deps.RefreshTTL)
	err = s.deps.RefreshTokens.Create(ctx, repository.RefreshToken{
		ID:             ids.New(),
		IdentityID:     identity.ID,
		DeviceID:       ds.DeviceID,
		TokenHash:      tokens.SHA256Base64URL(raw),
		SessionVersion: ds.TokenVersion,
		IssuedAt:       now,
		ExpiresAt:      refreshExp,
	})
	if err != nil {
		return nil, err
	}
	return &tokenPair{access: access, accessExp: accessExp, refresh: raw, refreshExp: refreshExp}, nil
}
