package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
	"github.com/dropDatabas3/orgauth/internal/permission"
)

const componentAuthenticate = "auth.authenticate"

// Principal es la identidad autenticada de un request.
type Principal struct {
	Identity     *repository.Identity
	DeviceID     string
	TokenVersion int64
	OrgID        string
	ExpiresAt    time.Time
}

// Authenticate valida un access token contra el estado actual:
//
//  1. firma, expiración y claims (incluye did)
//  2. la identidad existe
//  3. la sesión del dispositivo existe
//  4. la versión del token es exactamente la versión actual de la sesión
//  5. can_login / is_blocked
//
// No reintenta. Los rechazos son errores de este paquete (IsTokenRejection);
// cualquier otro error es de storage.
func (s *Service) Authenticate(ctx context.Context, raw string) (*Principal, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentAuthenticate),
		logger.Op("Authenticate"),
	)

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenMissing
	}
	claims, err := s.deps.Codec.Verify(raw)
	if err != nil {
		log.Debug("token rejected", logger.Reason(err.Error()))
		return nil, err
	}
	log = log.With(logger.IdentityID(claims.IdentityID()), logger.DeviceID(claims.DeviceID))

	identity, err := s.deps.Identities.GetByID(ctx, claims.IdentityID())
	if errors.Is(err, repository.ErrNotFound) {
		log.Debug("token rejected", logger.Reason("user_not_found"))
		return nil, ErrUserNotFound
	}
	if err != nil {
		log.Error("identity lookup failed", logger.Err(err))
		return nil, err
	}

	ds, err := s.deps.Sessions.Find(ctx, identity.ID, claims.DeviceID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Debug("token rejected", logger.Reason("device_not_recognized"))
		return nil, ErrDeviceNotRecognized
	}
	if err != nil {
		log.Error("session lookup failed", logger.Err(err))
		return nil, err
	}

	// Igualdad exacta: una versión mayor tampoco es válida
	if claims.TokenVersion() != ds.TokenVersion {
		log.Debug("token rejected", logger.Reason("token_invalidated"),
			logger.TokenVersion(claims.TokenVersion()), logger.Int("current_version", int(ds.TokenVersion)))
		return nil, ErrTokenInvalidated
	}

	if err := standing(identity); err != nil {
		log.Debug("token rejected", logger.Reason(err.Error()))
		return nil, err
	}

	return &Principal{
		Identity:     identity,
		DeviceID:     ds.DeviceID,
		TokenVersion: ds.TokenVersion,
		OrgID:        claims.OrgID,
		ExpiresAt:    claims.ExpiresAtTime(),
	}, nil
}

// ValidateToken es Authenticate para introspección.
func (s *Service) ValidateToken(ctx context.Context, raw string) (*Principal, error) {
	return s.Authenticate(ctx, raw)
}

// ResolvePermissions retorna el conjunto efectivo de la identidad.
func (s *Service) ResolvePermissions(ctx context.Context, identity *repository.Identity) permission.Set {
	return s.deps.Permissions.Resolve(ctx, identity, nil)
}

// Devices lista las sesiones de dispositivo de la identidad.
func (s *Service) Devices(ctx context.Context, identityID string) ([]repository.DeviceSession, error) {
	if identityID == "" {
		return nil, ErrMissingFields
	}
	return s.deps.Sessions.List(ctx, identityID)
}
