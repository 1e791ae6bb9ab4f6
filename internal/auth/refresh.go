package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
	tokens "github.com/dropDatabas3/orgauth/internal/security/token"
)

const componentRefresh = "auth.refresh"

// RefreshInput es el pedido de rotación.
type RefreshInput struct {
	RefreshToken string
	DeviceID     string // opcional; si viene debe coincidir con el del token
	UserAgent    string
	IP           string
}

// RefreshResult es el nuevo par emitido.
type RefreshResult struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	DeviceID         string
}

// Refresh consume el refresh token y emite un par nuevo (rotación).
//
// El consumo es atómico y ocurre antes de cualquier otra validación: un token
// presentado dos veces falla la segunda aunque la primera también haya sido
// rechazada por otra causa. Todas las fallas del token retornan
// ErrInvalidRefreshToken.
func (s *Service) Refresh(ctx context.Context, in RefreshInput) (*RefreshResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentRefresh),
		logger.Op("Refresh"),
	)

	raw := strings.TrimSpace(in.RefreshToken)
	if raw == "" {
		return nil, ErrMissingFields
	}
	now := s.now()

	rt, err := s.deps.RefreshTokens.Consume(ctx, tokens.SHA256Base64URL(raw), now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrAlreadyConsumed) {
			log.Info("refresh rejected", logger.Reason(err.Error()))
			s.deps.Events.AuthEvent("refresh", "invalid")
			return nil, ErrInvalidRefreshToken
		}
		log.Error("refresh consume failed", logger.Err(err))
		return nil, err
	}
	log = log.With(logger.IdentityID(rt.IdentityID), logger.DeviceID(rt.DeviceID))

	reject := func(reason string) (*RefreshResult, error) {
		log.Info("refresh rejected", logger.Reason(reason))
		s.deps.Events.AuthEvent("refresh", "invalid")
		return nil, ErrInvalidRefreshToken
	}

	if !now.Before(rt.ExpiresAt) {
		return reject("expired")
	}
	if in.DeviceID != "" && strings.TrimSpace(in.DeviceID) != rt.DeviceID {
		return reject("device_mismatch")
	}

	ds, err := s.deps.Sessions.Find(ctx, rt.IdentityID, rt.DeviceID)
	if errors.Is(err, repository.ErrNotFound) {
		return reject("session_not_found")
	}
	if err != nil {
		log.Error("session lookup failed", logger.Err(err))
		return nil, err
	}
	// Un logout (bump) posterior a la emisión invalida el refresh
	if ds.TokenVersion != rt.SessionVersion {
		return reject("session_version_mismatch")
	}

	identity, err := s.deps.Identities.GetByID(ctx, rt.IdentityID)
	if errors.Is(err, repository.ErrNotFound) {
		return reject("identity_not_found")
	}
	if err != nil {
		log.Error("identity lookup failed", logger.Err(err))
		return nil, err
	}
	if err := standing(identity); err != nil {
		log.Info("refresh rejected", logger.Reason(err.Error()))
		s.deps.Events.AuthEvent("refresh", reasonLabel(err))
		return nil, err
	}

	cred, err := s.deps.Credentials.GetByIdentityID(ctx, rt.IdentityID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Error("credential lookup failed", logger.Err(err))
		return nil, err
	}
	if cred != nil {
		if lockErr := lockedError(cred, now); lockErr != nil {
			log.Info("refresh rejected: account locked")
			s.deps.Events.AuthEvent("refresh", "locked")
			return nil, lockErr
		}
	}

	pair, err := s.issuePair(ctx, identity, ds, now)
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		return nil, err
	}
	if in.UserAgent != "" || in.IP != "" {
		if err := s.deps.Sessions.Touch(ctx, identity.ID, ds.DeviceID, repository.DeviceMeta{UserAgent: in.UserAgent, IP: in.IP}); err != nil {
			log.Warn("session touch failed", logger.Err(err))
		}
	}

	log.Debug("refresh rotated", logger.TokenVersion(ds.TokenVersion))
	s.deps.Events.AuthEvent("refresh", "success")

	return &RefreshResult{
		AccessToken:      pair.access,
		AccessExpiresAt:  pair.accessExp,
		RefreshToken:     pair.refresh,
		RefreshExpiresAt: pair.refreshExp,
		DeviceID:         ds.DeviceID,
	}, nil
}
