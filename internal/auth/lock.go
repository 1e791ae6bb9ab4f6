package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
)

const componentLock = "auth.lock"

// Motivos de bloqueo persistidos en la credencial.
const (
	LockReasonFailedAttempts = "too_many_failed_attempts"
	LockReasonAdmin          = "admin"
)

// LockAccount bloquea la cuenta por decisión administrativa y revoca todas
// sus sesiones. duration <= 0 bloquea de forma indefinida (hasta UnlockAccount).
// Retorna el instante de fin del bloqueo (nil si es indefinido).
func (s *Service) LockAccount(ctx context.Context, identityID, reason string, duration time.Duration) (*time.Time, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentLock),
		logger.Op("LockAccount"),
		logger.IdentityID(identityID),
	)
	if identityID == "" {
		return nil, ErrMissingFields
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = LockReasonAdmin
	}

	cred, err := s.deps.Credentials.GetByIdentityID(ctx, identityID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		log.Error("credential lookup failed", logger.Err(err))
		return nil, err
	}

	var until *time.Time
	if duration > 0 {
		t := s.now().Add(duration)
		until = &t
	}
	if err := s.deps.Credentials.Lock(ctx, identityID, cred.LockLevel+1, until, reason); err != nil {
		log.Error("lock failed", logger.Err(err))
		return nil, err
	}
	n, err := s.deps.Sessions.BumpAllVersions(ctx, identityID)
	if err != nil {
		log.Error("revoke sessions after lock failed", logger.Err(err))
		return nil, err
	}

	log.Info("account locked", logger.Reason(reason), logger.Count(n), logger.Any("locked_until", until))
	s.deps.Events.AuthEvent("lock", "admin")
	s.notifyLocked(ctx, identityID, until, reason)
	return until, nil
}

// UnlockAccount levanta el bloqueo y resetea nivel y contador.
func (s *Service) UnlockAccount(ctx context.Context, identityID string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentLock),
		logger.Op("UnlockAccount"),
		logger.IdentityID(identityID),
	)
	if identityID == "" {
		return ErrMissingFields
	}
	if err := s.deps.Credentials.Unlock(ctx, identityID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		log.Error("unlock failed", logger.Err(err))
		return err
	}
	log.Info("account unlocked")
	s.deps.Events.AuthEvent("unlock", "admin")
	return nil
}

// notifyLocked es best-effort.
func (s *Service) notifyLocked(ctx context.Context, identityID string, until *time.Time, reason string) {
	log := logger.From(ctx).With(logger.Component(componentLock), logger.IdentityID(identityID))
	identity, err := s.deps.Identities.GetByID(ctx, identityID)
	if err != nil {
		log.Warn("lock notification skipped", logger.Err(err))
		return
	}
	if err := s.deps.Notifier.AccountLocked(ctx, identity, until, reason); err != nil {
		log.Warn("lock notification failed", logger.Err(err))
	}
}
