package auth

import (
	"context"
	"errors"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
	"github.com/dropDatabas3/orgauth/internal/security/password"
)

const componentPassword = "auth.password"

// ChangePasswordInput es el pedido de cambio de contraseña del propio usuario.
type ChangePasswordInput struct {
	IdentityID string
	Old        string
	New        string
	Confirm    string
}

// ChangePassword valida la contraseña actual, aplica la política de la
// organización y persiste el nuevo hash. Siempre revoca las sesiones de
// todos los dispositivos, incluido el que hizo el cambio.
func (s *Service) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentPassword),
		logger.Op("ChangePassword"),
		logger.IdentityID(in.IdentityID),
	)
	if in.IdentityID == "" || in.Old == "" || in.New == "" {
		return ErrMissingFields
	}

	cred, err := s.deps.Credentials.GetByIdentityID(ctx, in.IdentityID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		log.Error("credential lookup failed", logger.Err(err))
		return err
	}
	// La contraseña actual cuenta para el lockout igual que en Login
	now := s.now()
	if lockErr := lockedError(cred, now); lockErr != nil {
		log.Info("change password rejected: account locked")
		s.deps.Events.AuthEvent("change_password", "locked")
		return lockErr
	}
	if !password.Verify(in.Old, cred.PasswordHash) {
		log.Info("change password rejected", logger.Reason("old_password_mismatch"))
		s.registerFailure(ctx, log, cred, now)
		s.deps.Events.AuthEvent("change_password", "invalid_credentials")
		return ErrInvalidCredentials
	}
	if cred.FailedAttempts > 0 || cred.LockLevel > 0 {
		if err := s.deps.Credentials.ResetFailures(ctx, cred.IdentityID); err != nil {
			log.Error("reset failures failed", logger.Err(err))
			return err
		}
	}
	if in.New != in.Confirm {
		return ErrPasswordMismatch
	}

	identity, err := s.deps.Identities.GetByID(ctx, in.IdentityID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		log.Error("identity lookup failed", logger.Err(err))
		return err
	}
	policy, err := s.deps.Policies.PasswordPolicy(ctx, identity.OrganizationID)
	if err != nil {
		log.Error("password policy lookup failed", logger.Err(err))
		return err
	}
	if ok, reasons := policy.Validate(in.New); !ok {
		log.Info("change password rejected", logger.Reason("policy"), logger.Any("reasons", reasons))
		return &PolicyError{Reasons: reasons}
	}

	hash, err := password.Hash(s.deps.PasswordParams, in.New)
	if err != nil {
		return err
	}
	if err := s.deps.Credentials.UpdatePasswordHash(ctx, in.IdentityID, hash, now); err != nil {
		log.Error("update password failed", logger.Err(err))
		return err
	}
	n, err := s.deps.Sessions.BumpAllVersions(ctx, in.IdentityID)
	if err != nil {
		// El hash ya cambió: el error se propaga para que el cliente reintente el logout
		log.Error("revoke sessions after password change failed", logger.Err(err))
		return err
	}
	log.Info("password changed", logger.Count(n))
	s.deps.Events.AuthEvent("change_password", "success")
	return nil
}
