package auth

import (
	"context"
	"errors"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
)

const componentLogout = "auth.logout"

// Logout invalida los tokens del dispositivo incrementando su versión.
// Los refresh tokens emitidos para ese dispositivo dejan de servir.
func (s *Service) Logout(ctx context.Context, identityID, deviceID string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentLogout),
		logger.Op("Logout"),
		logger.IdentityID(identityID),
		logger.DeviceID(deviceID),
	)
	if identityID == "" || deviceID == "" {
		return ErrMissingFields
	}
	if _, err := s.deps.Sessions.BumpVersion(ctx, identityID, deviceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDeviceNotRecognized
		}
		log.Error("logout failed", logger.Err(err))
		return err
	}
	s.deps.Events.AuthEvent("logout", "success")
	return nil
}

// LogoutAll invalida los tokens de todos los dispositivos. Retorna cuántas
// sesiones fueron afectadas.
func (s *Service) LogoutAll(ctx context.Context, identityID string) (int, error) {
	if identityID == "" {
		return 0, ErrMissingFields
	}
	n, err := s.deps.Sessions.BumpAllVersions(ctx, identityID)
	if err != nil {
		logger.From(ctx).Error("logout all failed",
			logger.Layer("service"), logger.Component(componentLogout), logger.Op("LogoutAll"),
			logger.IdentityID(identityID), logger.Err(err))
		return 0, err
	}
	s.deps.Events.AuthEvent("logout_all", "success")
	return n, nil
}
