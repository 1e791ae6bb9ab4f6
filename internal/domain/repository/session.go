package repository

import (
	"context"
	"time"
)

// DeviceSession es el estado de login de un dispositivo para una identidad.
// Es única por (IdentityID, DeviceID) y es la unidad de revocación de tokens.
type DeviceSession struct {
	IdentityID   string
	DeviceID     string
	TokenVersion int64
	UserAgent    string
	IP           string
	CreatedAt    time.Time
	LastSeenAt   time.Time
}

// DeviceMeta es la metadata de último acceso de un dispositivo.
type DeviceMeta struct {
	UserAgent string
	IP        string
}

// DeviceSessionRepository define el registro de sesiones por dispositivo.
// Los incrementos de TokenVersion deben ser atómicos en todos los drivers.
type DeviceSessionRepository interface {
	// GetOrCreate retorna la sesión existente o la crea con TokenVersion=0.
	GetOrCreate(ctx context.Context, identityID, deviceID string, meta DeviceMeta) (*DeviceSession, error)

	// Find busca una sesión. Retorna ErrNotFound si no existe.
	Find(ctx context.Context, identityID, deviceID string) (*DeviceSession, error)

	// BumpVersion incrementa TokenVersion y retorna el nuevo valor.
	// Retorna ErrNotFound si la sesión no existe.
	BumpVersion(ctx context.Context, identityID, deviceID string) (int64, error)

	// BumpAllVersions incrementa TokenVersion en todas las sesiones de la identidad.
	// Retorna la cantidad de sesiones afectadas.
	BumpAllVersions(ctx context.Context, identityID string) (int, error)

	// List retorna las sesiones de la identidad ordenadas por último acceso (desc).
	List(ctx context.Context, identityID string) ([]DeviceSession, error)

	// Touch actualiza la metadata de último acceso.
	Touch(ctx context.Context, identityID, deviceID string, meta DeviceMeta, at time.Time) error
}
