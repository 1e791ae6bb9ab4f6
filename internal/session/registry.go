// Package session es el registro de sesiones por dispositivo.
//
// Una sesión es única por (identidad, dispositivo) y lleva un TokenVersion
// que solo crece. Un access token autoriza mientras su "ver" sea igual al
// TokenVersion actual; incrementarlo revoca todos los tokens emitidos para
// ese dispositivo sin mantener una blocklist.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
)

// ErrNotFound: no hay sesión para (identidad, dispositivo).
var ErrNotFound = repository.ErrNotFound

// MaxDeviceIDLength limita device ids provistos por el cliente.
const MaxDeviceIDLength = 128

// ErrInvalidDeviceID: device id provisto por el cliente fuera de formato.
var ErrInvalidDeviceID = errors.New("session: invalid device id")

// Registry opera sobre el DeviceSessionRepository configurado.
type Registry struct {
	repo repository.DeviceSessionRepository
	now  func() time.Time
}

// NewRegistry crea el registro.
func NewRegistry(repo repository.DeviceSessionRepository) *Registry {
	return &Registry{repo: repo, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (r *Registry) WithClock(now func() time.Time) *Registry {
	cp := *r
	cp.now = now
	return &cp
}

// NewDeviceID genera un device id del lado servidor.
func NewDeviceID() string {
	return uuid.NewString()
}

// NormalizeDeviceID recorta espacios y valida largo/charset.
// Vacío es válido (significa "generar uno").
func NormalizeDeviceID(deviceID string) (string, error) {
	d := strings.TrimSpace(deviceID)
	if len(d) > MaxDeviceIDLength {
		return "", ErrInvalidDeviceID
	}
	for _, c := range d {
		if c < 0x21 || c > 0x7e {
			return "", ErrInvalidDeviceID
		}
	}
	return d, nil
}

// GetOrCreate retorna la sesión del dispositivo o la crea con TokenVersion=0.
// Si deviceID es vacío genera uno nuevo.
func (r *Registry) GetOrCreate(ctx context.Context, identityID, deviceID string, meta repository.DeviceMeta) (*repository.DeviceSession, error) {
	d, err := NormalizeDeviceID(deviceID)
	if err != nil {
		return nil, err
	}
	if d == "" {
		d = NewDeviceID()
	}
	ds, err := r.repo.GetOrCreate(ctx, identityID, d, meta)
	if err != nil {
		return nil, err
	}
	// GetOrCreate no actualiza metadata de una sesión existente
	if err := r.repo.Touch(ctx, identityID, d, meta, r.now()); err != nil {
		logger.From(ctx).Warn("session touch failed",
			logger.Layer("session"), logger.Op("GetOrCreate"),
			logger.IdentityID(identityID), logger.DeviceID(d), logger.Err(err))
	}
	return ds, nil
}

// Find busca la sesión. ErrNotFound si no existe.
func (r *Registry) Find(ctx context.Context, identityID, deviceID string) (*repository.DeviceSession, error) {
	if identityID == "" || deviceID == "" {
		return nil, ErrNotFound
	}
	return r.repo.Find(ctx, identityID, deviceID)
}

// BumpVersion revoca los tokens de un dispositivo. Retorna la nueva versión.
func (r *Registry) BumpVersion(ctx context.Context, identityID, deviceID string) (int64, error) {
	v, err := r.repo.BumpVersion(ctx, identityID, deviceID)
	if err != nil {
		return 0, err
	}
	logger.From(ctx).Info("device session revoked",
		logger.Layer("session"), logger.Op("BumpVersion"),
		logger.IdentityID(identityID), logger.DeviceID(deviceID), logger.TokenVersion(v))
	return v, nil
}

// BumpAllVersions revoca los tokens de todos los dispositivos de la identidad.
func (r *Registry) BumpAllVersions(ctx context.Context, identityID string) (int, error) {
	n, err := r.repo.BumpAllVersions(ctx, identityID)
	if err != nil {
		return 0, err
	}
	logger.From(ctx).Info("all device sessions revoked",
		logger.Layer("session"), logger.Op("BumpAllVersions"),
		logger.IdentityID(identityID), logger.Count(n))
	return n, nil
}

// List retorna las sesiones de la identidad (último acceso primero).
func (r *Registry) List(ctx context.Context, identityID string) ([]repository.DeviceSession, error) {
	return r.repo.List(ctx, identityID)
}

// Touch registra actividad del dispositivo.
func (r *Registry) Touch(ctx context.Context, identityID, deviceID string, meta repository.DeviceMeta) error {
	return r.repo.Touch(ctx, identityID, deviceID, meta, r.now())
}
