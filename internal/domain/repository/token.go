package repository

import (
	"context"
	"time"
)

// RefreshToken es el registro server-side de un refresh token opaco.
// Solo se guarda el hash; el valor crudo vive en la cookie del cliente.
type RefreshToken struct {
	ID             string
	IdentityID     string
	DeviceID       string
	TokenHash      string
	SessionVersion int64 // TokenVersion de la sesión al momento de emitir
	IssuedAt       time.Time
	ExpiresAt      time.Time
	ConsumedAt     *time.Time
}

// RefreshTokenRepository define operaciones sobre refresh tokens.
type RefreshTokenRepository interface {
	// Create persiste un nuevo refresh token.
	Create(ctx context.Context, token RefreshToken) error

	// Consume marca el token como usado de forma atómica (compare-and-set)
	// y retorna el registro. Retorna ErrNotFound si no existe y
	// ErrAlreadyConsumed si otro llamado ya lo rotó.
	Consume(ctx context.Context, tokenHash string, at time.Time) (*RefreshToken, error)

	// DeleteExpired elimina tokens vencidos antes de now.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
