package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtx "github.com/dropDatabas3/orgauth/internal/jwt"
)

// Errores del core de autenticación. Son condiciones esperadas: la capa HTTP
// las traduce a respuestas estructuradas.
var (
	ErrMissingFields       = fmt.Errorf("missing required fields")
	ErrInvalidCredentials  = fmt.Errorf("invalid credentials")
	ErrAccountLocked       = fmt.Errorf("account locked")
	ErrLoginDisabled       = fmt.Errorf("login disabled")
	ErrAccountBlocked      = fmt.Errorf("account blocked")
	ErrInvalidRefreshToken = fmt.Errorf("invalid refresh token")
	ErrInvalidDeviceID     = fmt.Errorf("invalid device id")
	ErrPasswordMismatch    = fmt.Errorf("new password and confirmation do not match")
	ErrPasswordPolicy      = fmt.Errorf("password does not satisfy policy")

	// Rechazos de Authenticate (pipeline por request).
	ErrTokenMissing        = fmt.Errorf("token missing")
	ErrUserNotFound        = fmt.Errorf("user not found")
	ErrDeviceNotRecognized = fmt.Errorf("device not recognized")
	ErrTokenInvalidated    = fmt.Errorf("token invalidated")

	// Errores del codec re-exportados para que los callers no importen jwt.
	ErrTokenExpired      = jwtx.ErrTokenExpired
	ErrInvalidSignature  = jwtx.ErrInvalidSignature
	ErrTokenMalformed    = jwtx.ErrTokenMalformed
	ErrMissingDeviceInfo = jwtx.ErrMissingDeviceInfo
)

// LockedError indica una cuenta bloqueada. errors.Is(err, ErrAccountLocked) es true.
// Until es nil para un bloqueo indefinido (administrativo).
type LockedError struct {
	Until     *time.Time
	Remaining time.Duration
	Level     int
}

func (e *LockedError) Error() string {
	if e.Until == nil {
		return "account locked"
	}
	return fmt.Sprintf("account locked for %s", e.Remaining.Round(time.Second))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// RetryAfterSeconds redondea Remaining hacia arriba. 0 si es indefinido.
func (e *LockedError) RetryAfterSeconds() int64 {
	if e.Until == nil || e.Remaining <= 0 {
		return 0
	}
	return int64((e.Remaining + time.Second - 1) / time.Second)
}

// PolicyError lista las reglas de contraseña incumplidas.
// errors.Is(err, ErrPasswordPolicy) es true.
type PolicyError struct {
	Reasons []string
}

func (e *PolicyError) Error() string {
	return "password does not satisfy policy: " + strings.Join(e.Reasons, ", ")
}

func (e *PolicyError) Is(target error) bool {
	return target == ErrPasswordPolicy
}

// IsTokenRejection indica si err es un rechazo esperado de Authenticate
// (en contraste con un error de storage).
func IsTokenRejection(err error) bool {
	for _, target := range []error{
		ErrTokenMissing, ErrTokenExpired, ErrInvalidSignature, ErrTokenMalformed,
		ErrMissingDeviceInfo, ErrUserNotFound, ErrDeviceNotRecognized,
		ErrTokenInvalidated, ErrLoginDisabled, ErrAccountBlocked,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
