package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

func Method(v string) zap.Field {
	return zap.String("method", v)
}

func Path(v string) zap.Field {
	return zap.String("path", v)
}

func Status(v int) zap.Field {
	return zap.Int("status", v)
}

func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

func UserAgent(v string) zap.Field {
	return zap.String("user_agent", v)
}

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v time.Duration) zap.Field {
	return zap.Int64("duration_ms", v.Milliseconds())
}

// =================================================================================
// CAMPOS ESTÁNDAR - NEGOCIO
// =================================================================================

// OrgID identifica la organización (tenant) del usuario.
func OrgID(v string) zap.Field {
	return zap.String("org_id", v)
}

// IdentityID identifica al usuario autenticado.
func IdentityID(v string) zap.Field {
	return zap.String("identity_id", v)
}

// DeviceID identifica la sesión de dispositivo.
func DeviceID(v string) zap.Field {
	return zap.String("device_id", v)
}

// TokenVersion es la versión de token de la sesión de dispositivo.
func TokenVersion(v int64) zap.Field {
	return zap.Int64("token_version", v)
}

// Permission es la clave de permiso evaluada.
func Permission(v string) zap.Field {
	return zap.String("permission", v)
}

// Reason es el motivo de un rechazo (token_expired, device_not_recognized, ...).
func Reason(v string) zap.Field {
	return zap.String("reason", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

func Component(v string) zap.Field {
	return zap.String("component", v)
}

func Op(v string) zap.Field {
	return zap.String("op", v)
}

func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

func Err(err error) zap.Field {
	return zap.Error(err)
}

func Count(v int) zap.Field {
	return zap.Int("count", v)
}

func String(key, v string) zap.Field {
	return zap.String(key, v)
}

func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}

func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
