package errors

import (
	"fmt"
	"net/http"
)

// AppError es la forma estándar de un error expuesto por la API.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	// RetryAfter en segundos; 0 = no aplica
	RetryAfter int64 `json:"-"`
	Err        error `json:"-"` // causa original, solo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un AppError.
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// WithDetail devuelve una COPIA con Detail; los errores base son globales.
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithCause devuelve una COPIA con la causa.
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// WithRetryAfter devuelve una COPIA con RetryAfter en segundos.
func (e *AppError) WithRetryAfter(seconds int64) *AppError {
	cp := *e
	cp.RetryAfter = seconds
	return &cp
}

// =================================================================================
// 400 Bad Request
// =================================================================================

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "La solicitud contiene sintaxis inválida o parámetros faltantes.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "El cuerpo de la solicitud no es un JSON válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingFields = &AppError{
		Code:       "MISSING_FIELDS",
		Message:    "Faltan campos requeridos en la solicitud.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidDeviceID = &AppError{
		Code:       "INVALID_DEVICE_ID",
		Message:    "El identificador de dispositivo es inválido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrPasswordMismatch = &AppError{
		Code:       "PASSWORD_MISMATCH",
		Message:    "La nueva contraseña y su confirmación no coinciden.",
		HTTPStatus: http.StatusBadRequest,
	}
)

// =================================================================================
// 401 Unauthorized
// =================================================================================

var (
	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "No autorizado. Se requiere autenticación.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidCredentials = &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Las credenciales proporcionadas son inválidas.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenMissing = &AppError{
		Code:       "TOKEN_MISSING",
		Message:    "No se proporcionó token de autenticación.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenExpired = &AppError{
		Code:       "TOKEN_EXPIRED",
		Message:    "El token de acceso ha expirado.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenInvalid = &AppError{
		Code:       "TOKEN_INVALID",
		Message:    "El token de acceso es inválido o está malformado.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrMissingDeviceInfo = &AppError{
		Code:       "MISSING_DEVICE_INFO",
		Message:    "El token no identifica un dispositivo. Inicie sesión nuevamente.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrUserNotFound = &AppError{
		Code:       "USER_NOT_FOUND",
		Message:    "El usuario del token no existe.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrDeviceNotRecognized = &AppError{
		Code:       "DEVICE_NOT_RECOGNIZED",
		Message:    "El dispositivo no tiene una sesión registrada.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenInvalidated = &AppError{
		Code:       "TOKEN_INVALIDATED",
		Message:    "La sesión de este dispositivo fue cerrada. Inicie sesión nuevamente.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidRefreshToken = &AppError{
		Code:       "INVALID_REFRESH_TOKEN",
		Message:    "El refresh token es inválido, expiró o ya fue utilizado.",
		HTTPStatus: http.StatusUnauthorized,
	}
)

// =================================================================================
// 403 Forbidden
// =================================================================================

var (
	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "No tiene permisos para realizar esta acción.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrPermissionDenied = &AppError{
		Code:       "PERMISSION_DENIED",
		Message:    "No tiene el permiso requerido para esta acción.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrLoginDisabled = &AppError{
		Code:       "LOGIN_DISABLED",
		Message:    "El acceso de este usuario está deshabilitado.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrAccountBlocked = &AppError{
		Code:       "ACCOUNT_BLOCKED",
		Message:    "La cuenta está bloqueada.",
		HTTPStatus: http.StatusForbidden,
	}
)

// =================================================================================
// 404 / 405 / 422 / 423 / 429
// =================================================================================

var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "El recurso solicitado no fue encontrado.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "Método HTTP no permitido para este recurso.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	ErrPasswordPolicy = &AppError{
		Code:       "PASSWORD_POLICY",
		Message:    "La contraseña no cumple con la política de seguridad.",
		HTTPStatus: http.StatusUnprocessableEntity,
	}

	ErrAccountLocked = &AppError{
		Code:       "ACCOUNT_LOCKED",
		Message:    "La cuenta está bloqueada temporalmente por seguridad.",
		HTTPStatus: http.StatusLocked,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Ha excedido el límite de solicitudes. Intente más tarde.",
		HTTPStatus: http.StatusTooManyRequests,
	}
)

// =================================================================================
// 500+
// =================================================================================

var (
	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Ocurrió un error interno en el servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrServiceUnavailable = &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "El servicio no está disponible temporalmente.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
