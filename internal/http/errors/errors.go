// Package errors define los errores de la API HTTP y su serialización.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dropDatabas3/orgauth/internal/auth"
	"github.com/dropDatabas3/orgauth/internal/permission"
)

type errorResponse struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	RetryAfter int64  `json:"retry_after,omitempty"`
}

// WriteError escribe err como JSON. Cualquier error que no sea *AppError
// pasa por FromError.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if appErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(appErr.RetryAfter, 10))
	}
	if appErr.HTTPStatus == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	w.WriteHeader(appErr.HTTPStatus)

	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:       appErr.Code,
		Message:    appErr.Message,
		Detail:     appErr.Detail,
		RetryAfter: appErr.RetryAfter,
	})
}

// FromError traduce errores de las capas inferiores. Lo no reconocido es un
// 500 que conserva la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	var locked *auth.LockedError
	if stderrors.As(err, &locked) {
		e := ErrAccountLocked.WithCause(err).WithRetryAfter(locked.RetryAfterSeconds())
		if locked.Until == nil {
			e = e.WithDetail("bloqueo administrativo")
		}
		return e
	}
	var policy *auth.PolicyError
	if stderrors.As(err, &policy) {
		return ErrPasswordPolicy.WithCause(err).WithDetail(strings.Join(policy.Reasons, ","))
	}
	var denied *permission.DeniedError
	if stderrors.As(err, &denied) {
		return ErrPermissionDenied.WithCause(err).WithDetail(denied.Key)
	}

	for _, m := range authMappings {
		if stderrors.Is(err, m.err) {
			// Sin causa: las respuestas de credenciales deben ser idénticas
			return m.app
		}
	}
	return ErrInternalServerError.WithCause(err)
}

var authMappings = []struct {
	err error
	app *AppError
}{
	{auth.ErrMissingFields, ErrMissingFields},
	{auth.ErrInvalidDeviceID, ErrInvalidDeviceID},
	{auth.ErrPasswordMismatch, ErrPasswordMismatch},
	{auth.ErrInvalidCredentials, ErrInvalidCredentials},
	{auth.ErrTokenMissing, ErrTokenMissing},
	{auth.ErrTokenExpired, ErrTokenExpired},
	{auth.ErrInvalidSignature, ErrTokenInvalid},
	{auth.ErrTokenMalformed, ErrTokenInvalid},
	{auth.ErrMissingDeviceInfo, ErrMissingDeviceInfo},
	{auth.ErrUserNotFound, ErrUserNotFound},
	{auth.ErrDeviceNotRecognized, ErrDeviceNotRecognized},
	{auth.ErrTokenInvalidated, ErrTokenInvalidated},
	{auth.ErrInvalidRefreshToken, ErrInvalidRefreshToken},
	{auth.ErrLoginDisabled, ErrLoginDisabled},
	{auth.ErrAccountBlocked, ErrAccountBlocked},
	{auth.ErrAccountLocked, ErrAccountLocked},
	{permission.ErrPermissionDenied, ErrPermissionDenied},
}
