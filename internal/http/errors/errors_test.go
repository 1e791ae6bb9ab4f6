package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/orgauth/internal/auth"
	"github.com/dropDatabas3/orgauth/internal/permission"
)

func write(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	WriteError(rec, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestFromError_AuthTaxonomy(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{auth.ErrTokenMissing, "TOKEN_MISSING", 401},
		{auth.ErrTokenExpired, "TOKEN_EXPIRED", 401},
		{auth.ErrInvalidSignature, "TOKEN_INVALID", 401},
		{auth.ErrTokenMalformed, "TOKEN_INVALID", 401},
		{auth.ErrMissingDeviceInfo, "MISSING_DEVICE_INFO", 401},
		{auth.ErrUserNotFound, "USER_NOT_FOUND", 401},
		{auth.ErrDeviceNotRecognized, "DEVICE_NOT_RECOGNIZED", 401},
		{auth.ErrTokenInvalidated, "TOKEN_INVALIDATED", 401},
		{auth.ErrLoginDisabled, "LOGIN_DISABLED", 403},
		{auth.ErrAccountBlocked, "ACCOUNT_BLOCKED", 403},
		{auth.ErrInvalidRefreshToken, "INVALID_REFRESH_TOKEN", 401},
		{fmt.Errorf("wrapped: %w", auth.ErrMissingFields), "MISSING_FIELDS", 400},
		{fmt.Errorf("db down"), "INTERNAL_SERVER_ERROR", 500},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			e := FromError(tc.err)
			assert.Equal(t, tc.code, e.Code)
			assert.Equal(t, tc.status, e.HTTPStatus)
		})
	}
}

func TestWriteError_InvalidCredentialsIsStable(t *testing.T) {
	a, _ := write(t, auth.ErrInvalidCredentials)
	b, _ := write(t, fmt.Errorf("login: %w", auth.ErrInvalidCredentials))
	assert.Equal(t, a.Body.String(), b.Body.String())
	assert.Equal(t, http.StatusUnauthorized, a.Code)
}

func TestWriteError_Locked(t *testing.T) {
	until := time.Now().Add(time.Minute)
	rec, body := write(t, &auth.LockedError{Until: &until, Remaining: 61 * time.Second, Level: 1})
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Equal(t, "61", rec.Header().Get("Retry-After"))
	assert.Equal(t, "ACCOUNT_LOCKED", body["code"])
	assert.EqualValues(t, 61, body["retry_after"])
}

func TestWriteError_PolicyAndDenied(t *testing.T) {
	_, body := write(t, &auth.PolicyError{Reasons: []string{"too_short", "missing_digit"}})
	assert.Equal(t, "PASSWORD_POLICY", body["code"])
	assert.Equal(t, "too_short,missing_digit", body["detail"])

	rec, body := write(t, &permission.DeniedError{Key: "users:manage:lock"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "users:manage:lock", body["detail"])
}

func TestWithDetailDoesNotMutateBase(t *testing.T) {
	e := ErrForbidden.WithDetail("x")
	assert.Equal(t, "x", e.Detail)
	assert.Empty(t, ErrForbidden.Detail)
}
