package jwt

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789abcdef"

func newTestCodec(t *testing.T, now time.Time) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret, "orgauth-test", 10*time.Minute)
	require.NoError(t, err)
	return c.WithClock(func() time.Time { return now })
}

func TestNewCodec_MissingSecret(t *testing.T) {
	_, err := NewCodec("", "iss", time.Minute)
	require.ErrorIs(t, err, ErrMissingSecret)

	_, err = NewCodec("   ", "iss", time.Minute)
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCodec(t, now)

	tok, exp, err := c.Issue("id-1", "org-1", "dev-A", 7, 0)
	require.NoError(t, err)
	assert.Equal(t, now.Add(10*time.Minute), exp)

	claims, err := c.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "id-1", claims.IdentityID())
	assert.Equal(t, "dev-A", claims.DeviceID)
	assert.Equal(t, int64(7), claims.TokenVersion())
	assert.Equal(t, "org-1", claims.OrgID)
	assert.Equal(t, TypeAccess, claims.Type)
	assert.Equal(t, exp, claims.ExpiresAtTime())
}

func TestVerify_VersionZeroIsPresent(t *testing.T) {
	c := newTestCodec(t, time.Now())
	tok, _, err := c.Issue("id-1", "", "dev-A", 0, time.Minute)
	require.NoError(t, err)

	claims, err := c.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(0), claims.TokenVersion())
}

func TestVerify_Expired(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCodec(t, issuedAt)
	tok, _, err := c.Issue("id-1", "org-1", "dev-A", 0, time.Minute)
	require.NoError(t, err)

	// sin leeway: un segundo después de exp ya es inválido
	later := c.WithClock(func() time.Time { return issuedAt.Add(time.Minute + time.Second) })
	_, err = later.Verify(tok)
	require.ErrorIs(t, err, ErrTokenExpired)

	// vencido y además con firma inválida: gana la firma
	parts := strings.Split(tok, ".")
	parts[2] = base64.RawURLEncoding.EncodeToString([]byte("garbage-signature-bytes-000000000"))
	_, err = later.Verify(strings.Join(parts, "."))
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_WrongSecret(t *testing.T) {
	now := time.Now()
	other, err := NewCodec("another-secret", "orgauth-test", time.Minute)
	require.NoError(t, err)
	tok, _, err := other.Issue("id-1", "org", "dev-A", 0, 0)
	require.NoError(t, err)

	_, err = newTestCodec(t, now).Verify(tok)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	ver := int64(0)
	claims := Claims{
		DeviceID: "dev-A", Version: &ver, Type: TypeAccess,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer: "orgauth-test", Subject: "id-1",
			ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = newTestCodec(t, time.Now()).Verify(tok)
	require.ErrorIs(t, err, ErrInvalidSignature)

	none, err := jwtv5.NewWithClaims(jwtv5.SigningMethodNone, claims).SignedString(jwtv5.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = newTestCodec(t, time.Now()).Verify(none)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_Malformed(t *testing.T) {
	c := newTestCodec(t, time.Now())
	for _, raw := range []string{"", "abc", "a.b.c", "Bearer x.y.z"} {
		_, err := c.Verify(raw)
		assert.ErrorIs(t, err, ErrTokenMalformed, raw)
	}
}

func signRaw(t *testing.T, claims jwtv5.Claims) string {
	t.Helper()
	tok, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func TestVerify_MissingDeviceID(t *testing.T) {
	ver := int64(0)
	tok := signRaw(t, Claims{
		Version: &ver, Type: TypeAccess,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer: "orgauth-test", Subject: "id-1",
			ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	_, err := newTestCodec(t, time.Now()).Verify(tok)
	require.ErrorIs(t, err, ErrMissingDeviceInfo)
}

func TestVerify_MissingRequiredClaims(t *testing.T) {
	exp := jwtv5.NewNumericDate(time.Now().Add(time.Hour))
	ver := int64(1)
	cases := map[string]jwtv5.Claims{
		"sin ver": Claims{DeviceID: "d", Type: TypeAccess,
			RegisteredClaims: jwtv5.RegisteredClaims{Issuer: "orgauth-test", Subject: "id", ExpiresAt: exp}},
		"typ refresh": Claims{DeviceID: "d", Version: &ver, Type: "refresh",
			RegisteredClaims: jwtv5.RegisteredClaims{Issuer: "orgauth-test", Subject: "id", ExpiresAt: exp}},
		"sin sub": Claims{DeviceID: "d", Version: &ver, Type: TypeAccess,
			RegisteredClaims: jwtv5.RegisteredClaims{Issuer: "orgauth-test", ExpiresAt: exp}},
		"sin exp": Claims{DeviceID: "d", Version: &ver, Type: TypeAccess,
			RegisteredClaims: jwtv5.RegisteredClaims{Issuer: "orgauth-test", Subject: "id"}},
		"otro iss": Claims{DeviceID: "d", Version: &ver, Type: TypeAccess,
			RegisteredClaims: jwtv5.RegisteredClaims{Issuer: "evil", Subject: "id", ExpiresAt: exp}},
	}
	c := newTestCodec(t, time.Now())
	for name, cl := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Verify(signRaw(t, cl))
			require.ErrorIs(t, err, ErrTokenMalformed)
		})
	}
}

func TestIssue_RequiresIDs(t *testing.T) {
	c := newTestCodec(t, time.Now())
	_, _, err := c.Issue("", "org", "dev", 0, 0)
	require.Error(t, err)
	_, _, err = c.Issue("id", "org", "", 0, 0)
	require.Error(t, err)
}
