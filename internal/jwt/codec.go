// Package jwt emite y verifica access tokens HS256 ligados a un dispositivo.
//
// Cada token lleva el TokenVersion de la sesión del dispositivo ("ver").
// La validez para autorizar depende de que ese valor coincida con el actual
// del registro de sesiones; este paquete solo verifica firma, forma y expiración.
package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// TypeAccess es el valor del claim "typ" de un access token.
const TypeAccess = "access"

// DefaultAccessTTL aplica si NewCodec recibe ttl <= 0.
const DefaultAccessTTL = 15 * time.Minute

// Claims del access token.
type Claims struct {
	DeviceID string `json:"did,omitempty"`
	Version  *int64 `json:"ver,omitempty"`
	OrgID    string `json:"org,omitempty"`
	Type     string `json:"typ,omitempty"`
	jwtv5.RegisteredClaims
}

// TokenVersion retorna el claim "ver" (0 si no vino).
func (c *Claims) TokenVersion() int64 {
	if c == nil || c.Version == nil {
		return 0
	}
	return *c.Version
}

// IdentityID es el "sub".
func (c *Claims) IdentityID() string {
	return c.Subject
}

// ExpiresAtTime retorna "exp" como time.Time (zero si falta).
func (c *Claims) ExpiresAtTime() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Codec firma y verifica access tokens con un secreto simétrico.
type Codec struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

// NewCodec valida la configuración. Un secreto vacío retorna ErrMissingSecret.
func NewCodec(secret, issuer string, accessTTL time.Duration) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	return &Codec{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
		now:       time.Now,
	}, nil
}

// WithClock reemplaza el reloj (tests).
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// AccessTTL retorna el TTL por defecto.
func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

// Issue firma un access token. ttl <= 0 usa el TTL por defecto del codec.
func (c *Codec) Issue(identityID, orgID, deviceID string, version int64, ttl time.Duration) (string, time.Time, error) {
	if len(c.secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}
	if identityID == "" || deviceID == "" {
		return "", time.Time{}, fmt.Errorf("jwt: issue requires identity and device ids")
	}
	if ttl <= 0 {
		ttl = c.accessTTL
	}
	now := c.now().UTC().Truncate(time.Second)
	exp := now.Add(ttl)

	v := version
	claims := Claims{
		DeviceID: deviceID,
		Version:  &v,
		OrgID:    orgID,
		Type:     TypeAccess,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   identityID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify valida firma (solo HS256), expiración (sin tolerancia), issuer y
// forma de los claims. Los errores son los sentinels de este paquete.
func (c *Codec) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenMalformed
	}

	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(c.issuer))
	}

	var claims Claims
	_, err := jwtv5.ParseWithClaims(raw, &claims, func(*jwtv5.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, classify(err)
	}

	if claims.Subject == "" || claims.Version == nil || claims.Type != TypeAccess {
		return nil, ErrTokenMalformed
	}
	if claims.DeviceID == "" {
		return nil, ErrMissingDeviceInfo
	}
	return &claims, nil
}

// classify traduce errores de golang-jwt. La firma se valida antes que los
// claims, así que un ErrTokenExpired implica firma correcta.
func classify(err error) error {
	switch {
	case errors.Is(err, jwtv5.ErrTokenSignatureInvalid),
		errors.Is(err, jwtv5.ErrTokenUnverifiable):
		return ErrInvalidSignature
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenMalformed
	}
}
