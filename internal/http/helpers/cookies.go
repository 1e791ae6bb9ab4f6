package helpers

import (
	"net/http"
	"strings"
	"time"
)

// CookieConfig define los atributos de las cookies de sesión.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Domain      string
	SameSite    string // Lax | Strict | None
	Secure      bool
}

func (c CookieConfig) sameSite() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (c CookieConfig) build(name, value, path string, ttl time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
	}
	if ttl > 0 {
		ck.MaxAge = int(ttl / time.Second)
		ck.Expires = time.Now().Add(ttl)
	} else {
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
	}
	return ck
}

// SetSessionCookies escribe el access token (toda la API) y el refresh token
// (solo rutas /v2/auth).
func (c CookieConfig) SetSessionCookies(w http.ResponseWriter, access string, accessTTL time.Duration, refresh string, refreshTTL time.Duration) {
	if c.AccessName != "" && access != "" {
		http.SetCookie(w, c.build(c.AccessName, access, "/", accessTTL))
	}
	if c.RefreshName != "" && refresh != "" {
		http.SetCookie(w, c.build(c.RefreshName, refresh, "/v2/auth", refreshTTL))
	}
}

// ClearSessionCookies expira ambas cookies.
func (c CookieConfig) ClearSessionCookies(w http.ResponseWriter) {
	if c.AccessName != "" {
		http.SetCookie(w, c.build(c.AccessName, "", "/", 0))
	}
	if c.RefreshName != "" {
		http.SetCookie(w, c.build(c.RefreshName, "", "/v2/auth", 0))
	}
}

// RefreshFromCookie lee el refresh token de la cookie.
func (c CookieConfig) RefreshFromCookie(r *http.Request) string {
	if c.RefreshName == "" {
		return ""
	}
	if ck, err := r.Cookie(c.RefreshName); err == nil {
		return strings.TrimSpace(ck.Value)
	}
	return ""
}
