package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	c, err := Load("")
	require.NoError(t, err)

	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "memory", c.Storage.Driver)
	require.Equal(t, "store", c.Storage.SessionsDriver)
	require.Equal(t, 15*time.Minute, Duration(c.JWT.AccessTTL))
	require.Equal(t, 720*time.Hour, Duration(c.JWT.RefreshTTL))
	require.Equal(t, 5, c.Auth.Lockout.Threshold)
	require.Equal(t, []time.Duration{15 * time.Minute, time.Hour, 24 * time.Hour}, c.LockoutWindows())
	require.Equal(t, "refresh_token", c.Auth.Cookie.RefreshName)
	require.False(t, c.IsProd())
}

func TestLoad_MissingSecretIsFatal(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load("")
	require.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	p := writeYAML(t, `
app:
  app_env: prod
jwt:
  secret: from-yaml
  access_ttl: 5m
storage:
  driver: postgres
  dsn: postgres://localhost/orgauth
security:
  password_blacklist_path: blacklist.txt
smtp:
  enabled: true
  host: smtp.example.com
  from: no-reply@example.com
`)
	t.Setenv("JWT_ACCESS_TTL", "10m")
	t.Setenv("AUTH_LOCKOUT_WINDOWS", "1m, 2m")

	c, err := Load(p)
	require.NoError(t, err)
	require.True(t, c.IsProd())
	require.Equal(t, "from-yaml", c.JWT.Secret)
	require.Equal(t, 10*time.Minute, Duration(c.JWT.AccessTTL))
	require.Equal(t, []time.Duration{time.Minute, 2 * time.Minute}, c.LockoutWindows())
	require.Equal(t, "smtp.example.com", c.SMTP.Host)
	require.Equal(t, filepath.Join(filepath.Dir(p), "blacklist.txt"), c.Security.PasswordBlacklistPath)
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")

	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "postgres")
		_, err := Load("")
		require.Error(t, err)
	})
	t.Run("redis sessions without addr", func(t *testing.T) {
		t.Setenv("STORAGE_SESSIONS_DRIVER", "redis")
		_, err := Load("")
		require.Error(t, err)
	})
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("JWT_REFRESH_TTL", "mañana")
		_, err := Load("")
		require.Error(t, err)
	})
}

func TestTrustedProxies(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")

	t.Run("ips y cidrs", func(t *testing.T) {
		t.Setenv("SERVER_TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.1")
		c, err := Load("")
		require.NoError(t, err)
		nets := c.TrustedProxies()
		require.Len(t, nets, 2)
		require.Equal(t, "10.0.0.0/8", nets[0].String())
		require.Equal(t, "192.0.2.1/32", nets[1].String())
	})
	t.Run("valor inválido", func(t *testing.T) {
		t.Setenv("SERVER_TRUSTED_PROXIES", "proxy.local")
		_, err := Load("")
		require.Error(t, err)
	})
	t.Run("por defecto vacío", func(t *testing.T) {
		c, err := Load("")
		require.NoError(t, err)
		require.Empty(t, c.TrustedProxies())
	})
}
