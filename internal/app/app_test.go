package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/orgauth/internal/config"
	"github.com/dropDatabas3/orgauth/internal/security/password"
)

const seed = `
roles:
  - id: r-admin
    organization: org-1
    name: org_admin
    permissions: [users:manage:lock, users:manage:unlock]
users:
  - id: u-admin
    organization: org-1
    role: r-admin
    username: admin
    email: admin@example.com
    password: AdminDemo123
`

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed.yaml"), []byte(seed), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
seed:
  path: seed.yaml
rate:
  enabled: true
  login:
    limit: 3
    window: 1m
`), 0o600))

	t.Setenv("JWT_SECRET", "app-test-secret")
	cfg, err := config.Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	return cfg
}

func TestBuild_MemoryStackServesLogin(t *testing.T) {
	cfg := loadConfig(t)
	a, err := Build(context.Background(), cfg, Options{PasswordParams: password.Fast, DisableMetrics: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	req := httptest.NewRequest(http.MethodPost, "/v2/auth/login",
		strings.NewReader(`{"login_id":"admin@example.com","password":"AdminDemo123"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.ElementsMatch(t, []any{"users:manage:lock", "users:manage:unlock"}, body["permissions"])
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))

	rec = httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuild_BadBlacklistPathFails(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Security.PasswordBlacklistPath = filepath.Join(t.TempDir(), "missing.txt")

	_, err := Build(context.Background(), cfg, Options{PasswordParams: password.Fast, DisableMetrics: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password blacklist")
}

func TestPasswordPolicy_FromConfig(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Security.PasswordPolicy.RequireUpper = true

	p, err := passwordPolicy(cfg)
	require.NoError(t, err)
	ok, reasons := p.Validate("minusculas1")
	assert.False(t, ok)
	assert.Contains(t, reasons, "missing_upper")
}
