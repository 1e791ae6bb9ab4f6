package middlewares

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/orgauth/internal/auth"
	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	jwtx "github.com/dropDatabas3/orgauth/internal/jwt"
	"github.com/dropDatabas3/orgauth/internal/permission"
	"github.com/dropDatabas3/orgauth/internal/rate"
	"github.com/dropDatabas3/orgauth/internal/security/password"
	"github.com/dropDatabas3/orgauth/internal/session"
	"github.com/dropDatabas3/orgauth/internal/store/memory"
)

const pwd = "Secreta123"

type env struct {
	svc   *auth.Service
	store *memory.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := memory.New()
	codec, err := jwtx.NewCodec("mw-secret", "orgauth-test", time.Minute)
	require.NoError(t, err)
	svc := auth.NewService(auth.Deps{
		Identities:     st.Identities(),
		Credentials:    st.Credentials(),
		RefreshTokens:  st.RefreshTokens(),
		Sessions:       session.NewRegistry(st.Sessions()),
		Codec:          codec,
		Permissions:    permission.NewResolver(st.Roles()),
		PasswordParams: password.Fast,
	})
	return &env{svc: svc, store: st}
}

// seed crea una identidad con un rol de nombre roleName y claves keys.
func (e *env) seed(t *testing.T, id, roleName string, keys ...string) {
	t.Helper()
	ctx := context.Background()
	r := repository.Role{Name: roleName + "-" + id, IsActive: true, PermissionKeys: keys}
	if roleName == permission.SuperAdminRole {
		r = repository.Role{Name: permission.SuperAdminRole, IsActive: true, Category: repository.RoleCategorySystem}
	}
	role, err := e.store.Roles().Create(ctx, r)
	require.NoError(t, err)
	hash, err := password.Hash(password.Fast, pwd)
	require.NoError(t, err)
	require.NoError(t, e.store.Provisioning().CreateIdentity(ctx,
		repository.Identity{ID: id, OrganizationID: "org-1", RoleID: &role.ID, Username: id, CanLogin: true},
		repository.Credential{PasswordHash: hash}))
}

func (e *env) login(t *testing.T, id, device string) *auth.LoginResult {
	t.Helper()
	res, err := e.svc.Login(context.Background(), auth.LoginInput{LoginID: id, Password: pwd, DeviceID: device})
	require.NoError(t, err)
	return res
}

func decodeCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := MustGetPrincipal(r.Context())
		w.Header().Set("X-Identity", p.Identity.ID)
		w.Header().Set("X-Device", p.DeviceID)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireAuth_Extraction(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "u1", "viewer", "users:view")
	res := e.login(t, "u1", "")
	h := RequireAuth(e.svc, "access_token")(okHandler(t))

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v2/me", nil)
		req.Header.Set("Authorization", "Bearer "+res.AccessToken)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "u1", rec.Header().Get("X-Identity"))
		assert.Equal(t, res.DeviceID, rec.Header().Get("X-Device"))
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v2/me", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: res.AccessToken})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("body restored", func(t *testing.T) {
		payload := `{"token":"` + res.AccessToken + `","device_id":"x"}`
		var seen string
		hb := RequireAuth(e.svc, "access_token")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			seen = string(b)
		}))
		req := httptest.NewRequest(http.MethodPost, "/v2/auth/logout", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		hb.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, payload, seen)
	})

	t.Run("header wins over cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v2/me", nil)
		req.Header.Set("Authorization", "Bearer basura")
		req.AddCookie(&http.Cookie{Name: "access_token", Value: res.AccessToken})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "TOKEN_INVALID", decodeCode(t, rec))
	})
}

func TestRequireAuth_Rejections(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "u1", "viewer", "users:view")
	a := e.login(t, "u1", "deviceA")
	b := e.login(t, "u1", "deviceB")
	h := RequireAuth(e.svc, "access_token")(okHandler(t))

	call := func(tok string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v2/me", nil)
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := call("")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_MISSING", decodeCode(t, rec))
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	require.NoError(t, e.svc.Logout(context.Background(), "u1", "deviceA"))
	rec = call(a.AccessToken)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_INVALIDATED", decodeCode(t, rec))

	rec = call(b.AccessToken)
	require.Equal(t, http.StatusNoContent, rec.Code)

	require.NoError(t, e.store.SetStanding("u1", false, false))
	rec = call(b.AccessToken)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "LOGIN_DISABLED", decodeCode(t, rec))
}

func TestRequirePermission(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "viewer", "viewer", "users:view")
	e.seed(t, "root", permission.SuperAdminRole)

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), RequireAuth(e.svc, ""), RequirePermission("users:manage:lock"))

	call := func(id string) *httptest.ResponseRecorder {
		res := e.login(t, id, "")
		req := httptest.NewRequest(http.MethodPost, "/v2/admin/users/x/lock", nil)
		req.Header.Set("Authorization", "Bearer "+res.AccessToken)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := call("viewer")
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "PERMISSION_DENIED", decodeCode(t, rec))

	rec = call("root")
	require.Equal(t, http.StatusOK, rec.Code)

	// Sin RequireAuth no hay conjunto en el contexto
	rec = httptest.NewRecorder()
	RequirePermission("users:view")(okHandler(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "ana", "viewer", "users:view")
	e.seed(t, "root", permission.SuperAdminRole)
	roles := e.store.Roles()

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), RequireAuth(e.svc, ""), RequireRole(roles, "auditor"))

	for id, want := range map[string]int{"ana": http.StatusForbidden, "root": http.StatusOK} {
		res := e.login(t, id, "")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+res.AccessToken)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, id)
	}
}

func TestWithRateLimit(t *testing.T) {
	h := WithRateLimit(RateLimitConfig{Limiter: rate.NewMemoryLimiter(2, time.Minute)})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v2/auth/login", nil)
		req.RemoteAddr = "10.1.1.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestWithRateLimit_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := WithClientIP(nil)(WithRateLimit(RateLimitConfig{Limiter: rate.NewMemoryLimiter(2, time.Minute)})(ok))

	codes := make([]int, 0, 10)
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v2/auth/login", nil)
		req.RemoteAddr = "10.1.1.1:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429, 429, 429, 429, 429, 429, 429, 429}, codes)
}

func TestWithClientIP(t *testing.T) {
	_, proxies, err := net.ParseCIDR("10.0.0.0/8")
	require.NoError(t, err)
	trusted := []*net.IPNet{proxies}

	cases := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"sin proxy confiable", "198.51.100.9:4000", "203.0.113.5", "198.51.100.9"},
		{"proxy confiable", "10.0.0.2:4000", "203.0.113.5", "203.0.113.5"},
		{"cadena de proxies", "10.0.0.2:4000", "203.0.113.5, 10.0.0.7", "203.0.113.5"},
		{"cliente falsea el primer salto", "10.0.0.2:4000", "1.1.1.1, 203.0.113.5", "203.0.113.5"},
		{"valor basura", "10.0.0.2:4000", "not-an-ip", "10.0.0.2"},
		{"sin header", "10.0.0.2:4000", "", "10.0.0.2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			h := WithClientIP(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ClientIP(r)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWithRecoverAndRequestID(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), WithRequestID(), WithRecover())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", decodeCode(t, rec))
}
