package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"":               "/",
		"/v2/auth/login": "/v2/auth/login",
		"/v2/admin/users/01HZX3K5V9Q8W2N6M4B7C1D0EF/lock": "/v2/admin/users/:param/lock",
		"/v2/admin/users/42/unlock":                       "/v2/admin/users/:param/unlock",
		"/v2/me?x=1":                                      "/v2/me",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizePath(in), in)
	}
}

func TestRegisterAndRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := Register(Config{Registry: reg, Gatherer: reg})
	require.NoError(t, err)

	AuthRecorder{}.AuthEvent("login", "success")
	done := RequestStarted(http.MethodPost, "/v2/auth/login")
	done(http.StatusOK)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, `auth_events_total{event="login",result="success"} 1`), body)
	require.True(t, strings.Contains(body, `http_requests_total{method="POST",path="/v2/auth/login",status="200"} 1`), body)
}
