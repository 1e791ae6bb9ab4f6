package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/orgauth/internal/metrics"
)

// WithMetrics instrumenta requests con Prometheus (contadores, latencia, inflight).
func WithMetrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			done := metrics.RequestStarted(r.Method, r.URL.Path)
			defer func() { done(rec.status) }()
			next.ServeHTTP(rec, r)
		})
	}
}
