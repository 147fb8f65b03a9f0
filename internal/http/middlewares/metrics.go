package middlewares

import (
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/hellojohn-guard/internal/metrics"
)

// WithMetrics instrumenta requests HTTP (contadores, latencia, inflight).
func WithMetrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method := strings.ToUpper(r.Method)
			pathLabel := metrics.NormalizePath(r.URL.Path)

			metrics.HTTPInflight.WithLabelValues(method, pathLabel).Inc()
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				metrics.HTTPInflight.WithLabelValues(method, pathLabel).Dec()
				metrics.ObserveRequest(method, pathLabel, rec.status, time.Since(start))
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
