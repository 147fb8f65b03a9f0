package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/hellojohn-guard/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-guard/internal/metrics"
	"github.com/dropDatabas3/hellojohn-guard/internal/observability/logger"
)

// WithRecover captura panics y responde 500. Un panic dentro de un guard
// (CSRF, rate limit) corta el request: nunca se sigue al handler.
// http.ErrAbortHandler se re-lanza para que net/http aborte la conexión.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				path := metrics.NormalizePath(r.URL.Path)
				metrics.RecordPanic(path)
				logger.From(r.Context()).Error("panic recovered",
					logger.Op("recover"),
					logger.RequestID(GetRequestID(r.Context())),
					logger.ClientIP(ClientIPFrom(r.Context())),
					logger.Method(r.Method),
					logger.Path(path),
					logger.Any("panic", rec),
				)
				errors.WriteError(w, errors.ErrInternalServerError.WithDetail("panic recovered"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
