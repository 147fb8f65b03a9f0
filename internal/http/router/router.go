// Package router arma el árbol de rutas chi con sus cadenas de middlewares.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/dropDatabas3/hellojohn-guard/internal/http/controllers/health"
	secctrl "github.com/dropDatabas3/hellojohn-guard/internal/http/controllers/security"
	sessctrl "github.com/dropDatabas3/hellojohn-guard/internal/http/controllers/session"
	httperrors "github.com/dropDatabas3/hellojohn-guard/internal/http/errors"
	mw "github.com/dropDatabas3/hellojohn-guard/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/csrf"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/peer"
)

// Deps contiene todo lo que el router necesita.
type Deps struct {
	Resolver      *peer.Resolver
	CSRFValidator *csrf.Validator
	CSRFHeader    string
	CSRFFormField string

	// RateLimit.Limiter nil => sin rate limiting
	RateLimit mw.RateLimitConfig

	// MetricsHandler nil => /metrics no se expone
	MetricsHandler http.Handler
	MetricsPath    string

	Health   *healthctrl.HealthController
	Security *secctrl.Controllers
	Session  *sessctrl.Controllers
}

// New construye el handler raíz.
//
// Orden global: recover -> request id -> client ip -> logging -> metrics ->
// security headers -> cors. WithClientIP va antes que logging y rate limit
// para que ambos usen la IP ya resuelta.
func New(d Deps) http.Handler {
	resolver := d.Resolver
	if resolver == nil {
		// sin proxies confiables: siempre la IP del peer
		resolver, _ = peer.NewResolver(peer.Config{})
	}

	r := chi.NewRouter()
	var cors mw.Middleware
	if d.CSRFValidator != nil {
		cors = mw.WithCORS(d.CSRFValidator.OriginAllowed)
	}
	r.Use(mw.Stack(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithClientIP(resolver),
		mw.WithLogging(),
		mw.WithMetrics(),
		mw.WithSecurityHeaders(),
		cors,
	)...)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Infra: sin rate limit ni CSRF
	if d.Health != nil {
		r.Get("/healthz", d.Health.Healthz)
	}
	if d.MetricsHandler != nil {
		path := d.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, d.MetricsHandler)
	}

	r.Route("/v2", func(r chi.Router) {
		r.Use(mw.Stack(mw.WithRateLimit(d.RateLimit), mw.WithNoStore())...)

		if d.Security != nil {
			r.Get("/csrf", d.Security.CSRF.GetToken)
			r.Get("/client-ip", d.Security.ClientIP.Get)
		}

		if d.Session != nil {
			r.Route("/session", func(r chi.Router) {
				r.Use(mw.WithCSRF(mw.CSRFConfig{
					Validator:  d.CSRFValidator,
					HeaderName: d.CSRFHeader,
					FormField:  d.CSRFFormField,
				}))
				r.Post("/rotation/verify", d.Session.Rotation.Verify)
				r.Post("/cookie", d.Session.Cookie.Issue)
				r.Get("/cookie", d.Session.Cookie.Status)
				r.Delete("/cookie", d.Session.Cookie.Clear)
			})
		}
	})

	return r
}
