// Package app arma la aplicación: componentes de confianza, services,
// controllers y router, a partir de la config ya validada.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/hellojohn-guard/internal/config"
	healthctrl "github.com/dropDatabas3/hellojohn-guard/internal/http/controllers/health"
	secctrl "github.com/dropDatabas3/hellojohn-guard/internal/http/controllers/security"
	sessctrl "github.com/dropDatabas3/hellojohn-guard/internal/http/controllers/session"
	"github.com/dropDatabas3/hellojohn-guard/internal/http/helpers"
	mw "github.com/dropDatabas3/hellojohn-guard/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-guard/internal/http/router"
	healthsvc "github.com/dropDatabas3/hellojohn-guard/internal/http/services/health"
	secsvc "github.com/dropDatabas3/hellojohn-guard/internal/http/services/security"
	sesssvc "github.com/dropDatabas3/hellojohn-guard/internal/http/services/session"
	"github.com/dropDatabas3/hellojohn-guard/internal/metrics"
	"github.com/dropDatabas3/hellojohn-guard/internal/rate"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/csrf"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/peer"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/signedtoken"
)

// Deps son dependencias externas opcionales.
type Deps struct {
	// Redis se usa si rate.backend=redis. nil => se crea desde config.
	Redis *rdb.Client
	// Registry/Gatherer de métricas; nil => default de prometheus.
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer
}

// App es la aplicación cableada.
type App struct {
	Handler  http.Handler
	Codec    *signedtoken.Codec
	Resolver *peer.Resolver
	CSRF     *csrf.Validator

	cleanups []func() error
}

// New construye la App. cfg debe venir de config.Load (ya validada).
func New(cfg *config.Config, deps Deps) (*App, error) {
	a := &App{}

	// 1. Componentes de confianza
	ring, err := cfg.KeyRing()
	if err != nil {
		return nil, fmt.Errorf("app: signing: %w", err)
	}
	if a.Codec, err = signedtoken.New(ring); err != nil {
		return nil, fmt.Errorf("app: codec: %w", err)
	}
	peerCfg, err := cfg.PeerConfig()
	if err != nil {
		return nil, fmt.Errorf("app: trust: %w", err)
	}
	if a.Resolver, err = peer.NewResolver(peerCfg); err != nil {
		return nil, fmt.Errorf("app: resolver: %w", err)
	}
	a.CSRF, err = csrf.NewValidator(csrf.Config{
		AllowedOrigins: cfg.CSRF.AllowedOrigins,
		TokenTTL:       cfg.CSRF.TokenTTL,
	}, a.Codec)
	if err != nil {
		return nil, fmt.Errorf("app: csrf: %w", err)
	}

	// 2. Rate limiter + health checks
	checks := map[string]healthsvc.Checker{}
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		switch cfg.Rate.Backend {
		case "redis":
			client := deps.Redis
			if client == nil {
				client = rdb.NewClient(&rdb.Options{Addr: cfg.Rate.Redis.Addr, DB: cfg.Rate.Redis.DB})
				a.cleanups = append(a.cleanups, client.Close)
			}
			limiter = rate.NewRedisLimiter(client, cfg.Rate.Redis.Prefix, cfg.Rate.MaxRequests, cfg.Rate.Window)
			checks["rate.redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		default:
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window)
		}
	}

	// 3. Métricas
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		if err := metrics.Register(deps.Registry); err != nil {
			return nil, fmt.Errorf("app: metrics: %w", err)
		}
		metricsHandler = metrics.Handler(deps.Gatherer)
	}

	// 4. Services + controllers
	secServices := secsvc.NewServices(secsvc.Deps{CSRFValidator: a.CSRF})
	sessServices := sesssvc.NewServices()
	healthService := healthsvc.NewHealthService(healthsvc.Deps{
		SigningKeyID: ring.Current.ID,
		Checks:       checks,
	})

	// 5. Router
	a.Handler = router.New(router.Deps{
		Resolver:      a.Resolver,
		CSRFValidator: a.CSRF,
		CSRFHeader:    cfg.CSRF.HeaderName,
		CSRFFormField: cfg.CSRF.FormField,
		RateLimit: mw.RateLimitConfig{
			Limiter:   limiter,
			Whitelist: []string{"/healthz", cfg.Metrics.Path},
		},
		MetricsHandler: metricsHandler,
		MetricsPath:    cfg.Metrics.Path,
		Health:         healthctrl.NewHealthController(healthService),
		Security:       secctrl.NewControllers(secServices, cfg.CSRF.HeaderName),
		Session: sessctrl.NewControllers(sessServices, sessctrl.ControllerDeps{
			Codec: a.Codec,
			Cookie: helpers.CookieConfig{
				Name:     cfg.SessionCookie.Name,
				Domain:   cfg.SessionCookie.Domain,
				SameSite: cfg.SessionCookie.SameSite,
				Secure:   cfg.SessionCookie.Secure,
				TTL:      cfg.SessionCookie.TTL,
			},
		}),
	})

	return a, nil
}

// Close libera recursos creados por New (clientes redis).
func (a *App) Close() error {
	var first error
	for _, c := range a.cleanups {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
