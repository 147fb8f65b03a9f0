// Package metrics define las métricas Prometheus del servicio. Vive aparte de
// internal/http para que los middlewares y los servicios de seguridad las
// compartan sin ciclos de import.
package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/hellojohn-guard/internal/security/reason"
)

// Componentes que reportan decisiones.
const (
	ComponentPeer     = "peer"
	ComponentCSRF     = "csrf"
	ComponentToken    = "signedtoken"
	ComponentRotation = "rotation"
)

// Resultados del rate limiter.
const (
	RateAllowed = "allowed"
	RateDenied  = "denied"
	RateError   = "error"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo por método y ruta",
	}, []string{"method", "path"})

	DecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guard_decisions_total",
		Help: "Decisiones de los componentes de confianza por código de razón",
	}, []string{"component", "reason"})

	RateLimitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guard_rate_limit_total",
		Help: "Resultados del rate limiter",
	}, []string{"result"})

	PanicsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_panics_recovered_total",
		Help: "Panics recuperados por path normalizado",
	}, []string{"path"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{HTTPRequestsTotal, HTTPRequestDuration, HTTPInflight, DecisionsTotal, RateLimitTotal, PanicsTotal}
}

// Register registra todas las métricas en reg (default si nil), ignorando duplicados.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler expone /metrics para el gatherer dado (default si nil).
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordDecision cuenta una decisión de un componente.
func RecordDecision(component string, code reason.Code) {
	DecisionsTotal.WithLabelValues(component, code.String()).Inc()
}

// RecordRateLimit cuenta el resultado de una consulta al limiter.
func RecordRateLimit(result string) {
	RateLimitTotal.WithLabelValues(result).Inc()
}

// RecordPanic cuenta un panic recuperado en path (ya normalizado).
func RecordPanic(path string) {
	PanicsTotal.WithLabelValues(path).Inc()
}

// ObserveRequest registra contador y latencia de un request terminado.
func ObserveRequest(method, path string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

var (
	uuidSegmentRE  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F-]{4}-[0-9a-fA-F-]{4,}$`)
	hexSegmentRE   = regexp.MustCompile(`^[0-9a-fA-F]{16,}$`)
	tokenSegmentRE = regexp.MustCompile(`^[A-Za-z0-9_-]{24,}$`)
)

// NormalizePath colapsa segmentos dinámicos (ids, tokens) en ":param" para
// mantener acotada la cardinalidad del label path.
func NormalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	if clean == "" {
		return "/"
	}

	var out []string
	for _, seg := range strings.Split(clean, "/") {
		if seg == "" {
			continue
		}
		if isDynamicSegment(seg) {
			out = append(out, ":param")
		} else {
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

func isDynamicSegment(seg string) bool {
	if len(seg) > 48 {
		return true
	}
	if uuidSegmentRE.MatchString(seg) || hexSegmentRE.MatchString(seg) || tokenSegmentRE.MatchString(seg) {
		return true
	}
	if _, err := strconv.Atoi(seg); err == nil {
		return true
	}
	return false
}
