package middlewares

import (
	"net"
	"net/http"

	"github.com/dropDatabas3/hellojohn-guard/internal/metrics"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/peer"
)

// peerIP extrae la IP del peer TCP de RemoteAddr.
func peerIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// WithClientIP resuelve la IP real del cliente una sola vez por request.
// Solo se lee X-Forwarded-For si el peer directo es un proxy confiable.
// El resto de la cadena usa ClientIPFrom(ctx); nunca el header crudo.
func WithClientIP(resolver *peer.Resolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := resolver.Resolve(peerIP(r), r.Header.Get("X-Forwarded-For"))
			metrics.RecordDecision(metrics.ComponentPeer, res.Code)
			next.ServeHTTP(w, r.WithContext(setResolution(r.Context(), res)))
		})
	}
}
