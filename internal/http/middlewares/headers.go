package middlewares

import "net/http"

// WithSecurityHeaders inyecta cabeceras de seguridad por defecto para una API.
// HSTS solo se emite cuando el request llegó por TLS directo o el peer es un
// proxy confiable que declara https.
func WithSecurityHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-DNS-Prefetch-Control", "off")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
			h.Set("Cross-Origin-Resource-Policy", "same-site")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'self'")
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")

			if isHTTPS(r) {
				h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isHTTPS: X-Forwarded-Proto solo cuenta si vino de un proxy confiable.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	res, ok := ResolutionFrom(r.Context())
	return ok && res.PeerTrusted && r.Header.Get("X-Forwarded-Proto") == "https"
}

// WithNoStore agrega Cache-Control: no-store (tokens, cookies firmadas).
func WithNoStore() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			w.Header().Set("Pragma", "no-cache")
			next.ServeHTTP(w, r)
		})
	}
}
