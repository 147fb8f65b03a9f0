package middlewares

import (
	"mime"
	"net/http"
	"strings"

	"github.com/dropDatabas3/hellojohn-guard/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-guard/internal/metrics"
	"github.com/dropDatabas3/hellojohn-guard/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/csrf"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/reason"
	"github.com/dropDatabas3/hellojohn-guard/internal/util"
)

// maxCSRFFormBytes acota el body leído para buscar el token en formularios.
const maxCSRFFormBytes = 64 << 10

// CSRFConfig configura el middleware CSRF.
type CSRFConfig struct {
	Validator  *csrf.Validator
	HeaderName string // Default: "X-CSRF-Token"
	FormField  string // Default: "csrf_token"
}

// WithCSRF valida Origin/Referer (o el token de fallback) en métodos inseguros.
//   - Si Authorization: Bearer está presente, el check se salta (no es flujo de cookies).
//   - El token se busca primero en el header y después en el campo de formulario.
//   - Rechazo => 403 CSRF_REJECTED con el código de razón en detail.
func WithCSRF(cfg CSRFConfig) Middleware {
	headerName := strings.TrimSpace(cfg.HeaderName)
	if headerName == "" {
		headerName = "X-CSRF-Token"
	}
	formField := strings.TrimSpace(cfg.FormField)
	if formField == "" {
		formField = "csrf_token"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isUnsafe(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if ah := strings.TrimSpace(r.Header.Get("Authorization")); strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			token := strings.TrimSpace(r.Header.Get(headerName))
			if token == "" && isForm(r) {
				r.Body = http.MaxBytesReader(w, r.Body, maxCSRFFormBytes)
				token = strings.TrimSpace(r.PostFormValue(formField))
			}

			d := csrf.Decision{Code: reason.MalformedInput}
			if cfg.Validator != nil {
				d = cfg.Validator.Check(r.Header.Get("Origin"), r.Header.Get("Referer"), token)
			}
			metrics.RecordDecision(metrics.ComponentCSRF, d.Code)
			if !d.Accepted {
				logger.From(r.Context()).Warn("csrf rejected",
					logger.Component("csrf"),
					logger.Reason(d.Code.String()),
					logger.Via(d.Via),
					logger.Origin(r.Header.Get("Origin")),
					logger.String("token", util.MaskToken(token)),
				)
				errors.WriteError(w, errors.FromCSRFReason(d.Code))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isUnsafe(m string) bool {
	switch strings.ToUpper(m) {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

func isForm(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data"
}
