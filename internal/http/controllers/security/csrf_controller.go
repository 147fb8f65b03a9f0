package security

import (
	"net/http"

	httperrors "github.com/dropDatabas3/hellojohn-guard/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-guard/internal/http/helpers"
	svc "github.com/dropDatabas3/hellojohn-guard/internal/http/services/security"
	"github.com/dropDatabas3/hellojohn-guard/internal/observability/logger"
)

// CSRFController maneja GET /v2/csrf.
type CSRFController struct {
	service    svc.CSRFService
	headerName string
}

// NewCSRFController crea el controller. headerName es el header donde el
// cliente debe reenviar el token (también se devuelve en esa cabecera).
func NewCSRFController(service svc.CSRFService, headerName string) *CSRFController {
	if headerName == "" {
		headerName = "X-CSRF-Token"
	}
	return &CSRFController{service: service, headerName: headerName}
}

// GetToken emite un token de fallback para clientes que no envían Origin/Referer.
func (c *CSRFController) GetToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CSRFController.GetToken"))

	resp, err := c.service.IssueToken(ctx)
	if err != nil {
		log.Error("failed to issue csrf token", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithCause(err))
		return
	}

	w.Header().Set(c.headerName, resp.CSRFToken)
	helpers.WriteJSON(w, http.StatusOK, resp)
}
