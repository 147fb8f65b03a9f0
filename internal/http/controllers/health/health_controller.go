// Package health contiene el controller para health checks.
package health

import (
	"net/http"

	"github.com/dropDatabas3/hellojohn-guard/internal/http/helpers"
	svc "github.com/dropDatabas3/hellojohn-guard/internal/http/services/health"
)

// HealthController maneja GET /healthz.
type HealthController struct {
	service svc.HealthService
}

func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Healthz siempre responde 200; "degraded" indica dependencias caídas.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := c.service.Check(r.Context())
	if resp.SigningKeyID != "" {
		w.Header().Set("X-Signing-KID", resp.SigningKeyID)
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}
