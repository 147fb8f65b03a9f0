package session

import (
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/hellojohn-guard/internal/http/dto/session"
	httperrors "github.com/dropDatabas3/hellojohn-guard/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-guard/internal/http/helpers"
	svc "github.com/dropDatabas3/hellojohn-guard/internal/http/services/session"
	"github.com/dropDatabas3/hellojohn-guard/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/reason"
)

// RotationController maneja POST /v2/session/rotation/verify.
type RotationController struct {
	service svc.RotationService
}

func NewRotationController(service svc.RotationService) *RotationController {
	return &RotationController{service: service}
}

// Verify responde 200 con el detalle si la sesión rotó, 409 si no.
func (c *RotationController) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RotationController.Verify"))

	var req dto.RotationVerifyRequest
	if appErr := helpers.ReadJSON(w, r, &req); appErr != nil {
		httperrors.WriteError(w, appErr)
		return
	}

	resp, err := c.service.Verify(ctx, req)
	if errors.Is(err, svc.ErrRotationNotSatisfied) {
		log.Info("rotation check failed", logger.Bool("refresh_changed", resp.RefreshChanged), logger.Bool("jti_changed", resp.JTIChanged))
		httperrors.WriteError(w, httperrors.FromReason(reason.RotationNotSatisfied))
		return
	}
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}
