package security

import (
	"net/http"

	dto "github.com/dropDatabas3/hellojohn-guard/internal/http/dto/security"
	httperrors "github.com/dropDatabas3/hellojohn-guard/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-guard/internal/http/helpers"
	mw "github.com/dropDatabas3/hellojohn-guard/internal/http/middlewares"
)

// ClientIPController maneja GET /v2/client-ip. Útil para verificar la
// configuración de proxies confiables desde el propio despliegue.
type ClientIPController struct{}

func NewClientIPController() *ClientIPController {
	return &ClientIPController{}
}

func (c *ClientIPController) Get(w http.ResponseWriter, r *http.Request) {
	res, ok := mw.ResolutionFrom(r.Context())
	if !ok {
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("client ip not resolved"))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ClientIPResponse{
		ClientIP:    res.IP,
		PeerTrusted: res.PeerTrusted,
		FromHeader:  res.FromHeader,
		Reason:      res.Code.String(),
	})
}
