package session

import (
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/hellojohn-guard/internal/http/dto/session"
	httperrors "github.com/dropDatabas3/hellojohn-guard/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-guard/internal/http/helpers"
	svc "github.com/dropDatabas3/hellojohn-guard/internal/http/services/session"
	"github.com/dropDatabas3/hellojohn-guard/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/signedtoken"
)

// CookieController maneja /v2/session/cookie: emite y verifica la cookie
// firmada de contexto de sesión.
type CookieController struct {
	service svc.CookieService
	codec   *signedtoken.Codec
	cookie  helpers.CookieConfig
}

func NewCookieController(service svc.CookieService, codec *signedtoken.Codec, cookie helpers.CookieConfig) *CookieController {
	return &CookieController{service: service, codec: codec, cookie: cookie}
}

// Issue maneja POST: firma los claims del body y setea la cookie.
func (c *CookieController) Issue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CookieController.Issue"))

	var req dto.CookieIssueRequest
	if appErr := helpers.ReadJSON(w, r, &req); appErr != nil {
		httperrors.WriteError(w, appErr)
		return
	}
	if err := c.service.CheckClaims(req.Claims); err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}

	tok, err := helpers.SetSignedCookie(w, c.codec, c.cookie, req.Claims)
	if err != nil {
		if errors.Is(err, helpers.ErrCookieTooLarge) {
			httperrors.WriteError(w, httperrors.ErrBodyTooLarge.WithDetail(err.Error()))
			return
		}
		log.Error("failed to sign session cookie", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	res := c.codec.Verify(signedtoken.FormatCookie, tok)
	resp := dto.CookieIssueResponse{KeyID: res.KeyID}
	if exp, ok := res.ExpiresAt(); ok {
		resp.ExpiresAt = exp
	}
	log.Debug("session cookie issued", logger.KeyID(res.KeyID))
	helpers.WriteJSON(w, http.StatusCreated, resp)
}

// Status maneja GET: verifica la cookie presente en el request.
// Una cookie inválida es 200 con valid=false; el caller decide.
func (c *CookieController) Status(w http.ResponseWriter, r *http.Request) {
	res := helpers.ReadSignedCookie(r, c.codec, c.cookie.Name)
	helpers.WriteJSON(w, http.StatusOK, c.service.Describe(r.Context(), res))
}

// Clear maneja DELETE: borra la cookie.
func (c *CookieController) Clear(w http.ResponseWriter, r *http.Request) {
	helpers.ClearCookie(w, c.cookie)
	w.WriteHeader(http.StatusNoContent)
}
