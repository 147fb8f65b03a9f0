package errors

import (
	"encoding/json"
	"net/http"
)

// errorResponse controla exactamente qué campos llegan al cliente.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe la respuesta JSON de un error.
//   - errores que no son *AppError salen como 500 sin exponer la causa
//   - en 5xx el detalle tampoco sale (solo logs)
//   - las decisiones de seguridad nunca se cachean
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{Code: appErr.Code, Message: appErr.Message}
	if appErr.HTTPStatus < http.StatusInternalServerError {
		resp.Detail = appErr.Detail
	}

	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
