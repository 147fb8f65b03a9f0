package errors

import "github.com/dropDatabas3/hellojohn-guard/internal/security/reason"

// FromReason traduce un código de la taxonomía de seguridad a un AppError.
// reason.OK devuelve nil. El detalle lleva el código para que el cliente
// pueda distinguir sin exponer más que eso. Los 401 usan el mensaje público
// genérico de PublicAuthMessage.
func FromReason(code reason.Code) *AppError {
	switch code {
	case reason.OK:
		return nil
	case reason.MalformedInput:
		return ErrMalformedInput.WithDetail(code.String())
	case reason.UntrustedSource:
		return ErrUntrustedSource.WithDetail(code.String())
	case reason.OriginMismatch:
		return ErrCSRFRejected.WithDetail(code.String())
	case reason.Expired:
		return publicAuth(ErrTokenExpired, "token_expired", code)
	case reason.BadSignature, reason.KeyIDMismatch:
		return publicAuth(ErrTokenInvalid, code.String(), code)
	case reason.RotationNotSatisfied:
		return ErrRotationNotSatisfied.WithDetail(code.String())
	default:
		return ErrInternalServerError.WithDetail(code.String())
	}
}

// FromCSRFReason mapea el rechazo del validador CSRF. Cualquier causa (origin,
// token ausente, vencido o adulterado) responde 403 CSRF_REJECTED: el cliente
// se recupera pidiendo un token nuevo, no re-autenticando.
func FromCSRFReason(code reason.Code) *AppError {
	appErr := FromReason(code)
	if appErr == nil || appErr.Code == ErrCSRFRejected.Code {
		return appErr
	}
	return ErrCSRFRejected.WithDetail(appErr.Detail)
}

func publicAuth(base *AppError, cause string, code reason.Code) *AppError {
	e := base.WithDetail(code.String())
	e.Message = PublicAuthMessage(cause)
	return e
}
