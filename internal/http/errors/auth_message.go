package errors

import "strings"

// Mensajes públicos de autenticación. Varias causas internas colapsan en el
// mismo mensaje para no revelar si una cuenta existe.
const (
	MsgInvalidCredentials = "invalid email or password"
	MsgAccountUnavailable = "account temporarily unavailable"
	MsgVerifyEmail        = "please verify your email address"
	MsgTooManyAttempts    = "too many attempts, try again later"
	MsgSessionExpired     = "session expired, please sign in again"
	MsgAuthFailed         = "authentication failed"
)

var publicAuthMessages = map[string]string{
	"wrong_password":      MsgInvalidCredentials,
	"user_not_found":      MsgInvalidCredentials,
	"invalid_credentials": MsgInvalidCredentials,
	"no_password":         MsgInvalidCredentials,

	"account_locked":   MsgAccountUnavailable,
	"account_disabled": MsgAccountUnavailable,

	"email_not_verified": MsgVerifyEmail,

	"rate_limited":      MsgTooManyAttempts,
	"too_many_attempts": MsgTooManyAttempts,

	"session_expired": MsgSessionExpired,
	"token_expired":   MsgSessionExpired,
}

// PublicAuthMessage devuelve el mensaje genérico para una causa interna.
// Causas desconocidas devuelven MsgAuthFailed.
func PublicAuthMessage(cause string) string {
	if msg, ok := publicAuthMessages[strings.ToLower(strings.TrimSpace(cause))]; ok {
		return msg
	}
	return MsgAuthFailed
}
