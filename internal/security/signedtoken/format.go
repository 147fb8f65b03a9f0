package signedtoken

import "github.com/dropDatabas3/hellojohn-guard/internal/security/reason"

// Format selecciona el wire format. Ambos comparten el mismo núcleo HMAC.
type Format int

const (
	// FormatCookie: keyId.base64url(payload).hex(sig), payload con "kid".
	FormatCookie Format = iota
	// FormatCSRF: version:base64url(payload):hex(sig), payload con "ver".
	FormatCSRF
)

const (
	ClaimIssuedAt  = "iat"
	ClaimExpiresAt = "exp"
	ClaimKeyID     = "kid"
	ClaimVersion   = "ver"
)

func (f Format) String() string {
	switch f {
	case FormatCookie:
		return "cookie"
	case FormatCSRF:
		return "csrf"
	default:
		return "unknown"
	}
}

func (f Format) separator() string {
	if f == FormatCSRF {
		return ":"
	}
	return "."
}

func (f Format) tagClaim() string {
	if f == FormatCSRF {
		return ClaimVersion
	}
	return ClaimKeyID
}

// Reason es el motivo de un token inválido.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonMalformed     Reason = "malformed"
	ReasonKeyIDMismatch Reason = "key-id-mismatch"
	ReasonExpired       Reason = "expired"
	ReasonBadSignature  Reason = "bad-signature"
)

// Code traduce el motivo a la taxonomía compartida.
func (r Reason) Code() reason.Code {
	switch r {
	case ReasonNone:
		return reason.OK
	case ReasonKeyIDMismatch:
		return reason.KeyIDMismatch
	case ReasonExpired:
		return reason.Expired
	case ReasonBadSignature:
		return reason.BadSignature
	default:
		return reason.MalformedInput
	}
}
