// Package reason define los códigos de decisión compartidos por los componentes
// de confianza (peer, csrf, signedtoken, rotation).
//
// Todos los componentes fallan cerrados: ante cualquier error devuelven un Code
// distinto de OK junto con el resultado menos confiable.
package reason

// Code es un código de decisión legible por máquina.
type Code string

const (
	OK                   Code = "ok"
	MalformedInput       Code = "malformed-input"
	UntrustedSource      Code = "untrusted-source"
	OriginMismatch       Code = "origin-mismatch"
	BadSignature         Code = "bad-signature"
	KeyIDMismatch        Code = "key-id-mismatch"
	Expired              Code = "expired"
	RotationNotSatisfied Code = "rotation-not-satisfied"
)

func (c Code) String() string { return string(c) }

// IsOK reporta si el código representa una decisión positiva.
func (c Code) IsOK() bool { return c == OK }
