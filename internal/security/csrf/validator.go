// Package csrf decide si un request mutante puede aceptarse como same-origin.
//
// Con Origin y Referer presentes ambos deben coincidir con el allow-list. Si el
// navegador omitió los dos, se exige un token firmado (formato CSRF del
// signedtoken.Codec). Cualquier otra combinación se rechaza.
package csrf

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/hellojohn-guard/internal/security/reason"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/signedtoken"
)

// DefaultTokenTTL es la vida del token de fallback.
const DefaultTokenTTL = 30 * time.Minute

const (
	ViaHeaders = "headers"
	ViaToken   = "token"
)

// Config es la configuración estática del validador.
type Config struct {
	AllowedOrigins []string
	TokenTTL       time.Duration
}

// Decision es el resultado de Check.
type Decision struct {
	Accepted bool
	Code     reason.Code
	Via      string
}

// Validator es inmutable y seguro para uso concurrente.
type Validator struct {
	rules []originRule
	codec *signedtoken.Codec
	ttl   time.Duration
}

// NewValidator pre-parsea el allow-list. codec puede ser nil: en ese caso el
// camino de fallback siempre rechaza.
func NewValidator(cfg Config, codec *signedtoken.Codec) (*Validator, error) {
	rules := make([]originRule, 0, len(cfg.AllowedOrigins))
	for _, e := range cfg.AllowedOrigins {
		r, err := parseRule(e)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Validator{rules: rules, codec: codec, ttl: ttl}, nil
}

// Validate devuelve solo accept/reject.
func (v *Validator) Validate(origin, referer, fallbackToken string) bool {
	return v.Check(origin, referer, fallbackToken).Accepted
}

// Check aplica la tabla de decisión. Header ausente == string vacío.
func (v *Validator) Check(origin, referer, fallbackToken string) Decision {
	hasOrigin := strings.TrimSpace(origin) != ""
	hasReferer := strings.TrimSpace(referer) != ""

	switch {
	case !hasOrigin && !hasReferer:
		return v.checkToken(fallbackToken)
	case hasOrigin != hasReferer:
		return Decision{Code: reason.OriginMismatch, Via: ViaHeaders}
	}

	o, ok := parseOrigin(origin, false)
	if !ok {
		return Decision{Code: reason.MalformedInput, Via: ViaHeaders}
	}
	ref, ok := parseOrigin(referer, true)
	if !ok {
		return Decision{Code: reason.MalformedInput, Via: ViaHeaders}
	}
	if !v.allowed(o) || !v.allowed(ref) {
		return Decision{Code: reason.OriginMismatch, Via: ViaHeaders}
	}
	return Decision{Accepted: true, Code: reason.OK, Via: ViaHeaders}
}

func (v *Validator) checkToken(token string) Decision {
	token = strings.TrimSpace(token)
	if token == "" || v.codec == nil {
		return Decision{Code: reason.MalformedInput, Via: ViaToken}
	}
	res := v.codec.Verify(signedtoken.FormatCSRF, token)
	if !res.Valid {
		return Decision{Code: res.Reason.Code(), Via: ViaToken}
	}
	return Decision{Accepted: true, Code: reason.OK, Via: ViaToken}
}

func (v *Validator) allowed(o origin) bool {
	for _, r := range v.rules {
		if r.matches(o) {
			return true
		}
	}
	return false
}

// OriginAllowed indica si un valor de header Origin está en el allow-list.
// Lo usa CORS; no es una decisión CSRF.
func (v *Validator) OriginAllowed(rawOrigin string) bool {
	o, ok := parseOrigin(rawOrigin, false)
	return ok && v.allowed(o)
}

// IssueToken emite un token de fallback con nonce y expiración.
func (v *Validator) IssueToken() (string, time.Time, error) {
	if v.codec == nil {
		return "", time.Time{}, fmt.Errorf("csrf: no signing codec configured")
	}
	exp := v.codec.Now().Add(v.ttl).Truncate(time.Second)
	tok, err := v.codec.Sign(signedtoken.FormatCSRF,
		map[string]any{"nonce": uuid.NewString()},
		signedtoken.ExpiresAt(exp),
	)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, exp.UTC(), nil
}

// TTL expone la vida configurada del token.
func (v *Validator) TTL() time.Duration { return v.ttl }

// ValidateCSRF es la forma funcional. Un allow-list inválido siempre rechaza.
func ValidateCSRF(origin, referer string, allowedOrigins []string, codec *signedtoken.Codec, fallbackToken string) bool {
	v, err := NewValidator(Config{AllowedOrigins: allowedOrigins}, codec)
	if err != nil {
		return false
	}
	return v.Validate(origin, referer, fallbackToken)
}
