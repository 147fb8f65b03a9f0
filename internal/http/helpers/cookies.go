package helpers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/hellojohn-guard/internal/security/signedtoken"
)

// ErrCookieTooLarge: el token firmado no entra en una cookie verificable.
var ErrCookieTooLarge = errors.New("helpers: signed cookie exceeds max token length")

// CookieConfig agrupa los atributos de una cookie firmada.
type CookieConfig struct {
	Name     string
	Domain   string
	SameSite string
	Secure   bool
	TTL      time.Duration
}

func ParseSameSite(s string) http.SameSite {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func BuildCookie(name, value, domain, sameSite string, secure bool, ttl time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: ParseSameSite(sameSite),
	}
	// SameSite=None sin Secure lo descartan los browsers
	if ck.SameSite == http.SameSiteNoneMode {
		ck.Secure = true
	}
	if strings.TrimSpace(domain) != "" {
		ck.Domain = domain
	}
	if ttl > 0 {
		ck.Expires = time.Now().Add(ttl).UTC()
		ck.MaxAge = int(ttl.Seconds())
	}
	return ck
}

func BuildDeletionCookie(name, domain, sameSite string, secure bool) *http.Cookie {
	ck := BuildCookie(name, "", domain, sameSite, secure, 0)
	ck.Expires = time.Unix(0, 0).UTC()
	ck.MaxAge = -1
	return ck
}

// SetSignedCookie firma payload en formato cookie (kid.payload.sig) y lo setea.
// La expiración del token coincide con el TTL de la cookie.
func SetSignedCookie(w http.ResponseWriter, codec *signedtoken.Codec, cfg CookieConfig, payload map[string]any) (string, error) {
	var opts []signedtoken.SignOption
	if cfg.TTL > 0 {
		opts = append(opts, signedtoken.ExpiresIn(cfg.TTL))
	}
	tok, err := codec.Sign(signedtoken.FormatCookie, payload, opts...)
	if err != nil {
		return "", err
	}
	if len(tok) > signedtoken.MaxTokenLen {
		return "", ErrCookieTooLarge
	}
	http.SetCookie(w, BuildCookie(cfg.Name, tok, cfg.Domain, cfg.SameSite, cfg.Secure, cfg.TTL))
	return tok, nil
}

// ReadSignedCookie verifica la cookie name. Cookie ausente => malformed.
func ReadSignedCookie(r *http.Request, codec *signedtoken.Codec, name string) signedtoken.Result {
	ck, err := r.Cookie(name)
	if err != nil || strings.TrimSpace(ck.Value) == "" {
		return signedtoken.Result{Reason: signedtoken.ReasonMalformed}
	}
	return codec.Verify(signedtoken.FormatCookie, ck.Value)
}

// ClearCookie borra la cookie con los mismos atributos con que se emitió.
func ClearCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, BuildDeletionCookie(cfg.Name, cfg.Domain, cfg.SameSite, cfg.Secure))
}
