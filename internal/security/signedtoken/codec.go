// Package signedtoken firma y verifica tokens de integridad compactos con
// HMAC-SHA256 y soporte de rotación de claves (current + previous).
//
// Dos wire formats comparten el mismo núcleo:
//
//	cookie: <kid>.<base64url(payload)>.<hex(hmac)>
//	csrf:   <version>:<base64url(payload)>:<hex(hmac)>
//
// La firma se calcula sobre los bytes exactos del payload serializado.
package signedtoken

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultVersion es el tag del formato CSRF.
	DefaultVersion = "v1"
	// MaxTokenLen acota el input antes de cualquier decodificación.
	MaxTokenLen = 4096
)

// hmacCore es el primitivo compartido por ambos formatos (comparación en tiempo constante).
var hmacCore = jwt.SigningMethodHS256

// Result es el resultado tipado de Verify.
type Result struct {
	Valid   bool
	Payload map[string]any // números como float64 (semántica de encoding/json)
	Reason  Reason
	KeyID   string // clave que validó la firma
}

// IssuedAt devuelve el claim iat.
func (r Result) IssuedAt() time.Time {
	if v, ok := numericClaim(r.Payload, ClaimIssuedAt); ok {
		return time.Unix(v, 0).UTC()
	}
	return time.Time{}
}

// ExpiresAt devuelve el claim exp si existe.
func (r Result) ExpiresAt() (time.Time, bool) {
	if v, ok := numericClaim(r.Payload, ClaimExpiresAt); ok {
		return time.Unix(v, 0).UTC(), true
	}
	return time.Time{}, false
}

// String devuelve un claim string del payload.
func (r Result) String(key string) string {
	if r.Payload == nil {
		return ""
	}
	s, _ := r.Payload[key].(string)
	return s
}

// Codec es inmutable; el KeyRing se inyecta en construcción.
type Codec struct {
	ring    KeyRing
	version string
	now     func() time.Time
}

// Option configura el Codec.
type Option func(*Codec)

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithVersion cambia el tag del formato CSRF.
func WithVersion(v string) Option {
	return func(c *Codec) {
		if v = strings.TrimSpace(v); v != "" {
			c.version = v
		}
	}
}

// New valida el ring y construye el Codec.
func New(ring KeyRing, opts ...Option) (*Codec, error) {
	if err := ring.Validate(); err != nil {
		return nil, err
	}
	c := &Codec{ring: ring, version: DefaultVersion, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	if strings.ContainsAny(c.version, ".: ") {
		return nil, fmt.Errorf("signedtoken: invalid version tag %q", c.version)
	}
	return c, nil
}

// KeyRing expone el ring configurado.
func (c *Codec) KeyRing() KeyRing { return c.ring }

// Version expone el tag CSRF.
func (c *Codec) Version() string { return c.version }

// Now devuelve la hora según el reloj del Codec.
func (c *Codec) Now() time.Time { return c.now() }

type signConfig struct {
	expiresAt time.Time
	ttl       time.Duration
}

// SignOption configura una firma puntual.
type SignOption func(*signConfig)

// ExpiresIn agrega exp = iat + d.
func ExpiresIn(d time.Duration) SignOption {
	return func(sc *signConfig) { sc.ttl = d }
}

// ExpiresAt agrega exp absoluto.
func ExpiresAt(t time.Time) SignOption {
	return func(sc *signConfig) { sc.expiresAt = t }
}

// Sign inyecta iat y el tag del formato, serializa y firma con la clave actual.
func (c *Codec) Sign(format Format, payload map[string]any, opts ...SignOption) (string, error) {
	var sc signConfig
	for _, o := range opts {
		o(&sc)
	}

	now := c.now()
	claims := make(map[string]any, len(payload)+3)
	for k, v := range payload {
		claims[k] = v
	}
	claims[ClaimIssuedAt] = now.Unix()

	tag := c.ring.Current.ID
	if format == FormatCSRF {
		tag = c.version
	}
	claims[format.tagClaim()] = tag

	switch {
	case !sc.expiresAt.IsZero():
		claims[ClaimExpiresAt] = sc.expiresAt.Unix()
	case sc.ttl > 0:
		claims[ClaimExpiresAt] = now.Add(sc.ttl).Unix()
	}

	// encoding/json ordena las keys del map: serialización determinística.
	body, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("signedtoken: marshal payload: %w", err)
	}
	sig, err := hmacCore.Sign(string(body), c.ring.Current.Secret)
	if err != nil {
		return "", fmt.Errorf("signedtoken: sign: %w", err)
	}

	sep := format.separator()
	return tag + sep + base64.RawURLEncoding.EncodeToString(body) + sep + hex.EncodeToString(sig), nil
}

// Verify aplica, en orden: forma, decodificación, consistencia del tag,
// expiración y firma (clave actual y luego la anterior).
func (c *Codec) Verify(format Format, token string) Result {
	if token == "" || len(token) > MaxTokenLen {
		return invalid(ReasonMalformed)
	}
	parts := strings.Split(token, format.separator())
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return invalid(ReasonMalformed)
	}

	body, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return invalid(ReasonMalformed)
	}
	payload, err := decodePayload(body)
	if err != nil {
		return invalid(ReasonMalformed)
	}
	if _, ok := numericClaim(payload, ClaimIssuedAt); !ok {
		return invalid(ReasonMalformed)
	}

	tag, _ := payload[format.tagClaim()].(string)
	if tag != parts[0] {
		return invalid(ReasonKeyIDMismatch)
	}
	if format == FormatCSRF && tag != c.version {
		return invalid(ReasonMalformed)
	}

	if _, present := payload[ClaimExpiresAt]; present {
		exp, ok := numericClaim(payload, ClaimExpiresAt)
		if !ok {
			return invalid(ReasonMalformed)
		}
		if c.now().After(time.Unix(exp, 0)) {
			return invalid(ReasonExpired)
		}
	}

	sig, err := hex.DecodeString(parts[2])
	if err != nil {
		return invalid(ReasonMalformed)
	}
	for _, k := range c.ring.candidates() {
		if hmacCore.Verify(string(body), sig, k.Secret) == nil {
			return Result{Valid: true, Payload: plainNumbers(payload).(map[string]any), KeyID: k.ID}
		}
	}
	return invalid(ReasonBadSignature)
}

func invalid(r Reason) Result { return Result{Reason: r} }

func decodePayload(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("signedtoken: payload is not an object")
	}
	if dec.More() {
		return nil, fmt.Errorf("signedtoken: trailing data")
	}
	return m, nil
}

// plainNumbers reemplaza json.Number por float64, igual que un json.Unmarshal
// sin UseNumber. UseNumber solo se necesita para leer iat/exp sin redondeos.
func plainNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return string(t)
		}
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = plainNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = plainNumbers(e)
		}
		return t
	default:
		return v
	}
}

func numericClaim(m map[string]any, key string) (int64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := strconv.ParseFloat(string(v), 64)
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// Sign firma un payload en formato cookie con el ring dado.
func Sign(payload map[string]any, ring KeyRing) (string, error) {
	c, err := New(ring)
	if err != nil {
		return "", err
	}
	return c.Sign(FormatCookie, payload)
}

// Verify verifica un token formato cookie. Un ring inválido nunca valida nada.
func Verify(token string, ring KeyRing) Result {
	c, err := New(ring)
	if err != nil {
		return invalid(ReasonBadSignature)
	}
	return c.Verify(FormatCookie, token)
}
