package signedtoken

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// MinSecretLen es el mínimo aceptado para secretos HMAC-SHA256.
const MinSecretLen = 32

var (
	ErrNoCurrentKey  = errors.New("signedtoken: current key not configured")
	ErrInvalidKeyID  = errors.New("signedtoken: invalid key id")
	ErrWeakSecret    = fmt.Errorf("signedtoken: secret must be at least %d bytes", MinSecretLen)
	ErrDuplicateKeys = errors.New("signedtoken: current and previous key ids must differ")
)

// Key es un secreto simétrico con su identificador.
type Key struct {
	ID     string
	Secret []byte
}

// KeyRing contiene la clave activa y, opcionalmente, la anterior.
// Previous solo se usa para verificar tokens emitidos antes de la última rotación.
type KeyRing struct {
	Current  Key
	Previous *Key
}

// Rotate devuelve un ring nuevo donde Current pasa a Previous. El receptor no se modifica.
func (r KeyRing) Rotate(next Key) KeyRing {
	prev := r.Current
	return KeyRing{Current: next, Previous: &prev}
}

// Validate chequea ids y longitudes de secreto.
func (r KeyRing) Validate() error {
	if r.Current.ID == "" && len(r.Current.Secret) == 0 {
		return ErrNoCurrentKey
	}
	if err := r.Current.validate(); err != nil {
		return fmt.Errorf("current: %w", err)
	}
	if r.Previous != nil {
		if err := r.Previous.validate(); err != nil {
			return fmt.Errorf("previous: %w", err)
		}
		if r.Previous.ID == r.Current.ID {
			return ErrDuplicateKeys
		}
	}
	return nil
}

func (k Key) validate() error {
	if k.ID == "" || strings.ContainsAny(k.ID, ".: \t") {
		return fmt.Errorf("%w: %q", ErrInvalidKeyID, k.ID)
	}
	if len(k.Secret) < MinSecretLen {
		return ErrWeakSecret
	}
	return nil
}

// candidates devuelve las claves aceptadas para verificar, en orden de prueba.
func (r KeyRing) candidates() []Key {
	keys := []Key{r.Current}
	if r.Previous != nil {
		keys = append(keys, *r.Previous)
	}
	return keys
}

// ParseSecret decodifica un secreto configurado como base64 (std/raw/url), hex o texto crudo.
func ParseSecret(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrWeakSecret
	}

	// hex primero: un string hex puro también es base64 válido.
	if len(s)%2 == 0 {
		if b, err := hex.DecodeString(s); err == nil && len(b) >= MinSecretLen {
			return b, nil
		}
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil && len(b) >= MinSecretLen {
			return b, nil
		}
	}

	raw := []byte(s)
	if len(raw) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	return raw, nil
}

// GenerateSecret genera n bytes aleatorios en base64 estándar.
func GenerateSecret(n int) (string, error) {
	if n < MinSecretLen {
		n = MinSecretLen
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
