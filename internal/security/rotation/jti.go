package rotation

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// maxAccessTokenLen acota tokens hostiles antes de decodificar.
const maxAccessTokenLen = 16 * 1024

// segmentDecoder solo decodifica base64url (con o sin padding). No verifica firmas.
var segmentDecoder = jwt.NewParser(jwt.WithPaddingAllowed())

// ExtractJTI lee el claim jti del segmento central de un token JWT compacto.
// Nunca entra en pánico: cualquier malformación devuelve ("", false).
func ExtractJTI(accessToken string) (string, bool) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" || len(accessToken) > maxAccessTokenLen {
		return "", false
	}
	parts := strings.Split(accessToken, ".")
	if len(parts) != 3 || parts[1] == "" {
		return "", false
	}
	raw, err := segmentDecoder.DecodeSegment(parts[1])
	if err != nil {
		return "", false
	}
	var claims map[string]any
	if err := json.Unmarshal(raw, &claims); err != nil || claims == nil {
		return "", false
	}
	// "jti":"" no identifica a ningún token: cuenta como ausente
	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return "", false
	}
	return jti, true
}
