package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func UserAgent(v string) zap.Field { return zap.String("user_agent", v) }

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(d time.Duration) zap.Field { return zap.Int64("duration_ms", d.Milliseconds()) }

// =================================================================================
// CAMPOS ESTÁNDAR - CONFIANZA
// =================================================================================

// ClientIP es la IP ya resuelta (puede venir de X-Forwarded-For).
func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// PeerIP es la IP del peer TCP directo.
func PeerIP(v string) zap.Field { return zap.String("peer_ip", v) }

// Reason es un código de reason.Code.
func Reason(v string) zap.Field { return zap.String("reason", v) }

func KeyID(v string) zap.Field       { return zap.String("kid", v) }
func TokenFormat(v string) zap.Field { return zap.String("token_format", v) }
func Origin(v string) zap.Field      { return zap.String("origin", v) }
func Via(v string) zap.Field         { return zap.String("via", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Err(err error) zap.Field      { return zap.Error(err) }
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

// Layer identifica la capa (controller, service, middleware).
func Layer(v string) zap.Field { return zap.String("layer", v) }

func String(key, v string) zap.Field { return zap.String(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
