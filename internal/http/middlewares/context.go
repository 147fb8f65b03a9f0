package middlewares

import (
	"context"

	"github.com/dropDatabas3/hellojohn-guard/internal/security/peer"
)

type ctxKey string

const (
	ctxRequestIDKey  ctxKey = "request_id"
	ctxResolutionKey ctxKey = "client_resolution"
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

func setResolution(ctx context.Context, res peer.Resolution) context.Context {
	return context.WithValue(ctx, ctxResolutionKey, res)
}

// GetRequestID obtiene el request ID del contexto ("" si no hay).
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return v
	}
	return ""
}

// ResolutionFrom devuelve la resolución de IP hecha por WithClientIP.
func ResolutionFrom(ctx context.Context) (peer.Resolution, bool) {
	res, ok := ctx.Value(ctxResolutionKey).(peer.Resolution)
	return res, ok
}

// ClientIPFrom devuelve la IP de cliente resuelta ("" si WithClientIP no corrió).
func ClientIPFrom(ctx context.Context) string {
	if res, ok := ResolutionFrom(ctx); ok {
		return res.IP
	}
	return ""
}
