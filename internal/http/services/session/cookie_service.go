package session

import (
	"context"
	"errors"
	"fmt"

	dto "github.com/dropDatabas3/hellojohn-guard/internal/http/dto/session"
	"github.com/dropDatabas3/hellojohn-guard/internal/metrics"
	"github.com/dropDatabas3/hellojohn-guard/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/signedtoken"
)

// MaxCookieClaims acota la cantidad de claims de contexto por cookie.
const MaxCookieClaims = 32

var (
	ErrNoClaims       = errors.New("claims required")
	ErrTooManyClaims  = fmt.Errorf("at most %d claims allowed", MaxCookieClaims)
	ErrReservedClaims = errors.New("claims iat, exp, kid and ver are reserved")
)

var reservedClaims = map[string]struct{}{
	signedtoken.ClaimIssuedAt:  {},
	signedtoken.ClaimExpiresAt: {},
	signedtoken.ClaimKeyID:     {},
	signedtoken.ClaimVersion:   {},
}

// CookieService valida los claims de la cookie de contexto y traduce el
// resultado de verificación a DTO. La firma y el Set-Cookie los hace el
// controller con helpers.SetSignedCookie / ReadSignedCookie.
type CookieService interface {
	CheckClaims(claims map[string]any) error
	Describe(ctx context.Context, res signedtoken.Result) dto.CookieStatusResponse
}

type cookieService struct{}

func NewCookieService() CookieService {
	return cookieService{}
}

func (cookieService) CheckClaims(claims map[string]any) error {
	if len(claims) == 0 {
		return ErrNoClaims
	}
	if len(claims) > MaxCookieClaims {
		return ErrTooManyClaims
	}
	for k := range claims {
		if _, ok := reservedClaims[k]; ok {
			return ErrReservedClaims
		}
	}
	return nil
}

func (cookieService) Describe(ctx context.Context, res signedtoken.Result) dto.CookieStatusResponse {
	metrics.RecordDecision(metrics.ComponentToken, res.Reason.Code())
	if !res.Valid {
		logger.From(ctx).Debug("session cookie rejected",
			logger.Layer("service"),
			logger.TokenFormat(signedtoken.FormatCookie.String()),
			logger.Reason(res.Reason.Code().String()),
		)
		return dto.CookieStatusResponse{Valid: false, Reason: res.Reason.Code().String()}
	}

	claims := make(map[string]any, len(res.Payload))
	for k, v := range res.Payload {
		if _, ok := reservedClaims[k]; ok {
			continue
		}
		claims[k] = v
	}
	resp := dto.CookieStatusResponse{Valid: true, KeyID: res.KeyID, Claims: claims}
	if iat := res.IssuedAt(); !iat.IsZero() {
		resp.IssuedAt = &iat
	}
	if exp, ok := res.ExpiresAt(); ok {
		resp.ExpiresAt = &exp
	}
	return resp
}
