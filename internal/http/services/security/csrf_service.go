// Package security contiene los services del dominio security.
package security

import (
	"context"
	"fmt"

	dto "github.com/dropDatabas3/hellojohn-guard/internal/http/dto/security"
	"github.com/dropDatabas3/hellojohn-guard/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/csrf"
)

// CSRFService emite tokens de fallback CSRF.
type CSRFService interface {
	IssueToken(ctx context.Context) (*dto.CSRFResponse, error)
}

// ErrCSRFTokenGeneration se devuelve cuando no hay codec o falla la firma.
var ErrCSRFTokenGeneration = fmt.Errorf("failed to generate CSRF token")

type csrfService struct {
	validator *csrf.Validator
}

// NewCSRFService crea el service sobre un validador ya construido.
func NewCSRFService(v *csrf.Validator) CSRFService {
	return &csrfService{validator: v}
}

func (s *csrfService) IssueToken(ctx context.Context) (*dto.CSRFResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("security.csrf"),
		logger.Op("IssueToken"),
	)

	tok, exp, err := s.validator.IssueToken()
	if err != nil {
		log.Error("failed to issue csrf token", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrCSRFTokenGeneration, err)
	}

	log.Debug("csrf token issued")
	return &dto.CSRFResponse{CSRFToken: tok, ExpiresAt: exp}, nil
}
