// Package session contiene los services del dominio session.
package session

import (
	"context"
	"errors"

	dto "github.com/dropDatabas3/hellojohn-guard/internal/http/dto/session"
	"github.com/dropDatabas3/hellojohn-guard/internal/metrics"
	"github.com/dropDatabas3/hellojohn-guard/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/rotation"
)

// ErrRotationNotSatisfied: ni el refresh token ni el jti cambiaron.
var ErrRotationNotSatisfied = errors.New("session rotation not satisfied")

// RotationService verifica que una elevación rotó la sesión.
type RotationService interface {
	Verify(ctx context.Context, req dto.RotationVerifyRequest) (dto.RotationVerifyResponse, error)
}

type rotationService struct{}

func NewRotationService() RotationService {
	return rotationService{}
}

// Verify devuelve siempre el detalle; el error solo indica rotación no satisfecha.
func (rotationService) Verify(ctx context.Context, req dto.RotationVerifyRequest) (dto.RotationVerifyResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("RotationService.Verify"))

	out := rotation.NewVerifier(log).Check(rotation.SessionPair{
		Before: rotation.Session{RefreshToken: req.Before.RefreshToken, AccessToken: req.Before.AccessToken},
		After:  rotation.Session{RefreshToken: req.After.RefreshToken, AccessToken: req.After.AccessToken},
	})
	metrics.RecordDecision(metrics.ComponentRotation, out.Code)

	resp := dto.RotationVerifyResponse{
		Satisfied:      out.Satisfied,
		RefreshChanged: out.RefreshChanged,
		JTIChanged:     out.JTIChanged,
		Anomalies:      out.Anomalies,
	}
	if !out.Satisfied {
		return resp, ErrRotationNotSatisfied
	}
	return resp, nil
}
