// Package health contiene el service de health check.
package health

import (
	"context"
	"time"

	dto "github.com/dropDatabas3/hellojohn-guard/internal/http/dto/health"
	"github.com/dropDatabas3/hellojohn-guard/internal/observability/logger"
)

// checkTimeout acota cada chequeo de componente.
const checkTimeout = 2 * time.Second

// Checker chequea una dependencia externa (ej: redis del rate limiter).
type Checker func(ctx context.Context) error

// Deps contiene las dependencias del service.
type Deps struct {
	SigningKeyID string
	Checks       map[string]Checker
}

// HealthService reporta el estado del proceso.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

type healthService struct {
	deps Deps
}

func NewHealthService(d Deps) HealthService {
	return &healthService{deps: d}
}

// Check nunca falla: los componentes caídos degradan el estado. Las decisiones
// de confianza no dependen de nada externo y el rate limiter es fail-open.
func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	resp := dto.HealthResponse{Status: "ok", SigningKeyID: s.deps.SigningKeyID}
	if len(s.deps.Checks) == 0 {
		return resp
	}

	resp.Components = make(map[string]string, len(s.deps.Checks))
	for name, check := range s.deps.Checks {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := check(cctx)
		cancel()
		if err != nil {
			logger.From(ctx).Warn("health component down",
				logger.Layer("service"), logger.Component(name), logger.Err(err))
			resp.Components[name] = "down"
			resp.Status = "degraded"
			continue
		}
		resp.Components[name] = "up"
	}
	return resp
}
