// Package security contiene los controllers de los endpoints de confianza.
package security

import svc "github.com/dropDatabas3/hellojohn-guard/internal/http/services/security"

// Controllers agrupa todos los controllers del dominio security.
type Controllers struct {
	CSRF     *CSRFController
	ClientIP *ClientIPController
}

// NewControllers crea el agregador.
func NewControllers(s svc.Services, csrfHeader string) *Controllers {
	return &Controllers{
		CSRF:     NewCSRFController(s.CSRF, csrfHeader),
		ClientIP: NewClientIPController(),
	}
}
