package security

import "github.com/dropDatabas3/hellojohn-guard/internal/security/csrf"

// Deps contiene las dependencias para crear los services security.
type Deps struct {
	CSRFValidator *csrf.Validator
}

// Services agrupa todos los services del dominio security.
type Services struct {
	CSRF CSRFService
}

// NewServices crea el agregador de services security.
func NewServices(d Deps) Services {
	return Services{
		CSRF: NewCSRFService(d.CSRFValidator),
	}
}
