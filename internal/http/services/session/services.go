package session

// Services agrupa todos los services del dominio session.
type Services struct {
	Rotation RotationService
	Cookie   CookieService
}

// NewServices crea el agregador de services session.
func NewServices() Services {
	return Services{
		Rotation: NewRotationService(),
		Cookie:   NewCookieService(),
	}
}
