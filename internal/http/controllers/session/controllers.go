// Package session contiene los controllers del dominio session.
package session

import (
	"github.com/dropDatabas3/hellojohn-guard/internal/http/helpers"
	svc "github.com/dropDatabas3/hellojohn-guard/internal/http/services/session"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/signedtoken"
)

// ControllerDeps contiene dependencias adicionales para los controllers.
type ControllerDeps struct {
	Codec  *signedtoken.Codec
	Cookie helpers.CookieConfig
}

// Controllers agrupa todos los controllers del dominio session.
type Controllers struct {
	Rotation *RotationController
	Cookie   *CookieController
}

func NewControllers(s svc.Services, deps ControllerDeps) *Controllers {
	return &Controllers{
		Rotation: NewRotationController(s.Rotation),
		Cookie:   NewCookieController(s.Cookie, deps.Codec, deps.Cookie),
	}
}
