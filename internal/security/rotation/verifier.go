// Package rotation verifica que un evento de elevación de privilegios (por
// ejemplo anónimo -> autenticado) produjo una sesión realmente rotada.
//
// La rotación se considera satisfecha si cambió el refresh token o el jti del
// access token. Solo falla cuando ambos quedaron iguales.
package rotation

import (
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellojohn-guard/internal/security/reason"
)

// Anomalías reportadas al caller; ninguna hace fallar el check por sí sola.
const (
	AnomalyBeforeJTIMissing  = "before_jti_missing"
	AnomalyAfterJTIMissing   = "after_jti_missing"
	AnomalyEmptyRefreshToken = "empty_refresh_token"
)

// Session es un par refresh/access emitido por el proveedor de auth.
type Session struct {
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"access_token"`
}

// SessionPair es el antes/después de una elevación.
type SessionPair struct {
	Before Session `json:"before"`
	After  Session `json:"after"`
}

// Outcome detalla la decisión.
type Outcome struct {
	Satisfied      bool
	RefreshChanged bool
	JTIChanged     bool
	Anomalies      []string
	Code           reason.Code
}

// Verifier no guarda estado; el logger solo se usa para reportar anomalías.
type Verifier struct {
	log *zap.Logger
}

// NewVerifier acepta un logger nil (no-op).
func NewVerifier(log *zap.Logger) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{log: log.With(zap.String("component", "security.rotation"))}
}

// Check compara el par y devuelve el detalle de la decisión.
func (v *Verifier) Check(pair SessionPair) Outcome {
	beforeJTI, beforeOK := ExtractJTI(pair.Before.AccessToken)
	afterJTI, afterOK := ExtractJTI(pair.After.AccessToken)

	out := Outcome{
		RefreshChanged: pair.Before.RefreshToken != pair.After.RefreshToken,
		// dos jti ausentes cuentan como iguales
		JTIChanged: beforeOK != afterOK || beforeJTI != afterJTI,
	}
	if !beforeOK {
		out.Anomalies = append(out.Anomalies, AnomalyBeforeJTIMissing)
	}
	if !afterOK {
		out.Anomalies = append(out.Anomalies, AnomalyAfterJTIMissing)
	}
	if pair.Before.RefreshToken == "" || pair.After.RefreshToken == "" {
		out.Anomalies = append(out.Anomalies, AnomalyEmptyRefreshToken)
	}

	out.Satisfied = out.RefreshChanged || out.JTIChanged
	out.Code = reason.OK
	if !out.Satisfied {
		out.Code = reason.RotationNotSatisfied
	}

	if len(out.Anomalies) > 0 {
		v.log.Warn("session rotation check with anomalies",
			zap.Strings("anomalies", out.Anomalies),
			zap.Bool("satisfied", out.Satisfied),
		)
	}
	if !out.Satisfied {
		v.log.Warn("session rotation not satisfied", zap.String("reason", out.Code.String()))
	}
	return out
}

// Verify devuelve solo el booleano.
func (v *Verifier) Verify(pair SessionPair) bool {
	return v.Check(pair).Satisfied
}

// VerifyRotation es la forma funcional, sin logging.
func VerifyRotation(pair SessionPair) bool {
	return NewVerifier(nil).Verify(pair)
}
