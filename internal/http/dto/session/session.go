// Package session contiene los DTOs de los endpoints de sesión.
package session

import "time"

// Tokens es el par emitido por el proveedor de auth.
type Tokens struct {
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"access_token"`
}

// RotationVerifyRequest es el body de POST /v2/session/rotation/verify.
type RotationVerifyRequest struct {
	Before Tokens `json:"before"`
	After  Tokens `json:"after"`
}

// RotationVerifyResponse detalla la decisión de rotación.
type RotationVerifyResponse struct {
	Satisfied      bool     `json:"satisfied"`
	RefreshChanged bool     `json:"refresh_changed"`
	JTIChanged     bool     `json:"jti_changed"`
	Anomalies      []string `json:"anomalies,omitempty"`
}

// CookieIssueRequest es el body de POST /v2/session/cookie.
type CookieIssueRequest struct {
	Claims map[string]any `json:"claims"`
}

// CookieIssueResponse confirma la cookie emitida (el valor viaja solo en Set-Cookie).
type CookieIssueResponse struct {
	KeyID     string    `json:"kid"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CookieStatusResponse es la respuesta de GET /v2/session/cookie.
type CookieStatusResponse struct {
	Valid     bool           `json:"valid"`
	Reason    string         `json:"reason,omitempty"`
	KeyID     string         `json:"kid,omitempty"`
	IssuedAt  *time.Time     `json:"issued_at,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	Claims    map[string]any `json:"claims,omitempty"`
}
