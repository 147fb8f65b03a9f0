// Package security contiene los DTOs de los endpoints de confianza.
package security

import "time"

// CSRFResponse es la respuesta de GET /v2/csrf.
type CSRFResponse struct {
	CSRFToken string    `json:"csrf_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ClientIPResponse es la respuesta de GET /v2/client-ip.
type ClientIPResponse struct {
	ClientIP    string `json:"client_ip"`
	PeerTrusted bool   `json:"peer_trusted"`
	FromHeader  bool   `json:"from_header"`
	Reason      string `json:"reason"`
}
