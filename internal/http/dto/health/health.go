// Package health contiene los DTOs de health check.
package health

// HealthResponse es la respuesta de GET /healthz.
type HealthResponse struct {
	Status       string            `json:"status"` // ok | degraded
	SigningKeyID string            `json:"signing_kid,omitempty"`
	Components   map[string]string `json:"components,omitempty"`
}
