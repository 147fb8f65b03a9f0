package util

import "strings"

// MaskToken deja visible solo el tag (kid o versión) y los últimos 4
// caracteres de la firma. Pensado para logs: nunca loguear tokens completos.
func MaskToken(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	i := strings.IndexAny(s, ".:")
	if i <= 0 || len(s)-i <= 8 {
		return "***"
	}
	tag := s[:i]
	if len(tag) > 16 {
		tag = tag[:16] + "…"
	}
	return tag + string(s[i]) + "…" + s[len(s)-4:]
}
