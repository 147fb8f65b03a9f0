// Package peer decide qué IP tratar como "el cliente" a partir de la IP del peer
// directo y del header X-Forwarded-For.
//
// Regla central anti-spoofing: el header solo se honra si el peer directo está
// dentro de un rango confiable. Cualquier ambigüedad devuelve la IP del peer sin
// modificar.
package peer

import (
	"net/netip"
	"strings"

	"github.com/dropDatabas3/hellojohn-guard/internal/security/reason"
)

const (
	// DefaultMaxForwardedEntries acota el parseo de X-Forwarded-For.
	DefaultMaxForwardedEntries = 20
	// maxForwardedHeaderLen corta headers absurdos antes de hacer Split.
	maxForwardedHeaderLen = 4096
)

// Config es la configuración estática del resolver.
type Config struct {
	Ranges              []TrustedRange
	MaxForwardedEntries int // <= 0 => DefaultMaxForwardedEntries
}

// Resolution describe cómo se obtuvo la IP del cliente.
type Resolution struct {
	IP          string
	PeerTrusted bool
	FromHeader  bool
	Code        reason.Code
}

// Resolver es inmutable y seguro para uso concurrente.
type Resolver struct {
	prefixes   []netip.Prefix
	maxEntries int
}

// NewResolver valida los rangos una sola vez. Un rango inválido es error de configuración.
func NewResolver(cfg Config) (*Resolver, error) {
	prefixes := make([]netip.Prefix, 0, len(cfg.Ranges))
	for _, r := range cfg.Ranges {
		p, err := r.Prefix()
		if err != nil {
			return nil, err
		}
		prefixes = append(prefixes, p)
	}
	maxEntries := cfg.MaxForwardedEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxForwardedEntries
	}
	return &Resolver{prefixes: prefixes, maxEntries: maxEntries}, nil
}

// Trusted reporta si peerIP cae dentro de algún rango confiable.
func (r *Resolver) Trusted(peerIP string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(peerIP))
	if err != nil {
		return false
	}
	return r.contains(addr)
}

func (r *Resolver) contains(addr netip.Addr) bool {
	addr = addr.Unmap().WithZone("")
	for _, p := range r.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP devuelve solo la IP resuelta.
func (r *Resolver) ClientIP(peerIP, forwardedFor string) string {
	return r.Resolve(peerIP, forwardedFor).IP
}

// Resolve aplica el protocolo de confianza completo.
func (r *Resolver) Resolve(peerIP, forwardedFor string) Resolution {
	if !r.Trusted(peerIP) {
		code := reason.UntrustedSource
		if strings.TrimSpace(forwardedFor) == "" {
			code = reason.OK
		}
		return Resolution{IP: peerIP, Code: code}
	}

	fallback := Resolution{IP: peerIP, PeerTrusted: true, Code: reason.OK}
	if strings.TrimSpace(forwardedFor) == "" {
		return fallback
	}
	if len(forwardedFor) > maxForwardedHeaderLen || strings.Count(forwardedFor, ",")+1 > r.maxEntries {
		fallback.Code = reason.MalformedInput
		return fallback
	}

	first, _, _ := strings.Cut(forwardedFor, ",")
	candidate := strings.TrimSpace(first)
	if !validIP(candidate) {
		fallback.Code = reason.MalformedInput
		return fallback
	}
	return Resolution{IP: candidate, PeerTrusted: true, FromHeader: true, Code: reason.OK}
}

// validIP acepta literales IPv4/IPv6 puros (sin zona, puerto ni corchetes).
func validIP(s string) bool {
	if s == "" {
		return false
	}
	a, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return a.Zone() == ""
}

// ResolveClientIP es la forma funcional del resolver. Rangos inválidos se ignoran,
// lo que solo puede reducir la confianza.
func ResolveClientIP(peerIP, forwardedFor string, ranges []TrustedRange) string {
	valid := make([]TrustedRange, 0, len(ranges))
	for _, tr := range ranges {
		if _, err := tr.Prefix(); err == nil {
			valid = append(valid, tr)
		}
	}
	r, err := NewResolver(Config{Ranges: valid})
	if err != nil {
		return peerIP
	}
	return r.ClientIP(peerIP, forwardedFor)
}
