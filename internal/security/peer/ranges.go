package peer

import (
	"fmt"
	"net/netip"
	"strings"
)

// TrustedRange is one entry of the static proxy allow-list.
type TrustedRange struct {
	CIDR    string `yaml:"cidr" json:"cidr"`
	Version int    `yaml:"version" json:"version"` // 4 | 6
}

// ParseRanges builds TrustedRange entries from CIDR strings, inferring the IP version.
// A bare address is accepted as a single-host range (/32 or /128).
func ParseRanges(cidrs ...string) ([]TrustedRange, error) {
	out := make([]TrustedRange, 0, len(cidrs))
	for _, c := range cidrs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		p, err := parsePrefix(c)
		if err != nil {
			return nil, err
		}
		out = append(out, TrustedRange{CIDR: p.String(), Version: versionOf(p.Addr())})
	}
	return out, nil
}

// Prefix parses and checks the range. The declared Version must agree with the CIDR family.
func (r TrustedRange) Prefix() (netip.Prefix, error) {
	p, err := parsePrefix(r.CIDR)
	if err != nil {
		return netip.Prefix{}, err
	}
	if r.Version != 0 && r.Version != versionOf(p.Addr()) {
		return netip.Prefix{}, fmt.Errorf("trusted range %q: declared ipv%d but is ipv%d", r.CIDR, r.Version, versionOf(p.Addr()))
	}
	return p, nil
}

func parsePrefix(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "/") {
		a, err := netip.ParseAddr(s)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("trusted range %q: %w", s, err)
		}
		a = a.Unmap()
		return netip.PrefixFrom(a, a.BitLen()), nil
	}
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("trusted range %q: %w", s, err)
	}
	if p.Addr().Is4In6() {
		bits := p.Bits() - 96
		if bits < 0 {
			return netip.Prefix{}, fmt.Errorf("trusted range %q: mapped prefix shorter than /96", s)
		}
		p = netip.PrefixFrom(p.Addr().Unmap(), bits)
	}
	return p.Masked(), nil
}

func versionOf(a netip.Addr) int {
	if a.Is4() {
		return 4
	}
	return 6
}
