package csrf

import (
	"fmt"
	"net/url"
	"strings"
)

// origin es scheme+host+port normalizado.
type origin struct {
	scheme string
	host   string
	port   string
}

// originRule es una entrada del allow-list.
//   - "https://app.example.com[:port]" => igualdad exacta de origin
//   - "example.com"                    => host exacto o subdominio (límite de punto), solo https:443
//   - ".example.com" / "*.example.com" => solo subdominios, solo https:443
type originRule struct {
	exact          origin
	suffix         string
	isSuffix       bool
	subdomainsOnly bool
}

func parseRule(entry string) (originRule, error) {
	e := strings.TrimRight(strings.TrimSpace(entry), "/")
	if e == "" {
		return originRule{}, fmt.Errorf("csrf: empty allowed origin")
	}
	if strings.Contains(e, "://") {
		o, ok := parseOrigin(e, false)
		if !ok {
			return originRule{}, fmt.Errorf("csrf: invalid allowed origin %q", entry)
		}
		return originRule{exact: o}, nil
	}

	rule := originRule{isSuffix: true}
	switch {
	case strings.HasPrefix(e, "*."):
		e = e[2:]
		rule.subdomainsOnly = true
	case strings.HasPrefix(e, "."):
		e = e[1:]
		rule.subdomainsOnly = true
	}
	e = strings.ToLower(e)
	if e == "" || strings.ContainsAny(e, "/*:@?# ") || strings.HasPrefix(e, ".") || strings.HasSuffix(e, ".") {
		return originRule{}, fmt.Errorf("csrf: invalid allowed host %q", entry)
	}
	rule.suffix = e
	return rule, nil
}

func (r originRule) matches(o origin) bool {
	if !r.isSuffix {
		return o == r.exact
	}
	// un host pelado implica el origin https por defecto; otro puerto es otro origin
	if o.scheme != "https" || o.port != defaultPort("https") {
		return false
	}
	if o.host == r.suffix {
		return !r.subdomainsOnly
	}
	return strings.HasSuffix(o.host, "."+r.suffix)
}

// parseOrigin normaliza un valor Origin o Referer. Con allowPath=false el valor
// no puede traer path, query ni fragmento (forma de un header Origin).
func parseOrigin(raw string, allowPath bool) (origin, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "null") {
		return origin{}, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Opaque != "" || u.User != nil {
		return origin{}, false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return origin{}, false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return origin{}, false
	}
	if !allowPath && (strings.TrimRight(u.Path, "/") != "" || u.RawQuery != "" || u.Fragment != "") {
		return origin{}, false
	}
	port := u.Port()
	if port == "" {
		port = defaultPort(scheme)
	}
	return origin{scheme: scheme, host: host, port: port}, true
}

func defaultPort(scheme string) string {
	if scheme == "https" {
		return "443"
	}
	return "80"
}
