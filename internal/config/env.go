package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP / SERVER / LOG
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// TRUST
	if v, ok := getEnvCSV("TRUSTED_PROXIES"); ok {
		c.Trust.TrustedProxies = make([]TrustedProxy, 0, len(v))
		for _, cidr := range v {
			c.Trust.TrustedProxies = append(c.Trust.TrustedProxies, TrustedProxy{CIDR: cidr})
		}
	}
	if v, ok := getEnvInt("MAX_FORWARDED_ENTRIES"); ok {
		c.Trust.MaxForwardedEntries = v
	}

	// CSRF
	if v, ok := getEnvCSV("CSRF_ALLOWED_ORIGINS"); ok {
		c.CSRF.AllowedOrigins = v
	}
	if v, ok := getEnvDur("CSRF_TOKEN_TTL"); ok {
		c.CSRF.TokenTTL = v
	}

	// SIGNING
	if v, ok := getEnvStr("SIGNING_KEY_ID"); ok {
		c.Signing.Current.ID = v
	}
	if v, ok := getEnvStr("SIGNING_KEY_SECRET"); ok {
		c.Signing.Current.Secret = v
	}
	if v, ok := getEnvStr("SIGNING_PREVIOUS_KEY_ID"); ok {
		if c.Signing.Previous == nil {
			c.Signing.Previous = &SigningKey{}
		}
		c.Signing.Previous.ID = v
	}
	if v, ok := getEnvStr("SIGNING_PREVIOUS_KEY_SECRET"); ok {
		if c.Signing.Previous == nil {
			c.Signing.Previous = &SigningKey{}
		}
		c.Signing.Previous.Secret = v
	}

	// SESSION COOKIE
	if v, ok := getEnvStr("SESSION_COOKIE_DOMAIN"); ok {
		c.SessionCookie.Domain = v
	}
	if v, ok := getEnvBool("SESSION_COOKIE_SECURE"); ok {
		c.SessionCookie.Secure = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Rate.Redis.Addr = v
	}

	// METRICS
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
}
