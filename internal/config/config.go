package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/hellojohn-guard/internal/security/csrf"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/peer"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/signedtoken"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Trust struct {
		// Acepta escalares ("10.0.0.0/8") o mapas ({cidr, version}).
		TrustedProxies      []TrustedProxy `yaml:"trusted_proxies"`
		MaxForwardedEntries int            `yaml:"max_forwarded_entries"`
	} `yaml:"trust"`

	CSRF struct {
		AllowedOrigins []string      `yaml:"allowed_origins"`
		HeaderName     string        `yaml:"header_name"`
		FormField      string        `yaml:"form_field"`
		TokenTTL       time.Duration `yaml:"token_ttl"`
	} `yaml:"csrf"`

	Signing struct {
		Current  SigningKey  `yaml:"current"`
		Previous *SigningKey `yaml:"previous"`
	} `yaml:"signing"`

	SessionCookie struct {
		Name     string        `yaml:"name"`
		Domain   string        `yaml:"domain"`
		SameSite string        `yaml:"samesite"`
		Secure   bool          `yaml:"secure"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"session_cookie"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		Backend     string        `yaml:"backend"` // memory | redis
		Window      time.Duration `yaml:"window"`
		MaxRequests int           `yaml:"max_requests"`
		Redis       struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"rate"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// SigningKey es una entrada del key ring tal como viene del YAML/env.
// Secret admite hex, base64 o texto plano (ver signedtoken.ParseSecret).
type SigningKey struct {
	ID     string `yaml:"id"`
	Secret string `yaml:"secret"`
}

// Load lee el YAML (si path no está vacío), aplica defaults y overrides de env
// y valida. El archivo es opcional solo cuando path == "".
func Load(path string) (*Config, error) {
	var b []byte
	if strings.TrimSpace(path) != "" {
		var err error
		if b, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	return Parse(b)
}

// Parse es Load sin tocar el filesystem.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: yaml: %w", err)
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	// Guardia dura: en prod la cookie siempre viaja solo por HTTPS.
	if strings.EqualFold(c.App.Env, "prod") {
		c.SessionCookie.Secure = true
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Trust.MaxForwardedEntries == 0 {
		c.Trust.MaxForwardedEntries = peer.DefaultMaxForwardedEntries
	}
	if c.CSRF.HeaderName == "" {
		c.CSRF.HeaderName = "X-CSRF-Token"
	}
	if c.CSRF.FormField == "" {
		c.CSRF.FormField = "csrf_token"
	}
	if c.CSRF.TokenTTL == 0 {
		c.CSRF.TokenTTL = csrf.DefaultTokenTTL
	}
	if c.SessionCookie.Name == "" {
		c.SessionCookie.Name = "hj_ctx"
	}
	if c.SessionCookie.SameSite == "" {
		c.SessionCookie.SameSite = "Lax"
	}
	if c.SessionCookie.TTL == 0 {
		c.SessionCookie.TTL = 12 * time.Hour
	}
	if c.Rate.Backend == "" {
		c.Rate.Backend = "memory"
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Rate.Redis.Prefix == "" {
		c.Rate.Redis.Prefix = "rl:"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate chequea todo lo que después se construye en el arranque, para que
// un error de config falle en Load y no a mitad del wiring.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.KeyRing(); err != nil {
		errs = append(errs, fmt.Errorf("signing: %w", err))
	}
	if _, err := c.TrustedRanges(); err != nil {
		errs = append(errs, fmt.Errorf("trust.trusted_proxies: %w", err))
	}
	if c.Trust.MaxForwardedEntries < 0 {
		errs = append(errs, errors.New("trust.max_forwarded_entries must be >= 0"))
	}
	if _, err := csrf.NewValidator(csrf.Config{AllowedOrigins: c.CSRF.AllowedOrigins}, nil); err != nil {
		errs = append(errs, fmt.Errorf("csrf.allowed_origins: %w", err))
	}
	if c.CSRF.TokenTTL < 0 {
		errs = append(errs, errors.New("csrf.token_ttl must be positive"))
	}
	switch c.Rate.Backend {
	case "memory":
	case "redis":
		if c.Rate.Enabled && strings.TrimSpace(c.Rate.Redis.Addr) == "" {
			errs = append(errs, errors.New("rate.redis.addr required when rate.backend=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("rate.backend %q not supported (memory|redis)", c.Rate.Backend))
	}
	if c.Rate.MaxRequests < 0 || c.Rate.Window < 0 {
		errs = append(errs, errors.New("rate.window and rate.max_requests must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// KeyRing arma el key ring del codec a partir de signing.current/previous.
func (c *Config) KeyRing() (signedtoken.KeyRing, error) {
	cur, err := c.Signing.Current.key()
	if err != nil {
		return signedtoken.KeyRing{}, fmt.Errorf("current: %w", err)
	}
	ring := signedtoken.KeyRing{Current: cur}
	if p := c.Signing.Previous; p != nil && (p.ID != "" || p.Secret != "") {
		prev, err := p.key()
		if err != nil {
			return signedtoken.KeyRing{}, fmt.Errorf("previous: %w", err)
		}
		ring.Previous = &prev
	}
	if err := ring.Validate(); err != nil {
		return signedtoken.KeyRing{}, err
	}
	return ring, nil
}

func (k SigningKey) key() (signedtoken.Key, error) {
	if strings.TrimSpace(k.ID) == "" && strings.TrimSpace(k.Secret) == "" {
		return signedtoken.Key{}, signedtoken.ErrNoCurrentKey
	}
	secret, err := signedtoken.ParseSecret(k.Secret)
	if err != nil {
		return signedtoken.Key{}, err
	}
	return signedtoken.Key{ID: strings.TrimSpace(k.ID), Secret: secret}, nil
}

// TrustedRanges devuelve los rangos confiables ya normalizados. Entradas sin
// version la infieren de la dirección.
func (c *Config) TrustedRanges() ([]peer.TrustedRange, error) {
	out := make([]peer.TrustedRange, 0, len(c.Trust.TrustedProxies))
	for _, tp := range c.Trust.TrustedProxies {
		if tp.Version == 0 {
			rs, err := peer.ParseRanges(tp.CIDR)
			if err != nil {
				return nil, err
			}
			out = append(out, rs...)
			continue
		}
		r := peer.TrustedRange(tp)
		if _, err := r.Prefix(); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// PeerConfig arma la config del resolver.
func (c *Config) PeerConfig() (peer.Config, error) {
	ranges, err := c.TrustedRanges()
	if err != nil {
		return peer.Config{}, err
	}
	return peer.Config{Ranges: ranges, MaxForwardedEntries: c.Trust.MaxForwardedEntries}, nil
}

// IsProd indica si app_env es prod.
func (c *Config) IsProd() bool {
	return strings.EqualFold(c.App.Env, "prod")
}
