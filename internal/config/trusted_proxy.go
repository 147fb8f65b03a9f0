package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/hellojohn-guard/internal/security/peer"
)

// TrustedProxy es un peer.TrustedRange decodificable desde YAML como escalar
// o como mapa:
//
//	trusted_proxies:
//	  - 10.0.0.0/8
//	  - { cidr: "fd00::/8", version: 6 }
type TrustedProxy peer.TrustedRange

func (t *TrustedProxy) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*t = TrustedProxy{CIDR: s}
		return nil
	case yaml.MappingNode:
		var raw struct {
			CIDR    string `yaml:"cidr"`
			Version int    `yaml:"version"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		if raw.Version != 0 && raw.Version != 4 && raw.Version != 6 {
			return fmt.Errorf("line %d: version must be 4 or 6, got %d", value.Line, raw.Version)
		}
		*t = TrustedProxy{CIDR: raw.CIDR, Version: raw.Version}
		return nil
	default:
		return fmt.Errorf("line %d: trusted proxy must be a string or {cidr, version}", value.Line)
	}
}
