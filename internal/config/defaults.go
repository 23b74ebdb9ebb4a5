package config

import (
	"strings"
	"time"

	"github.com/leapstack-labs/leapgate/pkg/adapter"
)

// Default configuration values.
const (
	DefaultServerPort        = 3001
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultRateBurst         = 10
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

// defaultPorts maps network target types to their standard port.
var defaultPorts = map[string]int{
	"postgres":   5432,
	"postgresql": 5432,
	"mysql":      3306,
}

// DefaultSchemaForType returns the default schema of a registered adapter
// type, or "" when the adapter has none (MySQL uses the database name).
func DefaultSchemaForType(dbType string) string {
	factory, ok := adapter.Get(strings.ToLower(dbType))
	if !ok {
		return ""
	}
	return factory(nil).DialectConfig().DefaultSchema
}

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}

	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}

	if t.Port == 0 {
		t.Port = defaultPorts[strings.ToLower(t.Type)]
	}
}

// ApplyServerDefaults applies default values to a ServerConfig.
func ApplyServerDefaults(s *ServerConfig) {
	if s == nil {
		return
	}
	if s.Port == 0 {
		s.Port = DefaultServerPort
	}
	if s.ReadHeaderTimeout <= 0 {
		s.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if s.RateLimit > 0 && s.RateBurst <= 0 {
		s.RateBurst = DefaultRateBurst
	}
}
