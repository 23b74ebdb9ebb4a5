// Package config loads the leapgate CLI configuration.
//
// The shared records (TargetConfig, ServerConfig, LogConfig) live in
// internal/config and are re-exported here via type aliases so commands
// only import this package.
package config

import (
	sharedcfg "github.com/leapstack-labs/leapgate/internal/config"
)

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = sharedcfg.TargetConfig

// ServerConfig is an alias for the shared server configuration.
type ServerConfig = sharedcfg.ServerConfig

// LogConfig is an alias for the shared log configuration.
type LogConfig = sharedcfg.LogConfig

// Config holds all CLI configuration options.
type Config struct {
	Environment  string               `koanf:"environment"`
	OutputFormat string               `koanf:"output"`
	Target       *TargetConfig        `koanf:"target"`
	Server       ServerConfig         `koanf:"server"`
	Log          LogConfig            `koanf:"log"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string `koanf:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Target *TargetConfig `koanf:"target"`
}

// Default configuration values.
const (
	DefaultOutput     = "table"
	DefaultTargetType = "duckdb"
)

// OutputFormats lists the formats the query command can print.
var OutputFormats = []string{"table", "json", "csv", "md", "yaml", "chart"}
