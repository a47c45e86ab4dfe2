// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-authbridge.
//
// go-authbridge is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads the demo configuration from YAML with environment
// variable overrides under the AUTHBRIDGE_ prefix.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete demo configuration
type Config struct {
	RelyingParty RelyingPartyConfig `mapstructure:"relying_party"`
	Client       ClientConfig       `mapstructure:"client"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// RelyingPartyConfig configures the simulated relying party
type RelyingPartyConfig struct {
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	Origin      string `mapstructure:"origin"`
	SigningKey  string `mapstructure:"signing_key"`
	PinAttempts int    `mapstructure:"pin_attempts"`
}

// ClientConfig contains bridge client settings
type ClientConfig struct {
	ServerURL        string        `mapstructure:"server_url"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig controls metrics collection
type MetricsConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	ResourceInterval time.Duration `mapstructure:"resource_interval"`
}

// Load reads configuration from a YAML file and applies environment variable
// overrides. An empty path loads defaults and environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("AUTHBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("relying_party.id", "example.com")
	v.SetDefault("relying_party.name", "Example Corp")
	v.SetDefault("relying_party.origin", "https://example.com")
	v.SetDefault("relying_party.pin_attempts", 5)
	v.SetDefault("client.server_url", "https://example.com/auth")
	v.SetDefault("client.operation_timeout", time.Minute)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.resource_interval", 15*time.Second)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.RelyingParty.ID == "" {
		return fmt.Errorf("relying_party.id must be specified")
	}
	if c.RelyingParty.Origin == "" {
		return fmt.Errorf("relying_party.origin must be specified")
	}
	if c.RelyingParty.PinAttempts < 1 {
		return fmt.Errorf("invalid relying_party.pin_attempts: %d", c.RelyingParty.PinAttempts)
	}
	if c.Client.OperationTimeout <= 0 {
		return fmt.Errorf("invalid client.operation_timeout: %s", c.Client.OperationTimeout)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json": true, "text": true,
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	if c.Metrics.Enabled && c.Metrics.ResourceInterval <= 0 {
		return fmt.Errorf("invalid metrics.resource_interval: %s", c.Metrics.ResourceInterval)
	}
	return nil
}

// Debug reports whether debug logging is enabled
func (c *Config) Debug() bool {
	return strings.ToLower(c.Logging.Level) == "debug"
}
