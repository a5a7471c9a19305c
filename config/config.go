// Package config holds the run configuration for agentgap.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agentgap/agentgap/types"
)

// Config is the immutable configuration for one pipeline run.
type Config struct {
	Username string              `yaml:"username"`
	Password string              `yaml:"password"`
	Platform string              `yaml:"platform"`
	Cloud    types.CloudProvider `yaml:"cloud"`

	// CreatedHours/UpdatedHours of 0 means no cutoff.
	CreatedHours int `yaml:"created_hours"`
	UpdatedHours int `yaml:"updated_hours"`

	// AccountAliasOverrides wins over API-fetched aliases per account ID.
	AccountAliasOverrides map[string]string `yaml:"account_alias_overrides,omitempty"`

	OutputPrefix string     `yaml:"output_prefix"`
	OTEL         OTELConfig `yaml:"otel"`
	Log          LogConfig  `yaml:"log"`
	DataDir      string     `yaml:"data_dir"`
}

// OTELConfig holds OpenTelemetry settings.
type OTELConfig struct {
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
	Enabled  bool   `yaml:"enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, types.NewConfigError("failed to parse config %s: %v", path, err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.Cloud == "" {
		c.Cloud = types.CloudAWS
	}
	if c.OutputPrefix == "" {
		c.OutputPrefix = "cloud_vms_no_agent_report"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.DataDir == "" {
		c.DataDir = defaultDataDir()
	}
}

// Validate ensures the config can drive a run and canonicalizes the cloud
// value. It must be called before any network activity; every failure is a
// ConfigError.
func (c *Config) Validate() error {
	if c.Username == "" || c.Password == "" {
		return types.NewConfigError("username and password are required")
	}
	if _, err := LookupPlatform(c.Platform); err != nil {
		return err
	}
	parsed, err := types.ParseCloudProvider(string(c.Cloud))
	if err != nil {
		return types.NewConfigError("%v", err)
	}
	c.Cloud = parsed
	if c.CreatedHours < 0 {
		return types.NewConfigError("created_hours must be non-negative, got %d", c.CreatedHours)
	}
	if c.UpdatedHours < 0 {
		return types.NewConfigError("updated_hours must be non-negative, got %d", c.UpdatedHours)
	}
	return nil
}

// CreatedCutoff returns the created-at window as a duration, 0 if unset.
func (c *Config) CreatedCutoff() time.Duration {
	return time.Duration(c.CreatedHours) * time.Hour
}

// UpdatedCutoff returns the updated-at window as a duration, 0 if unset.
func (c *Config) UpdatedCutoff() time.Duration {
	return time.Duration(c.UpdatedHours) * time.Hour
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agentgap"
	}
	return home + "/.agentgap"
}
