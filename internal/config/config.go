// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/predmaint/rulserve/internal/monitoring"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int    `yaml:"port"`
	AllowedOrigins string `yaml:"allowedOrigins"`
}

// ModelConfig points at the trained model artifact.
type ModelConfig struct {
	Path string `yaml:"path"`
}

// MonitoringConfig configures the drift monitor.
type MonitoringConfig struct {
	ThresholdPct float64            `yaml:"thresholdPct"`
	WindowSize   int                `yaml:"windowSize"`
	Interval     time.Duration      `yaml:"interval"`
	Baseline     map[string]float64 `yaml:"baseline"`
}

// DatabaseConfig selects the prediction history store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres, or memory
	Path   string `yaml:"path"`   // sqlite file path
	DSN    string `yaml:"dsn"`    // postgres connection string
}

// WebhookConfig defines one drift-alert notification target.
type WebhookConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// Config is the top-level service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Model      ModelConfig      `yaml:"model"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Database   DatabaseConfig   `yaml:"database"`
	Webhooks   []WebhookConfig  `yaml:"webhooks"`
}

// DefaultBaseline returns the reference feature means captured from the
// FD001 training set, used when the config file does not supply a
// baseline table.
func DefaultBaseline() map[string]float64 {
	return map[string]float64{
		"setting_1": -0.0001, "setting_2": 0.0002, "setting_3": 100.0,
		"s_2": 642.6, "s_3": 1591.4, "s_4": 1407.1, "s_6": 21.6,
		"s_7": 554.9, "s_8": 2388.1, "s_9": 9059.3, "s_11": 47.5,
		"s_12": 522.3, "s_13": 2388.1, "s_14": 8140.5, "s_15": 8.44,
		"s_17": 391.0, "s_20": 39.1, "s_21": 23.42,
	}
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8000, AllowedOrigins: "*"},
		Model:  ModelConfig{Path: "model.json"},
		Monitoring: MonitoringConfig{
			ThresholdPct: monitoring.DefaultThresholdPct,
			WindowSize:   monitoring.DefaultWindowSize,
			Interval:     60 * time.Second,
			Baseline:     DefaultBaseline(),
		},
		Database: DatabaseConfig{Driver: "sqlite", Path: "data/rulserve.db"},
	}
}

// Load reads a YAML configuration file, fills unset fields with defaults,
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// applyDefaults restores defaults for fields an explicit config file may
// have zeroed by omission.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.AllowedOrigins == "" {
		c.Server.AllowedOrigins = d.Server.AllowedOrigins
	}
	if c.Model.Path == "" {
		c.Model.Path = d.Model.Path
	}
	if c.Monitoring.ThresholdPct == 0 {
		c.Monitoring.ThresholdPct = d.Monitoring.ThresholdPct
	}
	if c.Monitoring.WindowSize == 0 {
		c.Monitoring.WindowSize = d.Monitoring.WindowSize
	}
	if c.Monitoring.Interval == 0 {
		c.Monitoring.Interval = d.Monitoring.Interval
	}
	if len(c.Monitoring.Baseline) == 0 {
		c.Monitoring.Baseline = d.Monitoring.Baseline
	}
	if c.Database.Driver == "" {
		c.Database.Driver = d.Database.Driver
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}
}

// Validate checks the configuration. A config that fails validation must
// refuse to start the process: a monitor with an empty baseline or a
// non-positive threshold would silently report always-false drift.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Model.Path == "" {
		return fmt.Errorf("model path is required")
	}
	if c.Monitoring.ThresholdPct <= 0 {
		return fmt.Errorf("monitoring threshold must be positive, got %v", c.Monitoring.ThresholdPct)
	}
	if c.Monitoring.WindowSize <= 0 {
		return fmt.Errorf("monitoring window size must be positive, got %d", c.Monitoring.WindowSize)
	}
	if c.Monitoring.Interval <= 0 {
		return fmt.Errorf("monitoring interval must be positive, got %v", c.Monitoring.Interval)
	}
	if len(c.Monitoring.Baseline) == 0 {
		return fmt.Errorf("monitoring baseline table is empty")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("sqlite database path is required")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("postgres DSN is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	for i, wh := range c.Webhooks {
		if wh.URL == "" {
			return fmt.Errorf("webhook at index %d has empty url", i)
		}
	}
	return nil
}
