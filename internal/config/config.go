// Package config provides YAML-based configuration for the analyzer CLI
// and report server.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Polling PollingConfig `yaml:"polling"`
	Report  ReportConfig  `yaml:"report"`
	Export  ExportConfig  `yaml:"export"`
}

// ServiceConfig locates the remote analysis service.
type ServiceConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// PollingConfig tunes the orchestration loop.
type PollingConfig struct {
	IntervalSeconds  int `yaml:"interval_seconds"`
	MaxAttempts      int `yaml:"max_attempts"`
	ResultRetryLimit int `yaml:"result_retry_limit"`
}

// ReportConfig contains the local report server settings.
type ReportConfig struct {
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`
}

// ExportConfig contains export artifact settings.
type ExportConfig struct {
	Directory string `yaml:"directory"`
}

// Default returns the built-in configuration: local service on port 8000,
// 1s polls with a 300-attempt budget, report server on 127.0.0.1:8080,
// exports into the working directory.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 30,
		},
		Polling: PollingConfig{
			IntervalSeconds:  1,
			MaxAttempts:      300,
			ResultRetryLimit: 5,
		},
		Report: ReportConfig{
			BindAddress: "127.0.0.1",
			Port:        8080,
		},
		Export: ExportConfig{
			Directory: ".",
		},
	}
}

// Load reads the configuration file at path, applying defaults for any
// field the file omits. A missing file yields pure defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Service.BaseURL == "" {
		return fmt.Errorf("service.base_url must not be empty")
	}
	if c.Polling.IntervalSeconds <= 0 {
		return fmt.Errorf("polling.interval_seconds must be positive")
	}
	if c.Polling.MaxAttempts <= 0 {
		return fmt.Errorf("polling.max_attempts must be positive")
	}
	return nil
}

// ServiceTimeout returns the per-request HTTP timeout.
func (c *Config) ServiceTimeout() time.Duration {
	return time.Duration(c.Service.TimeoutSeconds) * time.Second
}

// PollInterval returns the status poll cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Polling.IntervalSeconds) * time.Second
}

// ReportAddr returns the report server listen address.
func (c *Config) ReportAddr() string {
	return fmt.Sprintf("%s:%d", c.Report.BindAddress, c.Report.Port)
}

// EnsureExportDir creates the export directory if needed.
func (c *Config) EnsureExportDir() error {
	return os.MkdirAll(c.Export.Directory, 0755)
}
