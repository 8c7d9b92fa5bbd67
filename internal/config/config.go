// Package config handles loading and validation of continuum.yaml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/continuum-pay/continuum/pkg/types"
)

// Load reads and parses continuum.yaml from the given directory.
func Load(dir string) (*types.Config, error) {
	path := filepath.Join(dir, "continuum.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg types.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *types.Config) {
	if cfg.Mode == "" {
		cfg.Mode = types.HandlingAuto
	}
	if cfg.Sandbox.Addr == "" {
		cfg.Sandbox.Addr = ":8620"
	}
	if cfg.Sandbox.PendingPolls <= 0 {
		cfg.Sandbox.PendingPolls = 2
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
}

func validate(cfg *types.Config) error {
	if cfg.Mode != types.HandlingAuto && cfg.Mode != types.HandlingManual {
		return fmt.Errorf("mode must be %s or %s, got %q", types.HandlingAuto, types.HandlingManual, cfg.Mode)
	}
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.baseUrl is required")
	}
	if cfg.API.TimeoutSeconds < 0 {
		return fmt.Errorf("api.timeoutSeconds must not be negative")
	}
	if cfg.Poll.PendingIntervalMS < 0 {
		return fmt.Errorf("poll.pendingIntervalMs must not be negative")
	}
	if cfg.Poll.RetrySeconds < 0 {
		return fmt.Errorf("poll.retrySeconds must not be negative")
	}
	return nil
}
