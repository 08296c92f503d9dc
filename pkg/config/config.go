// Package config loads the engine's tunables from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for goose-highlighter.
type Config struct {
	// StorePath is the sqlite settings database. Empty means the default
	// location under the user config directory.
	StorePath string `yaml:"store_path" env:"GOOSE_HIGHLIGHT_STORE"`

	// DebounceWindow bounds how often mutation and scroll bursts may
	// trigger a highlighting pass.
	DebounceWindow time.Duration `yaml:"debounce_window" env:"GOOSE_HIGHLIGHT_DEBOUNCE"`

	// FlashDuration is how long the transient navigation flash stays on.
	FlashDuration time.Duration `yaml:"flash_duration" env:"GOOSE_HIGHLIGHT_FLASH"`

	// ViewportHeight is the window viewport height in text lines.
	ViewportHeight int `yaml:"viewport_height" env:"GOOSE_HIGHLIGHT_VIEWPORT"`

	// Debug enables diagnostic logging to stderr.
	Debug bool `yaml:"debug" env:"GOOSE_HIGHLIGHT_DEBUG"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DebounceWindow: 300 * time.Millisecond,
		FlashDuration:  600 * time.Millisecond,
		ViewportHeight: 40,
	}
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath()
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// getConfigPath returns the config file path.
func getConfigPath() string {
	if path := os.Getenv("GOOSE_HIGHLIGHT_CONFIG"); path != "" {
		return path
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "goose-highlighter", "config.yaml")
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "goose-highlighter", "config.yaml")
	}

	return ""
}

// DefaultStorePath returns the fallback settings database location.
func DefaultStorePath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "goose-highlighter", "settings.db")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "goose-highlighter", "settings.db")
	}
	return "settings.db"
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	// #nosec G304 - The config file path comes from trusted sources (env var or standard locations)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// loadFromEnv loads configuration from environment variables.
func loadFromEnv(cfg *Config) error {
	if store := os.Getenv("GOOSE_HIGHLIGHT_STORE"); store != "" {
		cfg.StorePath = store
	}

	if window := os.Getenv("GOOSE_HIGHLIGHT_DEBOUNCE"); window != "" {
		d, err := time.ParseDuration(window)
		if err != nil {
			return fmt.Errorf("invalid GOOSE_HIGHLIGHT_DEBOUNCE: %w", err)
		}
		cfg.DebounceWindow = d
	}

	if flash := os.Getenv("GOOSE_HIGHLIGHT_FLASH"); flash != "" {
		d, err := time.ParseDuration(flash)
		if err != nil {
			return fmt.Errorf("invalid GOOSE_HIGHLIGHT_FLASH: %w", err)
		}
		cfg.FlashDuration = d
	}

	if viewport := os.Getenv("GOOSE_HIGHLIGHT_VIEWPORT"); viewport != "" {
		n, err := strconv.Atoi(viewport)
		if err != nil {
			return fmt.Errorf("invalid GOOSE_HIGHLIGHT_VIEWPORT: %w", err)
		}
		cfg.ViewportHeight = n
	}

	if debug := os.Getenv("GOOSE_HIGHLIGHT_DEBUG"); debug != "" {
		switch debug {
		case "true", "1", "yes":
			cfg.Debug = true
		case "false", "0", "no":
			cfg.Debug = false
		default:
			return fmt.Errorf("invalid GOOSE_HIGHLIGHT_DEBUG value: %q (use true/false)", debug)
		}
	}

	return nil
}

// validate validates the configuration.
func validate(cfg *Config) error {
	if cfg.DebounceWindow < 0 {
		return fmt.Errorf("debounce_window must be non-negative")
	}

	if cfg.FlashDuration < 0 {
		return fmt.Errorf("flash_duration must be non-negative")
	}

	if cfg.ViewportHeight <= 0 {
		return fmt.Errorf("viewport_height must be positive")
	}

	return nil
}
