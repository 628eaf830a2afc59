// ABOUTME: Configuration loading for the priori example commands.
// ABOUTME: Reads a YAML config file with env var expansion and env overrides.

// Package cliconfig loads the shared configuration for the priori example
// binaries from a YAML file and the environment.
package cliconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the priori example commands.
type Config struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	BotID   string `yaml:"bot_id"`

	PollingInterval time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	PollingIntervalRaw string `yaml:"polling_interval"`
}

// Path returns the config file location.
// Priority: PRIORI_CONFIG env var > XDG_CONFIG_HOME/priori/config.yaml > ~/.config/priori/config.yaml
func Path() string {
	if envPath := os.Getenv("PRIORI_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "priori", "config.yaml")
}

// Load reads the configuration file at the given path. Environment
// variables in the format ${VAR_NAME} are expanded, and the
// PRIORI_API_KEY / PRIORI_BASE_URL environment variables override the
// file's values. A missing file is not an error; the environment alone
// can supply the configuration.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No file; rely on environment overrides below.
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if cfg.PollingIntervalRaw != "" {
		cfg.PollingInterval, err = time.ParseDuration(cfg.PollingIntervalRaw)
		if err != nil {
			return nil, fmt.Errorf("parsing polling_interval %q: %w", cfg.PollingIntervalRaw, err)
		}
	}

	if key := os.Getenv("PRIORI_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	if base := os.Getenv("PRIORI_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
