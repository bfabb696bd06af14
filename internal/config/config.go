// Package config loads the leadgen YAML configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Environment overrides.
const (
	EnvAPIURL   = "LEADGEN_API_URL"
	EnvLogLevel = "LEADGEN_LOG_LEVEL"
)

// Config holds all leadgen configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	UI      UIConfig      `yaml:"ui"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the backend client.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"` // duration string, e.g. "30s"
	Token   string `yaml:"token"`
}

// UIConfig configures the screens.
type UIConfig struct {
	PageSize     int    `yaml:"page_size"`
	PollInterval string `yaml:"poll_interval"`
	Status       string `yaml:"status"` // initial status filter for the leads screen
}

// LoggingConfig configures the log sink. The TUI owns the terminal, so an
// empty File discards logs.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Pretty bool   `yaml:"pretty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:5000/api",
			Timeout: "30s",
		},
		UI: UIConfig{
			PageSize:     25,
			PollInterval: "5s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/leadgen/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "leadgen.yaml")
	}
	return filepath.Join(dir, "leadgen", "config.yaml")
}

// Load reads path over the defaults. A missing file yields the defaults.
// Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for values the client cannot use.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api.base_url %q is not an absolute URL", ErrInvalid, c.API.BaseURL)
	}
	if c.UI.PageSize <= 0 {
		return fmt.Errorf("%w: ui.page_size must be positive, got %d", ErrInvalid, c.UI.PageSize)
	}
	if _, err := parseDuration(c.API.Timeout); err != nil {
		return fmt.Errorf("%w: api.timeout: %v", ErrInvalid, err)
	}
	if _, err := parseDuration(c.UI.PollInterval); err != nil {
		return fmt.Errorf("%w: ui.poll_interval: %v", ErrInvalid, err)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	return nil
}

// GetAPITimeout returns the HTTP client timeout.
func (c *Config) GetAPITimeout() time.Duration {
	d, err := parseDuration(c.API.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetPollInterval returns the health poll cadence.
func (c *Config) GetPollInterval() time.Duration {
	d, err := parseDuration(c.UI.PollInterval)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}
