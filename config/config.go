package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	APIBaseURL       string `yaml:"api_base_url"`
	SiteBaseURL      string `yaml:"site_base_url"`
	StoriesWSPath    string `yaml:"stories_ws_path"`
	PageSize         int    `yaml:"page_size"`
	DebounceMillis   int    `yaml:"debounce_ms"`
	CooldownMillis   int    `yaml:"like_cooldown_ms"`
	FetchTimeoutSecs int    `yaml:"fetch_timeout_secs"`
	SessionDBPath    string `yaml:"session_db_path"`
	RefreshTime      string `yaml:"refresh_time"`
	Timezone         string `yaml:"timezone"`
	LogLevel         string `yaml:"log_level"`
}

// refreshTimeRegex validates HH:MM format with proper ranges.
var refreshTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// GetConfigPath returns the config file path from environment or default.
func GetConfigPath() string {
	if path := os.Getenv("SNDA_BROWSE_CONFIG"); path != "" {
		return path
	}
	return "./config.yaml"
}

// DebounceWindow returns the filter debounce window as a duration.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// LikeCooldown returns the like interaction cool-down as a duration.
func (c *Config) LikeCooldown() time.Duration {
	return time.Duration(c.CooldownMillis) * time.Millisecond
}

// FetchTimeout returns the HTTP fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

func applyDefaults(cfg *Config) {
	if cfg.SiteBaseURL == "" {
		cfg.SiteBaseURL = cfg.APIBaseURL
	}
	if cfg.StoriesWSPath == "" {
		cfg.StoriesWSPath = "/ws/stories/"
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 10
	}
	if cfg.DebounceMillis == 0 {
		cfg.DebounceMillis = 300
	}
	if cfg.CooldownMillis == 0 {
		cfg.CooldownMillis = 500
	}
	if cfg.FetchTimeoutSecs == 0 {
		cfg.FetchTimeoutSecs = 10
	}
	if cfg.SessionDBPath == "" {
		cfg.SessionDBPath = "./snda-session.db"
	}
	if cfg.RefreshTime == "" {
		cfg.RefreshTime = "07:00"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	if dbPath := os.Getenv("SNDA_BROWSE_SESSION_DB"); dbPath != "" {
		cfg.SessionDBPath = dbPath
	}
	if base := os.Getenv("SNDA_BROWSE_API_URL"); base != "" {
		cfg.APIBaseURL = base
	}
}

func validate(cfg *Config) error {
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100, got %d", cfg.PageSize)
	}
	if !refreshTimeRegex.MatchString(cfg.RefreshTime) {
		return fmt.Errorf("refresh_time must be in HH:MM format (00:00-23:59), got %q", cfg.RefreshTime)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	return nil
}
