package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultBaseURL is used when MCP_BASE_URL is unset.
const DefaultBaseURL = "http://localhost:3000"

// Config holds the application configuration loaded from .env files and environment variables.
type Config struct {
	AppName   string `mapstructure:"app_name"`
	Env       string `mapstructure:"app_env"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	BaseURL        string        `mapstructure:"mcp_base_url"`
	TimeoutSeconds int64         `mapstructure:"mcp_timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`

	PublishersFile string `mapstructure:"mcp_publishers_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables, after seeding the
// environment from .env files when present.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "mcp-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("mcp_base_url", DefaultBaseURL)
	v.SetDefault("mcp_timeout_seconds", 30)
	v.SetDefault("mcp_publishers_file", "")
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/snapshots.db")
	v.SetDefault("storage_ttl_seconds", int64((5*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if err := validateBaseURL(c.BaseURL); err != nil {
		return err
	}

	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid mcp_timeout_seconds (must be positive seconds)")
	}
	c.Timeout = time.Duration(c.TimeoutSeconds) * time.Second

	if c.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if c.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	c.StorageTTL = time.Duration(c.StorageTTLSeconds) * time.Second
	c.StorageCleanupInterval = time.Duration(c.StorageCleanupSeconds) * time.Second

	c.PublishersFile = strings.TrimSpace(c.PublishersFile)
	return nil
}

// validateBaseURL checks the base address is an absolute http(s) URL. The
// value itself is kept as written.
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid mcp_base_url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid mcp_base_url %q (scheme must be http or https)", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid mcp_base_url %q (missing host)", raw)
	}
	return nil
}

// PublishingEnabled reports whether a publishers file was configured.
func (c *Config) PublishingEnabled() bool {
	return c != nil && c.PublishersFile != ""
}
