// ABOUTME: Configuration loading and parsing for the spincheck server.
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing.

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Reference defaults for the challenge protocol.
const (
	DefaultSessionTTL    = 5 * time.Minute
	DefaultPassTokenTTL  = 3 * time.Minute
	DefaultToleranceDeg  = 45.0
	DefaultFreeTierQuota = 1000
	DefaultRatePerMinute = 120
)

// Config represents the complete spincheck server configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Challenge ChallengeConfig `yaml:"challenge"`
	Quota     QuotaConfig     `yaml:"quota"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ChallengeConfig holds challenge-lifecycle configuration
type ChallengeConfig struct {
	SessionTTL   time.Duration `yaml:"-"`
	PassTokenTTL time.Duration `yaml:"-"`
	ToleranceDeg float64       `yaml:"tolerance_deg"`

	// Raw string values for YAML unmarshaling
	SessionTTLRaw   string `yaml:"session_ttl"`
	PassTokenTTLRaw string `yaml:"pass_token_ttl"`
}

// QuotaConfig holds free-tier quota and rate-limit configuration
type QuotaConfig struct {
	FreeTierLimit int64 `yaml:"free_tier_limit"`
	RatePerMinute int   `yaml:"rate_per_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values and defaults applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
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

// applyDefaults fills in reference values for anything left unset.
func (c *Config) applyDefaults() {
	if c.Challenge.SessionTTL == 0 {
		c.Challenge.SessionTTL = DefaultSessionTTL
	}
	if c.Challenge.PassTokenTTL == 0 {
		c.Challenge.PassTokenTTL = DefaultPassTokenTTL
	}
	if c.Challenge.ToleranceDeg == 0 {
		c.Challenge.ToleranceDeg = DefaultToleranceDeg
	}
	if c.Quota.FreeTierLimit == 0 {
		c.Quota.FreeTierLimit = DefaultFreeTierQuota
	}
	if c.Quota.RatePerMinute == 0 {
		c.Quota.RatePerMinute = DefaultRatePerMinute
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Challenge.ToleranceDeg < 0 || c.Challenge.ToleranceDeg > 180 {
		return fmt.Errorf("challenge.tolerance_deg must be within [0, 180], got %v", c.Challenge.ToleranceDeg)
	}
	if c.Quota.FreeTierLimit < 0 {
		return fmt.Errorf("quota.free_tier_limit must not be negative, got %d", c.Quota.FreeTierLimit)
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Challenge.SessionTTLRaw != "" {
		cfg.Challenge.SessionTTL, err = time.ParseDuration(cfg.Challenge.SessionTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing session_ttl %q: %w", cfg.Challenge.SessionTTLRaw, err)
		}
	}

	if cfg.Challenge.PassTokenTTLRaw != "" {
		cfg.Challenge.PassTokenTTL, err = time.ParseDuration(cfg.Challenge.PassTokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing pass_token_ttl %q: %w", cfg.Challenge.PassTokenTTLRaw, err)
		}
	}

	return nil
}
