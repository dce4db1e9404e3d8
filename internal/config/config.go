// Package config provides configuration loading and validation for the
// server and CLI. Values come from the environment first, optionally
// overlaid on a JSON config file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults applied when neither the environment nor the config file sets a
// value.
const (
	DefaultListenPort            = 8080
	DefaultDebounceMillis        = 1000
	DefaultMigrationRetryCeiling = 3
	DefaultJWTExpirationHours    = 24
	DefaultBcryptCost            = 12
	DefaultLogLevel              = "info"
)

// Config holds every runtime setting. All fields are optional in the JSON
// file; missing values use defaults or come from the environment.
type Config struct {
	// Persistence
	StateDir    string `json:"state_dir,omitempty" validate:"required"`
	DatabaseURL string `json:"database_url,omitempty"`

	// Server
	ListenPort       int    `json:"listen_port,omitempty" validate:"min=1,max=65535"`
	RenderServiceURL string `json:"render_service_url,omitempty" validate:"omitempty,url"`

	// Sync behavior
	DebounceMillis        int `json:"debounce_millis,omitempty" validate:"min=1"`
	MigrationRetryCeiling int `json:"migration_retry_ceiling,omitempty" validate:"min=1"`

	// Auth
	JWTSecret          string `json:"-"`
	JWTExpirationHours int    `json:"jwt_expiration_hours,omitempty" validate:"min=1"`
	BcryptCost         int    `json:"bcrypt_cost,omitempty" validate:"min=10,max=14"`
	PasswordPepper     string `json:"-"`

	// Logging
	LogLevel string `json:"log_level,omitempty" validate:"oneof=trace debug info warn error"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load builds the configuration: defaults, then the JSON file at path (if
// path is non-empty), then environment variables on top.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		cfg.merge(fileCfg)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Debounce returns the debounce interval as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// JWTExpiry returns the token lifetime as a duration.
func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpirationHours) * time.Hour
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		ListenPort:            DefaultListenPort,
		DebounceMillis:        DefaultDebounceMillis,
		MigrationRetryCeiling: DefaultMigrationRetryCeiling,
		JWTExpirationHours:    DefaultJWTExpirationHours,
		BcryptCost:            DefaultBcryptCost,
		LogLevel:              DefaultLogLevel,
	}
}

func loadFile(path string) (*Config, error) {
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// merge overlays the non-zero fields of other onto c.
func (c *Config) merge(other *Config) {
	if other.StateDir != "" {
		c.StateDir = other.StateDir
	}
	if other.DatabaseURL != "" {
		c.DatabaseURL = other.DatabaseURL
	}
	if other.ListenPort != 0 {
		c.ListenPort = other.ListenPort
	}
	if other.RenderServiceURL != "" {
		c.RenderServiceURL = other.RenderServiceURL
	}
	if other.DebounceMillis != 0 {
		c.DebounceMillis = other.DebounceMillis
	}
	if other.MigrationRetryCeiling != 0 {
		c.MigrationRetryCeiling = other.MigrationRetryCeiling
	}
	if other.JWTExpirationHours != 0 {
		c.JWTExpirationHours = other.JWTExpirationHours
	}
	if other.BcryptCost != 0 {
		c.BcryptCost = other.BcryptCost
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("STATE_DIR"); v != "" {
		c.StateDir = v
	}
	if c.StateDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			c.StateDir = filepath.Join(home, ".resume-builder")
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("RENDER_SERVICE_URL"); v != "" {
		c.RenderServiceURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	c.JWTSecret = os.Getenv("JWT_SECRET")
	c.PasswordPepper = os.Getenv("PASSWORD_PEPPER")

	intVars := []struct {
		name   string
		target *int
	}{
		{"PORT", &c.ListenPort},
		{"DEBOUNCE_MILLIS", &c.DebounceMillis},
		{"MIGRATION_RETRY_CEILING", &c.MigrationRetryCeiling},
		{"JWT_EXPIRATION_HOURS", &c.JWTExpirationHours},
		{"BCRYPT_COST", &c.BcryptCost},
	}
	for _, v := range intVars {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", v.name, err)
		}
		*v.target = parsed
	}
	return nil
}
