package config

import (
	"strings"
	"time"

	"github.com/sk-platform/skauth/internal/api"
	"github.com/sk-platform/skauth/pkg/store"
)

// ApplyDefaults fills unspecified configuration fields with defaults.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	cfg.Database.ApplyDefaults()
	applyAPIDefaults(&cfg.API)
}

// applyLoggingDefaults sets logging defaults and normalizes the level
// to uppercase.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyAPIDefaults sets API server defaults. The API is always enabled;
// it is the only way to manage users, keys, and sessions.
func applyAPIDefaults(cfg *api.APIConfig) {
	cfg.ApplyDefaults()
}

// GetDefaultConfig returns a Config with all defaults applied. Useful
// for generating sample configuration files and in tests.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Database: store.Config{
			Type: store.DatabaseTypeSQLite,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
