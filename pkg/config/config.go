// Package config handles loading, saving, and validating the skauth
// configuration file. Configuration is read from YAML with environment
// variable overrides (SKAUTH_ prefix, e.g. SKAUTH_API_PORT).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sk-platform/skauth/internal/api"
	"github.com/sk-platform/skauth/internal/logger"
	"github.com/sk-platform/skauth/pkg/store"
)

// LoggingConfig configures the process-wide logger.
type LoggingConfig struct {
	// Level is the minimum log level: DEBUG, INFO, WARN, ERROR.
	// Default: INFO
	Level string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format is the log output format: text or json.
	// Default: text
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`

	// Output is where logs go: stdout, stderr, or a file path.
	// Default: stdout
	Output string `mapstructure:"output" yaml:"output"`
}

// AdminConfig records the bootstrap administrator created by
// "skauth init". The password hash is stored so re-running init can
// detect an existing setup; it is never used for authentication at
// runtime, which always goes through the database.
type AdminConfig struct {
	Email        string `mapstructure:"email" yaml:"email" validate:"omitempty,email"`
	PasswordHash string `mapstructure:"password_hash" yaml:"password_hash,omitempty"`
}

// Config is the root configuration for the skauth server and CLI.
type Config struct {
	// Logging configures log level, format, and destination.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
	// Default: 30s
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// Database selects and configures the backing store.
	Database store.Config `mapstructure:"database" yaml:"database"`

	// API configures the HTTP control plane.
	API api.APIConfig `mapstructure:"api" yaml:"api"`

	// Admin is written by "skauth init" when bootstrapping the first
	// administrator account.
	Admin AdminConfig `mapstructure:"admin" yaml:"admin,omitempty"`
}

// Load reads configuration from the given path (or the default
// location when empty), applies environment overrides, fills defaults,
// and validates the result. A missing config file is not an error:
// defaults plus environment variables produce a usable configuration.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// MustLoad is Load with a friendlier error for CLI entry points.
func MustLoad(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w\n\nRun 'skauth init' to create a configuration file", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML. The file is created with
// 0600 permissions since it may carry the JWT secret.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = GetDefaultConfigPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Watch reloads the configuration whenever the file at path changes
// and calls onReload with the fresh config. Reload failures are logged
// and the previous configuration stays in effect. The watcher runs for
// the lifetime of the process.
func Watch(path string, onReload func(*Config)) error {
	if path == "" {
		var err error
		path, err = GetDefaultConfigPath()
		if err != nil {
			return err
		}
	}

	v := viper.New()
	setupViper(v, path)
	if err := readConfigFile(v); err != nil {
		return err
	}

	v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := Load(path)
		if err != nil {
			logger.Warn("Config reload failed, keeping previous configuration", "error", err)
			return
		}
		logger.Info("Configuration reloaded", "path", path)
		onReload(cfg)
	})
	v.WatchConfig()

	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		if dir, err := getConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SKAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// readConfigFile reads the config file if present. Absence is fine;
// any other read error is reported.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// configDecodeHooks lets duration fields accept both "30s" strings and
// plain numbers (interpreted as nanoseconds, matching time.Duration).
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch value := data.(type) {
		case string:
			d, err := time.ParseDuration(value)
			if err != nil {
				return nil, fmt.Errorf("invalid duration %q: %w", value, err)
			}
			return d, nil
		case int:
			return time.Duration(value), nil
		case int64:
			return time.Duration(value), nil
		case float64:
			return time.Duration(value), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the skauth configuration directory, following
// XDG conventions.
func getConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "skauth"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "skauth"), nil
}

// GetDefaultConfigPath returns the default config file location.
func GetDefaultConfigPath() (string, error) {
	dir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultConfigExists reports whether a config file exists at the
// default location.
func DefaultConfigExists() bool {
	path, err := GetDefaultConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
