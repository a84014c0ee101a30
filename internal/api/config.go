package api

import (
	"os"
	"time"

	"github.com/sk-platform/skauth/internal/logger"
)

// EnvJWTSecret is the environment variable for the JWT signing secret.
const EnvJWTSecret = "SKAUTH_JWT_SECRET"

// APIConfig configures the HTTP server.
type APIConfig struct {
	// Port is the HTTP port for the API endpoints.
	// Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// SecureCookies sets the Secure flag on session cookies. Disable
	// only for plain-HTTP development setups.
	// Default: true
	SecureCookies *bool `mapstructure:"secure_cookies" yaml:"secure_cookies"`

	// Metrics enables the /metrics endpoint and HTTP instrumentation.
	// Default: true
	Metrics *bool `mapstructure:"metrics" yaml:"metrics"`

	// JWT configures session token signing.
	JWT JWTConfig `mapstructure:"jwt" yaml:"jwt"`
}

// JWTConfig configures JWT token generation and validation.
type JWTConfig struct {
	// Secret is the HMAC signing key. Must be at least 32 characters.
	// Can also be set via the SKAUTH_JWT_SECRET environment variable,
	// which takes precedence over the config file.
	Secret string `mapstructure:"secret" yaml:"secret"`

	// SessionLifetime is the lifetime of web session tokens.
	// Default: 24h
	SessionLifetime time.Duration `mapstructure:"session_lifetime" yaml:"session_lifetime"`

	// KeyGenLifetime is the lifetime of one-time key-gen tokens.
	// Default: 1h
	KeyGenLifetime time.Duration `mapstructure:"key_gen_lifetime" yaml:"key_gen_lifetime"`
}

// ApplyDefaults fills in zero values with defaults.
func (c *APIConfig) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.SecureCookies == nil {
		secure := true
		c.SecureCookies = &secure
	}
	if c.Metrics == nil {
		enabled := true
		c.Metrics = &enabled
	}
	if c.JWT.SessionLifetime == 0 {
		c.JWT.SessionLifetime = 24 * time.Hour
	}
	if c.JWT.KeyGenLifetime == 0 {
		c.JWT.KeyGenLifetime = time.Hour
	}
}

// GetJWTSecret returns the JWT secret, preferring the environment variable.
// Logs a warning if the environment variable overrides a config file value.
func (c *APIConfig) GetJWTSecret() string {
	envSecret := os.Getenv(EnvJWTSecret)
	if envSecret != "" {
		if c.JWT.Secret != "" && c.JWT.Secret != envSecret {
			logger.Warn("JWT secret from environment variable overrides config file value",
				"env_var", EnvJWTSecret)
		}
		return envSecret
	}
	return c.JWT.Secret
}

// SecureCookiesEnabled reports whether session cookies carry the Secure flag.
func (c *APIConfig) SecureCookiesEnabled() bool {
	return c.SecureCookies == nil || *c.SecureCookies
}

// MetricsEnabled reports whether the metrics endpoint is exposed.
func (c *APIConfig) MetricsEnabled() bool {
	return c.Metrics == nil || *c.Metrics
}
