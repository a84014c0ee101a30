package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format text, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output stdout, got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_NormalizesLevel(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level DEBUG, got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_ShutdownTimeout(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaults_API(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}
	if cfg.API.ReadTimeout != 10*time.Second {
		t.Errorf("Expected default read timeout 10s, got %v", cfg.API.ReadTimeout)
	}
	if !cfg.API.SecureCookiesEnabled() {
		t.Error("Expected secure cookies enabled by default")
	}
	if !cfg.API.MetricsEnabled() {
		t.Error("Expected metrics enabled by default")
	}
	if cfg.API.JWT.SessionLifetime != 24*time.Hour {
		t.Errorf("Expected default session lifetime 24h, got %v", cfg.API.JWT.SessionLifetime)
	}
	if cfg.API.JWT.KeyGenLifetime != time.Hour {
		t.Errorf("Expected default key-gen lifetime 1h, got %v", cfg.API.JWT.KeyGenLifetime)
	}
}

func TestApplyDefaults_Database(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Database.Type != "sqlite" {
		t.Errorf("Expected default database type sqlite, got %q", cfg.Database.Type)
	}
	if cfg.Database.SQLite.Path == "" {
		t.Error("Expected a default SQLite path")
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging:         LoggingConfig{Level: "ERROR", Format: "json"},
		ShutdownTimeout: 5 * time.Second,
	}
	cfg.API.Port = 9000

	ApplyDefaults(cfg)

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected explicit level preserved, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected explicit format preserved, got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected explicit shutdown timeout preserved, got %v", cfg.ShutdownTimeout)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("Expected explicit port preserved, got %d", cfg.API.Port)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected default config to validate, got: %v", err)
	}
}
