package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidAPIPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.API.Port = 70000

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for port out of range")
	}
	if !strings.Contains(err.Error(), "max") {
		t.Errorf("Expected 'max' validation error, got: %v", err)
	}
}

func TestValidate_InvalidDatabaseType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Database.Type = "mysql"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for unsupported database type")
	}
	if !strings.Contains(err.Error(), "database type") {
		t.Errorf("Expected database type error, got: %v", err)
	}
}

func TestValidate_PostgresRequiresConnection(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Database.Type = "postgres"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for postgres without connection settings")
	}
	if !strings.Contains(err.Error(), "postgres") {
		t.Errorf("Expected postgres connection error, got: %v", err)
	}
}

func TestValidate_InvalidAdminEmail(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Admin.Email = "not-an-email"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid admin email")
	}
}

func TestValidate_LogLevelCaseInsensitive(t *testing.T) {
	for _, level := range []string{"info", "INFO", "debug", "DEBUG", "warn", "WARN", "error", "ERROR"} {
		cfg := GetDefaultConfig()
		cfg.Logging.Level = level

		if err := Validate(cfg); err != nil {
			t.Errorf("Validation failed for level %q: %v", level, err)
		}
		if cfg.Logging.Level != level {
			t.Errorf("Expected level to remain %q after validation, got %q", level, cfg.Logging.Level)
		}
	}
}
