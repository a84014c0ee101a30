package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/sk-platform/skauth/pkg/store"
)

// Validate checks the configuration for errors. Struct tags cover
// field-level constraints; cross-field rules are checked explicitly.
// Validation does not mutate the config.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}

	switch cfg.Database.Type {
	case store.DatabaseTypeSQLite, store.DatabaseTypePostgres, "":
	default:
		return fmt.Errorf("unsupported database type %q (must be sqlite or postgres)", cfg.Database.Type)
	}

	if cfg.Database.Type == store.DatabaseTypePostgres {
		pg := cfg.Database.Postgres
		if pg.Host == "" || pg.Database == "" || pg.User == "" {
			return fmt.Errorf("postgres database requires host, database, and user")
		}
	}

	return nil
}
