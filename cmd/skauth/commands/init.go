package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sk-platform/skauth/internal/api"
	"github.com/sk-platform/skauth/internal/cli/prompt"
	"github.com/sk-platform/skauth/pkg/config"
	"github.com/sk-platform/skauth/pkg/models"
	"github.com/sk-platform/skauth/pkg/store"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration and bootstrap the first admin",
	Long: `Initialize the skauth configuration file and create the first
administrator account in the credential store.

By default the configuration is written to $XDG_CONFIG_HOME/skauth/config.yaml.
Use --config to choose a custom path. The admin password is read from the
` + models.EnvAdminInitialPassword + ` environment variable when set, otherwise prompted.

Examples:
  # Interactive setup at the default location
  skauth init

  # Non-interactive setup
  SKAUTH_ADMIN_PASSWORD=changeme-please skauth init --email admin@example.com

  # Overwrite an existing config
  skauth init --force`,
	RunE: runInit,
}

var initEmail string

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	initCmd.Flags().StringVar(&initEmail, "email", "", "Admin email (prompted when omitted)")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		var err error
		configPath, err = config.GetDefaultConfigPath()
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	cfg := config.GetDefaultConfig()

	secret, err := generateSecret()
	if err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	cfg.API.JWT.Secret = secret

	email := initEmail
	if email == "" {
		email, err = prompt.InputWithValidation("Admin email", func(input string) error {
			if !strings.Contains(input, "@") {
				return errors.New("enter a valid email address")
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	password := os.Getenv(models.EnvAdminInitialPassword)
	if password == "" {
		password, err = prompt.NewPassword()
		if err != nil {
			return err
		}
	}
	if len(password) < 8 {
		return errors.New("admin password must be at least 8 characters")
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	st, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() { _ = st.Close() }()

	user := &models.User{
		Email:        email,
		PasswordHash: &hash,
		Role:         string(models.RoleAdmin),
	}
	if _, err := st.CreateUser(context.Background(), user); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			fmt.Printf("Admin user %s already exists, keeping it.\n", email)
		} else {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
	}

	cfg.Admin = config.AdminConfig{
		Email:        email,
		PasswordHash: hash,
	}

	if err := config.Save(cfg, configPath); err != nil {
		return err
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Printf("Admin user: %s\n", email)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Review the configuration file")
	fmt.Println("  2. Start the server with: skauth start")
	fmt.Println("\nSecurity note:")
	fmt.Println("  A random JWT secret has been generated and stored in the config file.")
	fmt.Println("  For production, prefer supplying it via an environment variable:")
	fmt.Printf("    export %s=$(openssl rand -hex 32)\n", api.EnvJWTSecret)

	return nil
}

// generateSecret returns 32 random bytes hex-encoded, which satisfies
// the 32-character minimum the server enforces on the JWT secret.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
