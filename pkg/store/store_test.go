//go:build integration

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sk-platform/skauth/pkg/models"
)

// createTestStore creates an in-memory SQLite store for testing.
func createTestStore(t *testing.T) *GORMStore {
	t.Helper()
	store, err := New(&Config{
		Type: DatabaseTypeSQLite,
		SQLite: SQLiteConfig{
			Path: ":memory:",
		},
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createUser(t *testing.T, store *GORMStore, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Role: string(models.RoleViewer)}
	id, err := store.CreateUser(context.Background(), user)
	if err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	user.ID = id
	return user
}

func expiryIn(d time.Duration) *time.Time {
	t := time.Now().Add(d)
	return &t
}

func TestNew(t *testing.T) {
	t.Run("default config uses sqlite", func(t *testing.T) {
		config := &Config{}
		config.ApplyDefaults()

		if config.Type != DatabaseTypeSQLite {
			t.Errorf("expected SQLite, got %s", config.Type)
		}
	})

	t.Run("invalid type returns error", func(t *testing.T) {
		if _, err := New(&Config{Type: "invalid"}); err == nil {
			t.Error("expected error for invalid config")
		}
	})

	t.Run("creates in-memory store", func(t *testing.T) {
		store := createTestStore(t)
		if store == nil {
			t.Error("expected non-nil store")
		}
	})
}

func TestUserOperations(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	t.Run("create user", func(t *testing.T) {
		user := &models.User{Email: "alice@example.com", Role: string(models.RoleAdmin)}
		id, err := store.CreateUser(ctx, user)
		if err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		if id == "" {
			t.Error("expected non-empty user ID")
		}
	})

	t.Run("duplicate email fails", func(t *testing.T) {
		user := &models.User{Email: "alice@example.com", Role: string(models.RoleViewer)}
		if _, err := store.CreateUser(ctx, user); !errors.Is(err, models.ErrDuplicateUser) {
			t.Errorf("expected ErrDuplicateUser, got %v", err)
		}
	})

	t.Run("get by email", func(t *testing.T) {
		user, err := store.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if user.Role != string(models.RoleAdmin) {
			t.Errorf("expected admin role, got %q", user.Role)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		byEmail, _ := store.GetUserByEmail(ctx, "alice@example.com")
		user, err := store.GetUserByID(ctx, byEmail.ID)
		if err != nil {
			t.Fatalf("failed to get user by id: %v", err)
		}
		if user.Email != "alice@example.com" {
			t.Errorf("unexpected email %q", user.Email)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("list users", func(t *testing.T) {
		createUser(t, store, "bob@example.com")
		users, err := store.ListUsers(ctx)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("expected 2 users, got %d", len(users))
		}
	})
}

func TestDeleteUserCascade(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	user := createUser(t, store, "cascade@example.com")

	// Attach a token and a public key; both must disappear with the user.
	if _, err := store.CreateToken(ctx, &models.Token{
		UserID:     user.ID,
		TokenValue: "cascade-token",
		Type:       string(models.TokenTypeWebSession),
		IsValid:    true,
		ExpiresAt:  expiryIn(time.Hour),
	}); err != nil {
		t.Fatalf("failed to create token: %v", err)
	}
	if err := store.CreatePublicKey(ctx, &models.PublicKey{
		Fingerprint: "cascade-fingerprint",
		KeyValue:    "cascade-key-material",
		UserID:      user.ID,
	}); err != nil {
		t.Fatalf("failed to create key: %v", err)
	}

	if err := store.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("failed to delete user: %v", err)
	}

	if _, err := store.GetUserByID(ctx, user.ID); !errors.Is(err, models.ErrUserNotFound) {
		t.Errorf("expected user gone, got %v", err)
	}
	if _, err := store.GetTokenByValue(ctx, "cascade-token"); !errors.Is(err, models.ErrTokenNotFound) {
		t.Errorf("expected token gone, got %v", err)
	}
	if _, err := store.GetPublicKeyByUserID(ctx, user.ID); !errors.Is(err, models.ErrPublicKeyNotFound) {
		t.Errorf("expected key gone, got %v", err)
	}

	t.Run("delete unknown user", func(t *testing.T) {
		if err := store.DeleteUser(ctx, "missing-id"); !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestValidateCredentials(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	hash, err := models.HashPassword("correct-password")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if _, err := store.CreateUser(ctx, &models.User{
		Email:        "cred@example.com",
		PasswordHash: &hash,
		Role:         string(models.RoleAdmin),
	}); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	createUser(t, store, "keyonly@example.com")

	t.Run("valid credentials", func(t *testing.T) {
		user, err := store.ValidateCredentials(ctx, "cred@example.com", "correct-password")
		if err != nil {
			t.Fatalf("expected valid credentials: %v", err)
		}
		if user.Email != "cred@example.com" {
			t.Errorf("unexpected user %q", user.Email)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := store.ValidateCredentials(ctx, "cred@example.com", "wrong"); !errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		if _, err := store.ValidateCredentials(ctx, "nobody@example.com", "whatever"); !errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("passwordless identity", func(t *testing.T) {
		if _, err := store.ValidateCredentials(ctx, "keyonly@example.com", ""); !errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestPublicKeyOperations(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	user := createUser(t, store, "keys@example.com")

	key := &models.PublicKey{
		Fingerprint: "abc123fingerprint",
		KeyValue:    "-----BEGIN PUBLIC KEY-----\nfake\n-----END PUBLIC KEY-----",
		UserID:      user.ID,
	}
	if err := store.CreatePublicKey(ctx, key); err != nil {
		t.Fatalf("failed to create key: %v", err)
	}

	t.Run("get by fingerprint", func(t *testing.T) {
		got, err := store.GetPublicKeyByFingerprint(ctx, "abc123fingerprint")
		if err != nil {
			t.Fatalf("failed to get key: %v", err)
		}
		if got.UserID != user.ID {
			t.Errorf("expected user %s, got %s", user.ID, got.UserID)
		}
	})

	t.Run("get by user", func(t *testing.T) {
		got, err := store.GetPublicKeyByUserID(ctx, user.ID)
		if err != nil {
			t.Fatalf("failed to get key: %v", err)
		}
		if got.Fingerprint != "abc123fingerprint" {
			t.Errorf("unexpected fingerprint %q", got.Fingerprint)
		}
	})

	t.Run("unknown fingerprint", func(t *testing.T) {
		if _, err := store.GetPublicKeyByFingerprint(ctx, "missing"); !errors.Is(err, models.ErrPublicKeyNotFound) {
			t.Errorf("expected ErrPublicKeyNotFound, got %v", err)
		}
	})

	t.Run("duplicate fingerprint", func(t *testing.T) {
		other := createUser(t, store, "other@example.com")
		err := store.CreatePublicKey(ctx, &models.PublicKey{
			Fingerprint: "abc123fingerprint",
			KeyValue:    "same-material",
			UserID:      other.ID,
		})
		if !errors.Is(err, models.ErrDuplicatePublicKey) {
			t.Errorf("expected ErrDuplicatePublicKey, got %v", err)
		}
	})

	t.Run("second key for same user", func(t *testing.T) {
		err := store.CreatePublicKey(ctx, &models.PublicKey{
			Fingerprint: "different-fingerprint",
			KeyValue:    "other-material",
			UserID:      user.ID,
		})
		if !errors.Is(err, models.ErrDuplicatePublicKey) {
			t.Errorf("expected ErrDuplicatePublicKey, got %v", err)
		}
	})
}

func TestTokenOperations(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	user := createUser(t, store, "tokens@example.com")

	t.Run("create and get", func(t *testing.T) {
		id, err := store.CreateToken(ctx, &models.Token{
			UserID:     user.ID,
			TokenValue: "token-one",
			Type:       string(models.TokenTypeWebSession),
			IsValid:    true,
			ExpiresAt:  expiryIn(time.Hour),
		})
		if err != nil {
			t.Fatalf("failed to create token: %v", err)
		}
		if id == "" {
			t.Error("expected generated token ID")
		}

		token, err := store.GetTokenByValue(ctx, "token-one")
		if err != nil {
			t.Fatalf("failed to get token: %v", err)
		}
		if token.UserID != user.ID {
			t.Errorf("expected user %s, got %s", user.ID, token.UserID)
		}
	})

	t.Run("duplicate value", func(t *testing.T) {
		_, err := store.CreateToken(ctx, &models.Token{
			UserID:     user.ID,
			TokenValue: "token-one",
			Type:       string(models.TokenTypeWebSession),
			IsValid:    true,
			ExpiresAt:  expiryIn(time.Hour),
		})
		if !errors.Is(err, models.ErrDuplicateToken) {
			t.Errorf("expected ErrDuplicateToken, got %v", err)
		}
	})

	t.Run("missing expiry rejected for non-cli types", func(t *testing.T) {
		_, err := store.CreateToken(ctx, &models.Token{
			UserID:     user.ID,
			TokenValue: "no-expiry",
			Type:       string(models.TokenTypeWebSession),
			IsValid:    true,
		})
		if err == nil {
			t.Error("expected validation error for missing expiry")
		}
	})

	t.Run("cli session without expiry allowed", func(t *testing.T) {
		if _, err := store.CreateToken(ctx, &models.Token{
			UserID:     user.ID,
			TokenValue: "cli-token",
			Type:       string(models.TokenTypeCLISession),
			IsValid:    true,
		}); err != nil {
			t.Fatalf("expected cli token without expiry to be valid: %v", err)
		}
	})

	t.Run("delete by id", func(t *testing.T) {
		token, err := store.GetTokenByValue(ctx, "cli-token")
		if err != nil {
			t.Fatalf("failed to get token: %v", err)
		}
		if err := store.DeleteTokenByID(ctx, token.ID); err != nil {
			t.Fatalf("failed to delete token: %v", err)
		}
		if err := store.DeleteTokenByID(ctx, token.ID); !errors.Is(err, models.ErrTokenNotFound) {
			t.Errorf("expected ErrTokenNotFound on second delete, got %v", err)
		}
	})
}

func TestGetValidTokenByType(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	user := createUser(t, store, "valid-token@example.com")

	t.Run("none exists", func(t *testing.T) {
		if _, err := store.GetValidTokenByType(ctx, user.ID, models.TokenTypeWebSession); !errors.Is(err, models.ErrTokenNotFound) {
			t.Errorf("expected ErrTokenNotFound, got %v", err)
		}
	})

	t.Run("expired token skipped", func(t *testing.T) {
		if _, err := store.CreateToken(ctx, &models.Token{
			UserID:     user.ID,
			TokenValue: "expired",
			Type:       string(models.TokenTypeWebSession),
			IsValid:    true,
			ExpiresAt:  expiryIn(-time.Minute),
		}); err != nil {
			t.Fatalf("failed to create token: %v", err)
		}
		if _, err := store.GetValidTokenByType(ctx, user.ID, models.TokenTypeWebSession); !errors.Is(err, models.ErrTokenNotFound) {
			t.Errorf("expected expired token to be skipped, got %v", err)
		}
	})

	t.Run("live token returned", func(t *testing.T) {
		if _, err := store.CreateToken(ctx, &models.Token{
			UserID:     user.ID,
			TokenValue: "live",
			Type:       string(models.TokenTypeWebSession),
			IsValid:    true,
			ExpiresAt:  expiryIn(time.Hour),
		}); err != nil {
			t.Fatalf("failed to create token: %v", err)
		}
		token, err := store.GetValidTokenByType(ctx, user.ID, models.TokenTypeWebSession)
		if err != nil {
			t.Fatalf("expected live token: %v", err)
		}
		if token.TokenValue != "live" {
			t.Errorf("expected live token, got %q", token.TokenValue)
		}
	})

	t.Run("cli session with nil expiry counts as valid", func(t *testing.T) {
		if _, err := store.CreateToken(ctx, &models.Token{
			UserID:     user.ID,
			TokenValue: "cli-live",
			Type:       string(models.TokenTypeCLISession),
			IsValid:    true,
		}); err != nil {
			t.Fatalf("failed to create token: %v", err)
		}
		token, err := store.GetValidTokenByType(ctx, user.ID, models.TokenTypeCLISession)
		if err != nil {
			t.Fatalf("expected cli token: %v", err)
		}
		if token.ExpiresAt != nil {
			t.Error("expected nil expiry")
		}
	})
}

func TestConsumeToken(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	user := createUser(t, store, "consume@example.com")

	id, err := store.CreateToken(ctx, &models.Token{
		UserID:     user.ID,
		TokenValue: "consume-me",
		Type:       string(models.TokenTypeNonce),
		IsValid:    true,
		ExpiresAt:  expiryIn(time.Minute),
	})
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	t.Run("first consume wins", func(t *testing.T) {
		transitioned, err := store.ConsumeToken(ctx, id)
		if err != nil {
			t.Fatalf("failed to consume: %v", err)
		}
		if !transitioned {
			t.Error("expected first consume to transition")
		}
	})

	t.Run("second consume does not transition", func(t *testing.T) {
		transitioned, err := store.ConsumeToken(ctx, id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if transitioned {
			t.Error("expected second consume to lose")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := store.ConsumeToken(ctx, "no-such-id"); !errors.Is(err, models.ErrTokenNotFound) {
			t.Errorf("expected ErrTokenNotFound, got %v", err)
		}
	})

	t.Run("exactly one concurrent winner", func(t *testing.T) {
		raceID, err := store.CreateToken(ctx, &models.Token{
			UserID:     user.ID,
			TokenValue: "race-token",
			Type:       string(models.TokenTypeNonce),
			IsValid:    true,
			ExpiresAt:  expiryIn(time.Minute),
		})
		if err != nil {
			t.Fatalf("failed to create token: %v", err)
		}

		const attempts = 8
		var wg sync.WaitGroup
		wins := make(chan bool, attempts)
		for range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				transitioned, err := store.ConsumeToken(ctx, raceID)
				if err == nil && transitioned {
					wins <- true
				}
			}()
		}
		wg.Wait()
		close(wins)

		winners := 0
		for range wins {
			winners++
		}
		if winners != 1 {
			t.Errorf("expected exactly 1 winner, got %d", winners)
		}
	})
}

func TestDeleteTokensByType(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	user := createUser(t, store, "bulk@example.com")

	for i := range 3 {
		if _, err := store.CreateToken(ctx, &models.Token{
			UserID:     user.ID,
			TokenValue: fmt.Sprintf("web-%d", i),
			Type:       string(models.TokenTypeWebSession),
			IsValid:    true,
			ExpiresAt:  expiryIn(time.Hour),
		}); err != nil {
			t.Fatalf("failed to create token: %v", err)
		}
	}
	if _, err := store.CreateToken(ctx, &models.Token{
		UserID:     user.ID,
		TokenValue: "cli-keep",
		Type:       string(models.TokenTypeCLISession),
		IsValid:    true,
	}); err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	if err := store.DeleteTokensByType(ctx, user.ID, models.TokenTypeWebSession); err != nil {
		t.Fatalf("failed to bulk delete: %v", err)
	}

	// Web sessions are gone, the CLI session survives.
	for i := range 3 {
		if _, err := store.GetTokenByValue(ctx, fmt.Sprintf("web-%d", i)); !errors.Is(err, models.ErrTokenNotFound) {
			t.Errorf("expected web token %d deleted, got %v", i, err)
		}
	}
	if _, err := store.GetTokenByValue(ctx, "cli-keep"); err != nil {
		t.Errorf("expected cli token to survive: %v", err)
	}

	// Deleting when nothing matches is not an error.
	if err := store.DeleteTokensByType(ctx, user.ID, models.TokenTypeWebSession); err != nil {
		t.Errorf("expected nil on empty bulk delete, got %v", err)
	}
}

func TestOrganizationOperations(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	creator := createUser(t, store, "founder@example.com")

	t.Run("create links creator", func(t *testing.T) {
		id, err := store.CreateOrganization(ctx, &models.Organization{Name: "acme"}, creator.ID)
		if err != nil {
			t.Fatalf("failed to create organization: %v", err)
		}

		user, err := store.GetUserByID(ctx, creator.ID)
		if err != nil {
			t.Fatalf("failed to reload creator: %v", err)
		}
		if user.OrganizationID == nil || *user.OrganizationID != id {
			t.Error("expected creator linked to organization")
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		if _, err := store.CreateOrganization(ctx, &models.Organization{Name: "acme"}, creator.ID); !errors.Is(err, models.ErrDuplicateOrganization) {
			t.Errorf("expected ErrDuplicateOrganization, got %v", err)
		}
	})

	t.Run("unknown creator leaves no partial row", func(t *testing.T) {
		if _, err := store.CreateOrganization(ctx, &models.Organization{Name: "ghost"}, "missing-user"); !errors.Is(err, models.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestProjectOperations(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	creator := createUser(t, store, "projects@example.com")

	orgID, err := store.CreateOrganization(ctx, &models.Organization{Name: "proj-org"}, creator.ID)
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	t.Run("create and get", func(t *testing.T) {
		id, err := store.CreateProject(ctx, &models.Project{Name: "api", OrganizationID: orgID})
		if err != nil {
			t.Fatalf("failed to create project: %v", err)
		}

		project, err := store.GetProjectByID(ctx, id)
		if err != nil {
			t.Fatalf("failed to get project: %v", err)
		}
		if project.OrganizationID != orgID {
			t.Errorf("expected org %s, got %s", orgID, project.OrganizationID)
		}
	})

	t.Run("orphan project rejected", func(t *testing.T) {
		if _, err := store.CreateProject(ctx, &models.Project{Name: "orphan", OrganizationID: "missing-org"}); !errors.Is(err, models.ErrOrganizationNotFound) {
			t.Errorf("expected ErrOrganizationNotFound, got %v", err)
		}
	})

	t.Run("organization lists projects", func(t *testing.T) {
		org, err := store.GetOrganizationByID(ctx, orgID)
		if err != nil {
			t.Fatalf("failed to get organization: %v", err)
		}
		if len(org.Projects) != 1 {
			t.Errorf("expected 1 project, got %d", len(org.Projects))
		}
	})
}

func TestHealthcheck(t *testing.T) {
	store := createTestStore(t)

	if err := store.Healthcheck(context.Background()); err != nil {
		t.Errorf("expected healthy store, got %v", err)
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := &PostgresConfig{
		Host:     "db.example.com",
		Port:     5432,
		Database: "skauth",
		User:     "skauth",
		Password: "secret",
		SSLMode:  "require",
	}

	dsn := cfg.DSN()
	for _, part := range []string{"host=db.example.com", "port=5432", "dbname=skauth", "sslmode=require"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("expected DSN to contain %q, got %q", part, dsn)
		}
	}
}
