// Package store provides the credential persistence layer.
//
// This package implements the Store interface for managing users,
// public keys, tokens, organizations, and projects.
//
// Two backends are supported:
//   - SQLite (single-node, default)
//   - PostgreSQL (HA-capable)
package store

import (
	"context"

	"github.com/sk-platform/skauth/pkg/models"
)

// Store provides the credential persistence interface.
//
// Thread Safety: Implementations must be safe for concurrent use from
// multiple goroutines. The store is the single synchronization point of
// the service; per-row atomicity (notably ConsumeToken) is the only
// locking the authentication protocols rely on.
type Store interface {
	// ============================================
	// USER OPERATIONS
	// ============================================

	// GetUserByID returns a user by their unique ID (UUID).
	// Returns models.ErrUserNotFound if no user has this ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUserByEmail returns a user by email.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// ListUsers returns all users.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// CreateUser creates a new user. The user ID is generated if empty.
	// Returns the generated ID.
	// Returns models.ErrDuplicateUser if a user with the same email exists.
	CreateUser(ctx context.Context, user *models.User) (string, error)

	// DeleteUser deletes a user by ID, together with the user's tokens
	// and public key, in a single transaction. Tokens and keys go first
	// to satisfy foreign-key ordering.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	DeleteUser(ctx context.Context, id string) error

	// ValidateCredentials verifies email/password credentials.
	// Returns the user if the credentials are valid.
	// Returns models.ErrInvalidCredentials if they are not, including
	// for users that have no password at all (CLI-only identities).
	ValidateCredentials(ctx context.Context, email, password string) (*models.User, error)

	// ============================================
	// PUBLIC KEY OPERATIONS
	// ============================================

	// GetPublicKeyByFingerprint returns a public key by fingerprint.
	// Returns models.ErrPublicKeyNotFound if no key matches.
	GetPublicKeyByFingerprint(ctx context.Context, fingerprint string) (*models.PublicKey, error)

	// GetPublicKeyByUserID returns the public key registered for a user.
	// Returns models.ErrPublicKeyNotFound if the user has no key.
	GetPublicKeyByUserID(ctx context.Context, userID string) (*models.PublicKey, error)

	// CreatePublicKey registers a public key.
	// Returns models.ErrDuplicatePublicKey if the fingerprint is taken
	// or the user already has a key.
	CreatePublicKey(ctx context.Context, key *models.PublicKey) error

	// ============================================
	// TOKEN OPERATIONS
	// ============================================

	// GetTokenByValue returns a token by its literal value.
	// Returns models.ErrTokenNotFound if no token matches.
	GetTokenByValue(ctx context.Context, value string) (*models.Token, error)

	// GetValidTokenByType returns the newest token for (userID, type)
	// that is still marked valid and unexpired.
	// Returns models.ErrTokenNotFound if there is none.
	GetValidTokenByType(ctx context.Context, userID string, tokenType models.TokenType) (*models.Token, error)

	// CreateToken persists a token row. The ID is generated if empty.
	// Returns the generated ID.
	CreateToken(ctx context.Context, token *models.Token) (string, error)

	// ConsumeToken flips is_valid from true to false for the given
	// token ID. The update is conditional on is_valid still being true,
	// so exactly one of any set of concurrent callers observes
	// transitioned == true.
	// Returns models.ErrTokenNotFound if the ID does not exist.
	ConsumeToken(ctx context.Context, id string) (transitioned bool, err error)

	// DeleteTokenByID removes a token row.
	// Returns models.ErrTokenNotFound if the ID does not exist.
	DeleteTokenByID(ctx context.Context, id string) error

	// DeleteTokensByType removes every token of the given type owned by
	// the user. Deleting zero rows is not an error: logout must succeed
	// even when all sessions already expired and were swept.
	DeleteTokensByType(ctx context.Context, userID string, tokenType models.TokenType) error

	// ============================================
	// ORGANIZATION OPERATIONS
	// ============================================

	// GetOrganizationByID returns an organization by ID.
	// Returns models.ErrOrganizationNotFound if it doesn't exist.
	GetOrganizationByID(ctx context.Context, id string) (*models.Organization, error)

	// CreateOrganization creates an organization and links the creating
	// user to it in the same transaction. A failure mid-sequence leaves
	// no partial row visible.
	// Returns models.ErrDuplicateOrganization on a name collision and
	// models.ErrUserNotFound if the creator doesn't exist.
	CreateOrganization(ctx context.Context, org *models.Organization, creatorUserID string) (string, error)

	// ============================================
	// PROJECT OPERATIONS
	// ============================================

	// GetProjectByID returns a project by ID.
	// Returns models.ErrProjectNotFound if it doesn't exist.
	GetProjectByID(ctx context.Context, id string) (*models.Project, error)

	// CreateProject creates a project under an organization.
	// Returns models.ErrOrganizationNotFound if the organization
	// doesn't exist.
	CreateProject(ctx context.Context, project *models.Project) (string, error)

	// ============================================
	// HEALTH & LIFECYCLE
	// ============================================

	// Healthcheck pings the underlying database.
	Healthcheck(ctx context.Context) error

	// Close releases the underlying database connection.
	Close() error
}
