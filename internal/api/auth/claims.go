// Package auth implements the credential protocols of skauth: JWT
// session issuance, the nonce challenge engine for the CLI login, and
// RSA signature verification.
package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/sk-platform/skauth/pkg/models"
)

// Claims represents the JWT claims embedded in every token skauth
// signs: web sessions, CLI sessions, and one-time key-gen tokens.
//
// The token is deliberately thin: it proves integrity and carries the
// user ID, but validity is always cross-checked against the token's
// revocation row in the store. A verified signature alone never grants
// access.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the unique identifier (UUID) for the user.
	UserID string `json:"uid"`

	// Email is the user's email address.
	Email string `json:"email,omitempty"`

	// Role is the user's role at issuance time.
	Role string `json:"role,omitempty"`

	// TokenType records which kind of credential this token is.
	TokenType models.TokenType `json:"token_type"`
}

// IsSession returns true if this token is a reusable session credential.
func (c *Claims) IsSession() bool {
	return c.TokenType.IsSession()
}

// IsKeyGen returns true if this is a one-time key-generation token.
func (c *Claims) IsKeyGen() bool {
	return c.TokenType == models.TokenTypeKeyGen
}
