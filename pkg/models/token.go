package models

import (
	"fmt"
	"time"
)

// TokenType classifies the rows in the tokens table.
//
// The table is the single revocation record for every credential the
// service hands out: login nonces, web and CLI sessions, and one-time
// key-generation tokens all share the same lifecycle fields.
type TokenType string

const (
	// TokenTypeNonce is a short-lived, single-use challenge value for
	// the CLI public-key login.
	TokenTypeNonce TokenType = "nonce"
	// TokenTypeWebSession is a browser session credential delivered as
	// an HTTP-only cookie.
	TokenTypeWebSession TokenType = "web-session"
	// TokenTypeCLISession is a long-lived CLI session credential. It is
	// the only type allowed to omit an expiry.
	TokenTypeCLISession TokenType = "cli-session"
	// TokenTypeKeyGen is a one-time token authorizing first-time public
	// key registration.
	TokenTypeKeyGen TokenType = "key-gen"
)

// IsValid checks if the type is a known TokenType.
func (t TokenType) IsValid() bool {
	switch t {
	case TokenTypeNonce, TokenTypeWebSession, TokenTypeCLISession, TokenTypeKeyGen:
		return true
	}
	return false
}

// IsSession reports whether the type is a reusable session credential.
func (t TokenType) IsSession() bool {
	return t == TokenTypeWebSession || t == TokenTypeCLISession
}

// Token is the persisted record backing a credential.
//
// A token is usable only while IsValid is true and ExpiresAt (when set)
// is in the future; both conditions are checked on every use. ExpiresAt
// is a pointer because cli-session tokens may live until explicitly
// revoked.
type Token struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"not null;index;size:36" json:"user_id"`
	TokenValue  string     `gorm:"uniqueIndex;not null" json:"-"`
	Type        string     `gorm:"not null;index;size:50" json:"type"`
	Fingerprint *string    `gorm:"index;size:64" json:"fingerprint,omitempty"`
	IsValid     bool       `gorm:"not null;default:true" json:"is_valid"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Token.
func (Token) TableName() string {
	return "tokens"
}

// Expired reports whether the token's expiry has passed at the given time.
// Tokens without an expiry never expire.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// Usable reports whether the token is valid and unexpired at the given time.
func (t *Token) Usable(now time.Time) bool {
	return t.IsValid && !t.Expired(now)
}

// Validate checks if the token has valid configuration.
func (t *Token) Validate() error {
	if t.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if t.TokenValue == "" {
		return fmt.Errorf("token value is required")
	}
	if !TokenType(t.Type).IsValid() {
		return fmt.Errorf("invalid token type %q", t.Type)
	}
	if TokenType(t.Type) != TokenTypeCLISession && t.ExpiresAt == nil {
		return fmt.Errorf("token type %q requires an expiry", t.Type)
	}
	return nil
}
