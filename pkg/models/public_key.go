package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// PublicKey stores a user's RSA public key for the CLI
// challenge-response login.
//
// The fingerprint is the stable lookup handle the CLI presents when
// requesting a nonce; the raw PEM never travels back over the wire.
// Rows are immutable once created.
type PublicKey struct {
	Fingerprint string    `gorm:"primaryKey;size:64" json:"fingerprint"`
	KeyValue    string    `gorm:"not null" json:"-"`
	UserID      string    `gorm:"uniqueIndex;not null;size:36" json:"user_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for PublicKey.
func (PublicKey) TableName() string {
	return "public_keys"
}

// KeyFingerprint computes the canonical fingerprint of PEM key material:
// the SHA-256 hex digest of the PEM with surrounding whitespace trimmed.
// Trimming keeps the fingerprint stable across trailing-newline
// differences between key files.
func KeyFingerprint(keyPEM string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(keyPEM)))
	return hex.EncodeToString(sum[:])
}

// Validate checks if the public key has valid configuration.
func (k *PublicKey) Validate() error {
	if k.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if k.KeyValue == "" {
		return fmt.Errorf("key material is required")
	}
	if k.Fingerprint == "" {
		return fmt.Errorf("fingerprint is required")
	}
	return nil
}
