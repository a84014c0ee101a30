package models

import (
	"fmt"
	"net/mail"
	"time"
)

// UserRole represents the role of a user in the system.
type UserRole string

const (
	// RoleAdmin is an administrator with full permissions.
	RoleAdmin UserRole = "admin"
	// RoleViewer is a read-only user with no management permissions.
	RoleViewer UserRole = "viewer"
)

// IsValid checks if the role is a valid UserRole.
func (r UserRole) IsValid() bool {
	return r == RoleAdmin || r == RoleViewer
}

// User represents an account that can authenticate against the service.
//
// Web administrators carry a bcrypt password hash. CLI-only identities
// authenticate exclusively through the public-key challenge-response
// flow and have no password hash at all, which is why PasswordHash is
// a pointer.
type User struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Email          string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash   *string   `json:"-"`
	Role           string    `gorm:"not null;default:viewer;size:50" json:"role"`
	OrganizationID *string   `gorm:"size:36" json:"organization_id,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// One-to-one relationship with the user's registered public key.
	PublicKey *PublicKey `gorm:"foreignKey:UserID" json:"public_key,omitempty"`

	// One-to-many relationship with issued tokens.
	Tokens []Token `gorm:"foreignKey:UserID" json:"-"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// HasPassword reports whether the user can log in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// IsAdmin checks if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == string(RoleAdmin)
}

// GetRole returns the user's role as a UserRole type.
func (u *User) GetRole() UserRole {
	return UserRole(u.Role)
}

// Validate checks if the user has valid configuration.
func (u *User) Validate() error {
	if u.Email == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return fmt.Errorf("invalid email %q", u.Email)
	}
	if u.Role != "" && !UserRole(u.Role).IsValid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	return nil
}
