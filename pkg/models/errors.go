package models

import "errors"

// Common errors for credential store and authentication operations.
var (
	// User errors
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")

	// Credential errors
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Public key errors
	ErrPublicKeyNotFound  = errors.New("public key not found")
	ErrDuplicatePublicKey = errors.New("public key already registered")

	// Token errors
	ErrTokenNotFound  = errors.New("token not found")
	ErrDuplicateToken = errors.New("token value already exists")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenRevoked   = errors.New("token has been revoked")

	// Nonce errors
	ErrNonceNotFound    = errors.New("nonce not found")
	ErrNonceAlreadyUsed = errors.New("nonce has already been used")
	ErrNonceExpired     = errors.New("nonce has expired")

	// Organization errors
	ErrOrganizationNotFound  = errors.New("organization not found")
	ErrDuplicateOrganization = errors.New("organization already exists")

	// Project errors
	ErrProjectNotFound  = errors.New("project not found")
	ErrDuplicateProject = errors.New("project already exists")
)
