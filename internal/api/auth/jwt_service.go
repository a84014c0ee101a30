package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sk-platform/skauth/pkg/models"
)

// Common errors for JWT operations.
var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrInvalidTokenType    = errors.New("invalid token type")
	ErrTokenSigningFailed  = errors.New("failed to sign token")
	ErrInvalidSecretLength = errors.New("JWT secret must be at least 32 characters")
)

// JWTConfig holds configuration for JWT token generation.
type JWTConfig struct {
	// Secret is the HMAC signing key. Must be at least 32 characters.
	Secret string

	// Issuer is the token issuer claim. Default: "skauth"
	Issuer string

	// SessionLifetime is the lifetime of web session tokens.
	// Default: 24 hours.
	SessionLifetime time.Duration

	// KeyGenLifetime is the lifetime of one-time key-gen tokens.
	// Default: 1 hour.
	KeyGenLifetime time.Duration
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service with the given configuration.
func NewJWTService(config JWTConfig) (*JWTService, error) {
	if len(config.Secret) < 32 {
		return nil, ErrInvalidSecretLength
	}

	// Apply defaults
	if config.Issuer == "" {
		config.Issuer = "skauth"
	}
	if config.SessionLifetime == 0 {
		config.SessionLifetime = 24 * time.Hour
	}
	if config.KeyGenLifetime == 0 {
		config.KeyGenLifetime = time.Hour
	}

	return &JWTService{config: config}, nil
}

// GenerateToken creates a signed token of the given type for the user.
//
// CLI session tokens carry no expiry claim: they are valid until the
// server-side revocation row is deleted. Every other type gets an
// ExpiresAt claim from the configured lifetimes.
func (s *JWTService) GenerateToken(user *models.User, tokenType models.TokenType, issuedAt time.Time) (string, *time.Time, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   s.config.Issuer,
			Subject:  user.ID,
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		TokenType: tokenType,
	}

	var expiresAt *time.Time
	switch tokenType {
	case models.TokenTypeCLISession:
		// no expiry claim
	case models.TokenTypeKeyGen:
		exp := issuedAt.Add(s.config.KeyGenLifetime)
		claims.ExpiresAt = jwt.NewNumericDate(exp)
		expiresAt = &exp
	default:
		exp := issuedAt.Add(s.config.SessionLifetime)
		claims.ExpiresAt = jwt.NewNumericDate(exp)
		expiresAt = &exp
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", nil, ErrTokenSigningFailed
	}

	return signedToken, expiresAt, nil
}

// ValidateToken validates a JWT token and returns the claims.
// Returns ErrExpiredToken for expired tokens and ErrInvalidToken for
// any other verification failure (bad signature, malformed payload,
// wrong algorithm).
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ValidateSessionToken validates a token and ensures it's a session token.
func (s *JWTService) ValidateSessionToken(tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if !claims.IsSession() {
		return nil, ErrInvalidTokenType
	}

	return claims, nil
}

// ValidateKeyGenToken validates a token and ensures it's a one-time
// key-gen token.
func (s *JWTService) ValidateKeyGenToken(tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if !claims.IsKeyGen() {
		return nil, ErrInvalidTokenType
	}

	return claims, nil
}

// GetSessionLifetime returns the configured session token lifetime.
func (s *JWTService) GetSessionLifetime() time.Duration {
	return s.config.SessionLifetime
}

// TokenFingerprint computes the SHA-256 hex digest of a signed token
// string. The fingerprint is stored alongside the token row so the row
// can be found by an indexed lookup without decoding the token.
func TokenFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
