package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sk-platform/skauth/pkg/models"
	"github.com/sk-platform/skauth/pkg/store"
)

// Session is an issued session credential.
type Session struct {
	// Token is the signed JWT handed to the client.
	Token string

	// ExpiresAt is the token expiry, nil for cli-session tokens.
	ExpiresAt *time.Time

	// Reused is true when an existing valid session was returned
	// instead of minting a new one.
	Reused bool
}

// SessionIssuer mints session tokens and maintains their server-side
// revocation rows.
//
// A token is never handed to a caller before its row is persisted: the
// revocation row is what makes server-side logout possible, so an
// unpersisted token would be unrevokable.
type SessionIssuer struct {
	jwt   *JWTService
	store store.Store
	now   func() time.Time
}

// NewSessionIssuer creates a SessionIssuer backed by the given store.
func NewSessionIssuer(jwtService *JWTService, st store.Store) *SessionIssuer {
	return &SessionIssuer{
		jwt:   jwtService,
		store: st,
		now:   time.Now,
	}
}

// CreateSession returns a session token for the user.
//
// Re-login is idempotent per (user, session type): if a valid token of
// the requested type already exists it is returned unchanged, so
// repeated logins do not multiply live sessions.
func (i *SessionIssuer) CreateSession(ctx context.Context, user *models.User, sessionType models.TokenType) (*Session, error) {
	if !sessionType.IsSession() {
		return nil, fmt.Errorf("%w: %s is not a session type", ErrInvalidTokenType, sessionType)
	}

	existing, err := i.store.GetValidTokenByType(ctx, user.ID, sessionType)
	if err == nil {
		return &Session{
			Token:     existing.TokenValue,
			ExpiresAt: existing.ExpiresAt,
			Reused:    true,
		}, nil
	}
	if !errors.Is(err, models.ErrTokenNotFound) {
		return nil, fmt.Errorf("failed to look up existing session: %w", err)
	}

	signed, expiresAt, err := i.jwt.GenerateToken(user, sessionType, i.now())
	if err != nil {
		return nil, err
	}

	fingerprint := TokenFingerprint(signed)
	token := &models.Token{
		UserID:      user.ID,
		TokenValue:  signed,
		Type:        string(sessionType),
		Fingerprint: &fingerprint,
		IsValid:     true,
		ExpiresAt:   expiresAt,
	}

	if _, err := i.store.CreateToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to persist session token: %w", err)
	}

	return &Session{
		Token:     signed,
		ExpiresAt: expiresAt,
	}, nil
}

// CreateKeyGenToken mints a one-time key-gen token for the user and
// persists its row. The token authorizes a single public key
// registration and is burned on verification.
func (i *SessionIssuer) CreateKeyGenToken(ctx context.Context, user *models.User) (string, error) {
	signed, expiresAt, err := i.jwt.GenerateToken(user, models.TokenTypeKeyGen, i.now())
	if err != nil {
		return "", err
	}

	fingerprint := TokenFingerprint(signed)
	token := &models.Token{
		UserID:      user.ID,
		TokenValue:  signed,
		Type:        string(models.TokenTypeKeyGen),
		Fingerprint: &fingerprint,
		IsValid:     true,
		ExpiresAt:   expiresAt,
	}

	if _, err := i.store.CreateToken(ctx, token); err != nil {
		return "", fmt.Errorf("failed to persist key-gen token: %w", err)
	}

	return signed, nil
}

// VerifyKeyGenToken checks a one-time key-gen token and burns it.
//
// The row is deleted (not just invalidated) after a successful
// verification, so a second presentation fails the store lookup.
func (i *SessionIssuer) VerifyKeyGenToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := i.jwt.ValidateKeyGenToken(tokenString)
	if err != nil {
		return nil, err
	}

	record, err := i.store.GetTokenByValue(ctx, tokenString)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up key-gen token: %w", err)
	}

	if !record.Usable(i.now()) {
		return nil, ErrExpiredToken
	}

	if err := i.store.DeleteTokenByID(ctx, record.ID); err != nil {
		return nil, fmt.Errorf("failed to burn key-gen token: %w", err)
	}

	return claims, nil
}
