package auth

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sk-platform/skauth/pkg/models"
	"github.com/sk-platform/skauth/pkg/store"
)

// NonceLength is the number of digits in a generated nonce.
const NonceLength = 10

// DefaultNonceTTL is how long an issued nonce stays presentable.
const DefaultNonceTTL = 30 * time.Second

// NonceValidation is the result of validating a presented nonce.
type NonceValidation struct {
	// UserID is the user the nonce was issued for.
	UserID string

	// NonceID is the token row ID, used to consume the nonce once the
	// login protocol completes.
	NonceID string
}

// NonceEngine issues and consumes the short-lived challenge values of
// the CLI public-key login.
//
// Validation and invalidation are deliberately decoupled: Validate
// checks the nonce without burning it, so a failed signature
// verification leaves the nonce usable for a retried attempt within
// its window. Consume is called only after the signature check
// succeeds.
type NonceEngine struct {
	store store.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewNonceEngine creates a NonceEngine with the default 30-second TTL.
func NewNonceEngine(st store.Store) *NonceEngine {
	return &NonceEngine{
		store: st,
		ttl:   DefaultNonceTTL,
		now:   time.Now,
	}
}

// generateNonce builds a fixed-length numeric nonce: the last seven
// digits of the current epoch milliseconds followed by three random
// digits. Not cryptographically secure randomness; the 30-second TTL
// and single-use consume bound the guessing window.
func (e *NonceEngine) generateNonce() string {
	millis := e.now().UnixMilli()
	return fmt.Sprintf("%07d%03d", millis%10_000_000, rand.IntN(1000))
}

// Issue generates a nonce for the user and persists it with the
// configured TTL. The nonce is returned only after the row is stored.
// Two issuances in the same millisecond can collide on the unique
// token value, so a duplicate is retried with fresh random digits.
func (e *NonceEngine) Issue(ctx context.Context, userID string) (string, error) {
	var lastErr error
	for range 3 {
		value := e.generateNonce()
		expiresAt := e.now().Add(e.ttl)

		token := &models.Token{
			UserID:     userID,
			TokenValue: value,
			Type:       string(models.TokenTypeNonce),
			IsValid:    true,
			ExpiresAt:  &expiresAt,
		}

		_, err := e.store.CreateToken(ctx, token)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, models.ErrDuplicateToken) {
			return "", fmt.Errorf("failed to persist nonce: %w", err)
		}
		lastErr = err
	}
	return "", fmt.Errorf("failed to persist nonce: %w", lastErr)
}

// Validate looks up a presented nonce and checks its lifecycle state.
// It does NOT flip validity; the caller consumes the nonce separately
// once signature verification succeeds.
//
// Returns models.ErrNonceNotFound, models.ErrNonceAlreadyUsed, or
// models.ErrNonceExpired on the corresponding failures.
func (e *NonceEngine) Validate(ctx context.Context, value string) (*NonceValidation, error) {
	token, err := e.store.GetTokenByValue(ctx, value)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			return nil, models.ErrNonceNotFound
		}
		return nil, fmt.Errorf("failed to look up nonce: %w", err)
	}

	if token.Type != string(models.TokenTypeNonce) {
		return nil, models.ErrNonceNotFound
	}
	if !token.IsValid {
		return nil, models.ErrNonceAlreadyUsed
	}
	if token.Expired(e.now()) {
		return nil, models.ErrNonceExpired
	}

	return &NonceValidation{
		UserID:  token.UserID,
		NonceID: token.ID,
	}, nil
}

// Consume burns the nonce after a completed login. The underlying
// update is conditional on the row still being valid, so of any set of
// concurrent logins presenting the same nonce exactly one wins; the
// losers get models.ErrNonceAlreadyUsed.
func (e *NonceEngine) Consume(ctx context.Context, nonceID string) error {
	transitioned, err := e.store.ConsumeToken(ctx, nonceID)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			return models.ErrNonceNotFound
		}
		return fmt.Errorf("failed to consume nonce: %w", err)
	}
	if !transitioned {
		return models.ErrNonceAlreadyUsed
	}
	return nil
}

// Invalidate marks the nonce as used regardless of who got there
// first. Idempotent: invalidating an already-consumed nonce succeeds.
// Returns models.ErrNonceNotFound if the ID does not exist.
func (e *NonceEngine) Invalidate(ctx context.Context, nonceID string) error {
	_, err := e.store.ConsumeToken(ctx, nonceID)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			return models.ErrNonceNotFound
		}
		return fmt.Errorf("failed to invalidate nonce: %w", err)
	}
	return nil
}
