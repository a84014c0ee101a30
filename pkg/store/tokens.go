package store

import (
	"context"
	"time"

	"github.com/sk-platform/skauth/pkg/models"
)

// ============================================
// TOKEN OPERATIONS
// ============================================

func (s *GORMStore) GetTokenByValue(ctx context.Context, value string) (*models.Token, error) {
	return getByField[models.Token](s.db, ctx, "token_value", value, models.ErrTokenNotFound)
}

func (s *GORMStore) GetValidTokenByType(ctx context.Context, userID string, tokenType models.TokenType) (*models.Token, error) {
	var token models.Token
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND is_valid = ?", userID, string(tokenType), true).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Order("created_at DESC").
		First(&token).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrTokenNotFound)
	}
	return &token, nil
}

func (s *GORMStore) CreateToken(ctx context.Context, token *models.Token) (string, error) {
	if err := token.Validate(); err != nil {
		return "", err
	}
	return createWithID(s.db, ctx, token, func(t *models.Token, id string) { t.ID = id }, token.ID, models.ErrDuplicateToken)
}

// ConsumeToken flips is_valid from true to false for the given token ID.
//
// The WHERE clause makes the update conditional on the row still being
// valid, which gives the single-use guarantee the nonce protocol needs:
// two concurrent logins presenting the same nonce race on this UPDATE
// and exactly one of them sees transitioned == true.
func (s *GORMStore) ConsumeToken(ctx context.Context, id string) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Token{}).
		Where("id = ? AND is_valid = ?", id, true).
		Update("is_valid", false)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	// No row transitioned: distinguish "already consumed" from
	// "no such token".
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Token{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, models.ErrTokenNotFound
	}
	return false, nil
}

func (s *GORMStore) DeleteTokenByID(ctx context.Context, id string) error {
	return deleteByField[models.Token](s.db, ctx, "id", id, models.ErrTokenNotFound)
}

func (s *GORMStore) DeleteTokensByType(ctx context.Context, userID string, tokenType models.TokenType) error {
	// Bulk revoke: multiple historical rows of the same type may exist
	// from expired-but-undeleted sessions, and deleting zero rows is
	// fine (logout after expiry sweep).
	return s.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, string(tokenType)).
		Delete(&models.Token{}).Error
}
