package store

import (
	"context"

	"github.com/sk-platform/skauth/pkg/models"
)

// ============================================
// PUBLIC KEY OPERATIONS
// ============================================

func (s *GORMStore) GetPublicKeyByFingerprint(ctx context.Context, fingerprint string) (*models.PublicKey, error) {
	return getByField[models.PublicKey](s.db, ctx, "fingerprint", fingerprint, models.ErrPublicKeyNotFound)
}

func (s *GORMStore) GetPublicKeyByUserID(ctx context.Context, userID string) (*models.PublicKey, error) {
	return getByField[models.PublicKey](s.db, ctx, "user_id", userID, models.ErrPublicKeyNotFound)
}

func (s *GORMStore) CreatePublicKey(ctx context.Context, key *models.PublicKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(key).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.ErrDuplicatePublicKey
		}
		return err
	}
	return nil
}
