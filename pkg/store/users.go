package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sk-platform/skauth/pkg/models"
)

// ============================================
// USER OPERATIONS
// ============================================

func (s *GORMStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "id", id, models.ErrUserNotFound)
}

func (s *GORMStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "email", email, models.ErrUserNotFound)
}

func (s *GORMStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	return listAll[models.User](s.db, ctx, "PublicKey")
}

func (s *GORMStore) CreateUser(ctx context.Context, user *models.User) (string, error) {
	if err := user.Validate(); err != nil {
		return "", err
	}
	return createWithID(s.db, ctx, user, func(u *models.User, id string) { u.ID = id }, user.ID, models.ErrDuplicateUser)
}

func (s *GORMStore) DeleteUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return convertNotFoundError(err, models.ErrUserNotFound)
		}

		// Tokens and keys reference the user and must go first.
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Token{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.PublicKey{}).Error; err != nil {
			return err
		}

		return tx.Delete(&user).Error
	})
}

func (s *GORMStore) ValidateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	// CLI-only identities have no password hash and can never log in
	// with a password.
	if !user.HasPassword() {
		return nil, models.ErrInvalidCredentials
	}

	if !models.VerifyPassword(password, *user.PasswordHash) {
		return nil, models.ErrInvalidCredentials
	}

	return user, nil
}
