package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sk-platform/skauth/pkg/models"
)

// ============================================
// ORGANIZATION OPERATIONS
// ============================================

func (s *GORMStore) GetOrganizationByID(ctx context.Context, id string) (*models.Organization, error) {
	return getByField[models.Organization](s.db, ctx, "id", id, models.ErrOrganizationNotFound, "Projects")
}

// CreateOrganization creates the organization and links the creating
// user to it inside one transaction, so other readers never observe the
// organization without its owner or vice versa.
func (s *GORMStore) CreateOrganization(ctx context.Context, org *models.Organization, creatorUserID string) (string, error) {
	if err := org.Validate(); err != nil {
		return "", err
	}
	if org.ID == "" {
		org.ID = uuid.New().String()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var creator models.User
		if err := tx.Where("id = ?", creatorUserID).First(&creator).Error; err != nil {
			return convertNotFoundError(err, models.ErrUserNotFound)
		}

		if err := tx.Create(org).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.ErrDuplicateOrganization
			}
			return err
		}

		return tx.Model(&creator).Update("organization_id", org.ID).Error
	})
	if err != nil {
		return "", err
	}
	return org.ID, nil
}

// ============================================
// PROJECT OPERATIONS
// ============================================

func (s *GORMStore) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	return getByField[models.Project](s.db, ctx, "id", id, models.ErrProjectNotFound)
}

func (s *GORMStore) CreateProject(ctx context.Context, project *models.Project) (string, error) {
	if err := project.Validate(); err != nil {
		return "", err
	}

	// The parent organization must exist; projects never dangle.
	if _, err := s.GetOrganizationByID(ctx, project.OrganizationID); err != nil {
		return "", err
	}

	return createWithID(s.db, ctx, project, func(p *models.Project, id string) { p.ID = id }, project.ID, models.ErrDuplicateProject)
}
