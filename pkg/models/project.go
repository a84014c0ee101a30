package models

import (
	"fmt"
	"time"
)

// Project groups resources inside an organization.
type Project struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID string    `gorm:"not null;index;size:36" json:"organization_id"`
	Name           string    `gorm:"not null;size:255" json:"name"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Project.
func (Project) TableName() string {
	return "projects"
}

// Validate checks if the project has valid configuration.
func (p *Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.OrganizationID == "" {
		return fmt.Errorf("organization id is required")
	}
	return nil
}
