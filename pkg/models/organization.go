package models

import (
	"fmt"
	"time"
)

// Organization is a tenant boundary. Users and projects belong to at
// most one organization.
type Organization struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null;size:255" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Projects []Project `gorm:"foreignKey:OrganizationID" json:"projects,omitempty"`
}

// TableName returns the table name for Organization.
func (Organization) TableName() string {
	return "organizations"
}

// Validate checks if the organization has valid configuration.
func (o *Organization) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
