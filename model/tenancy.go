package model

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the middle tier of the tenancy tree (platform → org →
// project).
type Organization struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name" validate:"required,max=150"`
	Slug        string    `json:"slug" db:"slug" validate:"required,max=80"`
	Description *string   `json:"description,omitempty" db:"description"`
	Disabled    bool      `json:"disabled" db:"disabled"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Project belongs to exactly one Organization; it is the leaf of the
// tenancy tree and the most common resource_id used in permission checks.
type Project struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name" validate:"required,max=150"`
	Slug           string    `json:"slug" db:"slug" validate:"required,max=80"`
	Description    *string   `json:"description,omitempty" db:"description"`
	Disabled       bool      `json:"disabled" db:"disabled"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// OrganizationMember links a User to an Organization. Role assignment is
// separate (RoleAssignment); membership alone grants no permissions.
type OrganizationMember struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	JoinedAt       time.Time `json:"joined_at" db:"joined_at"`
}

// ProjectMember links a User to a Project.
type ProjectMember struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	JoinedAt  time.Time `json:"joined_at" db:"joined_at"`
}
