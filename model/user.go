// Package model defines the entities of the identity and access kernel:
// users, OAuth clients, tokens, API keys, roles, role assignments, the
// tenancy tree (organizations/projects), invites, sessions, and the closed
// permission registry.
package model

import (
	"time"

	"github.com/google/uuid"
)

// PlatformID is the synthetic root of the tenancy tree. Every permission
// walk terminates here, and assignments made at PlatformID apply everywhere.
const PlatformID = "00000000-0000-0000-0000-000000000000"

// User is a platform-wide account. Disabled rather than deleted so that
// historical role assignments and audit trails remain coherent.
type User struct {
	ID             uuid.UUID              `json:"id" db:"id"`
	Username       string                 `json:"username" db:"username" validate:"required,min=4,max=32,alphanum_dash"`
	Email          *string                `json:"email,omitempty" db:"email" validate:"omitempty,email"`
	FullName       *string                `json:"full_name,omitempty" db:"full_name"`
	Phone          *string                `json:"phone,omitempty" db:"phone"`
	HashedPassword string                 `json:"-" db:"hashed_password"`
	Disabled       bool                   `json:"disabled" db:"disabled"`
	Metadata       map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at" db:"updated_at"`
}

// RegisterUserRequest is the registration DTO. The submitted cleartext
// password is deliberately named differently from the stored field: it is
// hashed before it ever reaches the store.
type RegisterUserRequest struct {
	Username string  `json:"username" validate:"required,min=4,max=32,alphanum_dash"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password string  `json:"password" validate:"required"`
	FullName *string `json:"full_name,omitempty"`
}
