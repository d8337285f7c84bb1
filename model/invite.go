package model

import (
	"time"

	"github.com/google/uuid"
)

// ResourceKind tells the invite orchestrator which baseline role to grant
// on acceptance and which membership table to write to.
type ResourceKind string

const (
	ResourceKindPlatform     ResourceKind = "platform"
	ResourceKindOrganization ResourceKind = "organization"
	ResourceKindProject      ResourceKind = "project"
)

// Invite is a scoped, time-bounded (<=15 min) token that grants membership
// plus a baseline role on acceptance.
type Invite struct {
	ID              uuid.UUID    `json:"id" db:"id"`
	Email           string       `json:"email" db:"email" validate:"required,email"`
	ResourceID      string       `json:"resource_id" db:"resource_id"`
	ResourceKind    ResourceKind `json:"resource_kind" db:"resource_kind"`
	TemporaryToken  string       `json:"-" db:"temporary_token"`
	InvitedByUserID uuid.UUID    `json:"invited_by_user_id" db:"invited_by_user_id"`
	ExpiresAt       time.Time    `json:"expires_at" db:"expires_at"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
}

// Session pins a browser-facing console cookie to a user and the local
// access/refresh token pair it was issued alongside.
type Session struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	UserID              uuid.UUID `json:"user_id" db:"user_id"`
	AccessTokenSignature string    `json:"-" db:"access_token_signature"`
	ExpiresAt            time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}
