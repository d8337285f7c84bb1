package model

import (
	"time"

	"github.com/google/uuid"
)

// APIKey is a long-lived credential for process-to-process callers. The
// wire format is "<decorator>-<secret>"; only the PBKDF2 hash and the
// secret's first 8 characters (for indexed lookup) are persisted.
//
// Every key is pinned to exactly one ResourceID at creation (the
// organization or project it was issued for, or PlatformID) and carries the
// UserID of whoever created it, for audit and for revoking every key a user
// owns when that user is disabled. rbac.Evaluate uses ResourceKind/ResourceID
// to confine the key to that resource and its ancestors - it can never act
// on a sibling or descendant resource outside its pin.
type APIKey struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	UserID       uuid.UUID    `json:"user_id" db:"user_id"`
	ResourceKind ResourceKind `json:"resource_kind" db:"resource_kind"`
	ResourceID   string       `json:"resource_id" db:"resource_id"`
	Decorator    string       `json:"decorator" db:"decorator"`
	Prefix       string       `json:"-" db:"prefix"`
	SecretHash   string       `json:"-" db:"secret_hash"`
	Salt         string       `json:"-" db:"salt"`
	Name         string       `json:"name" db:"name"`
	Disabled     bool         `json:"disabled" db:"disabled"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	LastUsedAt   *time.Time   `json:"last_used_at,omitempty" db:"last_used_at"`
}
