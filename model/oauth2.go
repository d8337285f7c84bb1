package model

import "time"

// ClientType distinguishes public clients (no secret, e.g. native/SPA apps)
// from confidential clients (must authenticate with a secret).
type ClientType string

const (
	ClientTypePublic       ClientType = "public"
	ClientTypeConfidential ClientType = "confidential"
)

// OAuthClient is immutable except for Disabled and secret rotation.
type OAuthClient struct {
	ID                string     `json:"id" db:"id"`
	ClientID          string     `json:"client_id" db:"client_id"`
	ClientSecretHash  *string    `json:"-" db:"client_secret_hash"`
	ClientType        ClientType `json:"client_type" db:"client_type"`
	Name              string     `json:"name" db:"name"`
	RedirectURIs      []string   `json:"redirect_uris" db:"redirect_uris"`
	AllowedScopes     []string   `json:"allowed_scopes" db:"allowed_scopes"`
	AllowedGrantTypes []string   `json:"allowed_grant_types" db:"allowed_grant_types"`
	ProjectID         *string    `json:"project_id,omitempty" db:"project_id"`
	Disabled          bool       `json:"disabled" db:"disabled"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}
