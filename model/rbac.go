package model

import (
	"time"

	"github.com/google/uuid"
)

// Permission is an entry in the closed, startup-loaded permission string
// registry (spec §9). Keys are namespaced dotted strings, e.g. "project.get",
// "iam.setPolicy".
type Permission struct {
	Key         string `json:"key" db:"key" validate:"required,max=100"`
	Description string `json:"description,omitempty" db:"description"`
}

// Role is a named collection of permissions, optionally inheriting from a
// parent role. The parent_id edges form a DAG; cycles are rejected at write
// time by rolegraph.
type Role struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name" validate:"required,max=100"`
	Description string     `json:"description,omitempty" db:"description"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	Permissions []string   `json:"permissions" db:"permissions"`
	Disabled    bool       `json:"disabled" db:"disabled"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// RoleAssignment binds a principal (a User or an APIKey — never both) to a
// Role at a specific resource in the tenancy tree. The unique triple is
// (TargetID, RoleID, ResourceID).
type RoleAssignment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TargetID   uuid.UUID `json:"target_id" db:"target_id"`
	RoleID     uuid.UUID `json:"role_id" db:"role_id"`
	ResourceID string    `json:"resource_id" db:"resource_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Well-known permission keys. The registry is closed: anything not listed
// here is rejected by role create/update validation.
const (
	PermIAMSetPolicy     = "iam.setPolicy"
	PermIAMGetPolicy     = "iam.getPolicy"
	PermOrgGet           = "organization.get"
	PermOrgUpdate        = "organization.update"
	PermOrgDelete        = "organization.delete"
	PermOrgMembersList   = "organization.members.list"
	PermOrgMembersInvite = "organization.members.invite"
	PermProjectGet       = "project.get"
	PermProjectCreate    = "project.create"
	PermProjectUpdate    = "project.update"
	PermProjectDelete    = "project.delete"
	PermProjectMembers   = "project.members.list"
	PermAPIKeyCreate     = "apikey.create"
	PermAPIKeyRevoke     = "apikey.revoke"
	PermRoleAssign       = "role.assign"
	PermRoleRevoke       = "role.revoke"
)

// AllPermissions returns the closed permission registry, used to validate
// role permission lists at create/update time and to seed the store.
func AllPermissions() []Permission {
	return []Permission{
		{Key: PermIAMSetPolicy, Description: "grant or revoke role assignments at a resource"},
		{Key: PermIAMGetPolicy, Description: "read role assignments at a resource"},
		{Key: PermOrgGet, Description: "read an organization"},
		{Key: PermOrgUpdate, Description: "update an organization"},
		{Key: PermOrgDelete, Description: "delete an organization"},
		{Key: PermOrgMembersList, Description: "list organization members"},
		{Key: PermOrgMembersInvite, Description: "invite organization members"},
		{Key: PermProjectGet, Description: "read a project"},
		{Key: PermProjectCreate, Description: "create a project"},
		{Key: PermProjectUpdate, Description: "update a project"},
		{Key: PermProjectDelete, Description: "delete a project"},
		{Key: PermProjectMembers, Description: "list project members"},
		{Key: PermAPIKeyCreate, Description: "create an API key"},
		{Key: PermAPIKeyRevoke, Description: "revoke an API key"},
		{Key: PermRoleAssign, Description: "assign a role to a target at a resource"},
		{Key: PermRoleRevoke, Description: "revoke a role from a target at a resource"},
	}
}
