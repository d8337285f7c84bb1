// Package handlers implements the HTTP surface (spec §1.13/§6) in front of
// the kernel packages: request binding/validation, permission-gated CRUD
// over the tenancy tree, invite/role-assignment orchestration, and the
// console's own login/refresh/logout session flow. No business rule lives
// here that isn't already in store/rbac/rolegraph/credential/invite/session -
// this package only translates HTTP <-> those calls, the same division the
// teacher's handlers package draws against its services package.
package handlers

import (
	"iamkernel/config"
	"iamkernel/credential"
	"iamkernel/invite"
	"iamkernel/oauth2"
	"iamkernel/rbac"
	"iamkernel/revocation"
	"iamkernel/rolegraph"
	"iamkernel/session"
	"iamkernel/store"
)

// Handlers aggregates every dependency the HTTP surface needs. It is built
// once at boot by the composition root and handed to routes.SetupRouter.
type Handlers struct {
	Config *config.Config

	Users          *store.UserRepository
	Organizations  *store.OrganizationRepository
	OrgMembers     *store.OrganizationMemberRepository
	Projects       *store.ProjectRepository
	ProjectMembers *store.ProjectMemberRepository
	APIKeys        *store.APIKeyRepository
	Roles          *store.RoleRepository
	Assignments    *store.RoleAssignmentRepository
	OAuthClients   *store.OAuthClientRepository

	Evaluator *rbac.Evaluator
	Graph     *rolegraph.Graph

	JWT       *credential.JWTSigner
	Blacklist revocation.Set
	Session   *session.Manager
	Guard     *session.LoginGuard
	Invites   *invite.Orchestrator
	OAuth2    *oauth2.Handlers

	Store *store.Store
}

// New builds a Handlers from its constituent dependencies.
func New(
	cfg *config.Config,
	users *store.UserRepository,
	organizations *store.OrganizationRepository,
	orgMembers *store.OrganizationMemberRepository,
	projects *store.ProjectRepository,
	projectMembers *store.ProjectMemberRepository,
	apiKeys *store.APIKeyRepository,
	roles *store.RoleRepository,
	assignments *store.RoleAssignmentRepository,
	oauthClients *store.OAuthClientRepository,
	evaluator *rbac.Evaluator,
	graph *rolegraph.Graph,
	jwt *credential.JWTSigner,
	blacklist revocation.Set,
	sess *session.Manager,
	guard *session.LoginGuard,
	invites *invite.Orchestrator,
	oauth2Handlers *oauth2.Handlers,
	st *store.Store,
) *Handlers {
	return &Handlers{
		Config:         cfg,
		Users:          users,
		Organizations:  organizations,
		OrgMembers:     orgMembers,
		Projects:       projects,
		ProjectMembers: projectMembers,
		APIKeys:        apiKeys,
		Roles:          roles,
		Assignments:    assignments,
		OAuthClients:   oauthClients,
		Evaluator:      evaluator,
		Graph:          graph,
		JWT:            jwt,
		Blacklist:      blacklist,
		Session:        sess,
		Guard:          guard,
		Invites:        invites,
		OAuth2:         oauth2Handlers,
		Store:          st,
	}
}
