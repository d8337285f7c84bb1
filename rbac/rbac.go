// Package rbac implements C5: the permission evaluator. It climbs the
// tenancy tree (project → organization → platform), gathers every role
// assignment the principal holds at a resource on that path, expands each
// role through rolegraph, and unions the resulting permissions.
//
// Grounded on repositories/membership_repository.go's
// ListRolesWithPermissionsByUserID CTE-joining style, generalized from
// membership-keyed assignments to the (target_id, role_id, resource_id)
// model this kernel uses; the permission-constant grouping pattern follows
// the shape of the (now removed) auth/constants.go GlobalPermission/
// HasPermission helpers, with the catalog-domain keys replaced entirely.
package rbac

import (
	"context"

	"github.com/google/uuid"

	"iamkernel/apperror"
	"iamkernel/model"
	"iamkernel/principal"
	"iamkernel/rolegraph"
	"iamkernel/store"
)

// Decision is the outcome of Evaluate. Missing lists the required
// permissions that were not granted and is empty on allow.
type Decision struct {
	Allowed bool
	Missing []string
}

// Evaluator ties together the store's membership/assignment data with the
// role graph's permission closure.
type Evaluator struct {
	assignments *store.RoleAssignmentRepository
	roles       *store.RoleRepository
	projects    *store.ProjectRepository
	graph       *rolegraph.Graph
}

func New(assignments *store.RoleAssignmentRepository, roles *store.RoleRepository, projects *store.ProjectRepository, graph *rolegraph.Graph) *Evaluator {
	return &Evaluator{assignments: assignments, roles: roles, projects: projects, graph: graph}
}

// resourceChain returns resourceID together with every ancestor the
// permission walk must also check, in the fixed order project →
// organization → platform (spec §1.8).
func (e *Evaluator) resourceChain(ctx context.Context, kind model.ResourceKind, resourceID string) ([]string, error) {
	chain := []string{resourceID}
	if kind == model.ResourceKindProject {
		projectID, err := uuid.Parse(resourceID)
		if err != nil {
			return nil, apperror.New(apperror.KindValidation, "invalid project resource id")
		}
		orgID, err := e.projects.OrganizationIDFor(ctx, projectID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, orgID.String())
	}
	chain = append(chain, model.PlatformID)
	return chain, nil
}

func contains(chain []string, id string) bool {
	for _, c := range chain {
		if c == id {
			return true
		}
	}
	return false
}

// Evaluate decides whether p holds every permission in required at
// resourceID. API-key principals are additionally constrained to their own
// pinned resource_id or a descendant of it: a key pinned at a project can
// only ever be evaluated there, and a key pinned at an organization can
// reach that organization's projects but never a sibling organization. This
// is checked against resourceChain's own walk rather than trusted from the
// caller, so a handler cannot accidentally escalate a key past its pin by
// passing a wider resourceID.
func (e *Evaluator) Evaluate(ctx context.Context, p principal.Principal, kind model.ResourceKind, resourceID string, required []string) (Decision, error) {
	chain, err := e.resourceChain(ctx, kind, resourceID)
	if err != nil {
		return Decision{}, err
	}

	if p.Kind == principal.KindAPIKey {
		if p.APIKey.ResourceKind != model.ResourceKindPlatform && !contains(chain, p.APIKey.ResourceID) {
			return Decision{Allowed: false, Missing: required}, nil
		}
	}

	assignments, err := e.assignments.ListByTargetAndResources(ctx, p.ID(), chain)
	if err != nil {
		return Decision{}, err
	}
	if len(assignments) == 0 {
		return Decision{Allowed: false, Missing: required}, nil
	}

	roleIDs := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		roleIDs = append(roleIDs, a.RoleID)
	}

	closure, err := e.graph.Expand(ctx, roleIDs)
	if err != nil {
		return Decision{}, err
	}
	granted := rolegraph.Permissions(closure)

	var missing []string
	for _, perm := range required {
		if _, ok := granted[perm]; !ok {
			missing = append(missing, perm)
		}
	}
	return Decision{Allowed: len(missing) == 0, Missing: missing}, nil
}

// CanAssign implements the assignment-legality check from spec §1.8: the
// caller must hold iam.setPolicy at resourceID, and candidateRoleID must be
// a transitive child (or itself) of a role the caller already holds at
// that same scope - never a broader one.
func (e *Evaluator) CanAssign(ctx context.Context, p principal.Principal, kind model.ResourceKind, resourceID string, candidateRoleID uuid.UUID) (bool, error) {
	decision, err := e.Evaluate(ctx, p, kind, resourceID, []string{model.PermIAMSetPolicy})
	if err != nil {
		return false, err
	}
	if !decision.Allowed {
		return false, nil
	}

	chain, err := e.resourceChain(ctx, kind, resourceID)
	if err != nil {
		return false, err
	}
	assignments, err := e.assignments.ListByTargetAndResources(ctx, p.ID(), chain)
	if err != nil {
		return false, err
	}

	for _, a := range assignments {
		isChild, err := e.graph.IsDescendantOf(ctx, candidateRoleID, a.RoleID)
		if err != nil {
			return false, err
		}
		if isChild {
			return true, nil
		}
	}
	return false, nil
}
