// Package rolegraph implements C3: role permission closure over the
// parent_id DAG, and the cycle check that must run before any role's
// parent_id is committed.
//
// The teacher's role model is flat (no parent_id), so this package has no
// direct teacher file to adapt; its SQL style follows the transactional,
// pgx.Tx-scoped query pattern used throughout the store package.
package rolegraph

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"iamkernel/apperror"
	"iamkernel/model"
	"iamkernel/store"
)

// Graph answers permission-closure and ancestry questions over the current
// role catalog. It is cheap to construct per request: role catalogs are
// small (tens to low hundreds of rows), so Expand/AllDescendants load the
// whole table once and walk it in memory rather than issuing one query per
// hop.
type Graph struct {
	roles *store.RoleRepository
}

func New(roles *store.RoleRepository) *Graph {
	return &Graph{roles: roles}
}

func (g *Graph) loadAll(ctx context.Context) (map[uuid.UUID]*model.Role, error) {
	all, err := g.roles.List(ctx)
	if err != nil {
		return nil, err
	}
	return byIDMap(all), nil
}

// loadAllTx is loadAll run against an in-flight transaction, so a caller
// pairing CheckNoCycleTx with a write sees a consistent snapshot of the
// table across both statements.
func (g *Graph) loadAllTx(ctx context.Context, tx pgx.Tx) (map[uuid.UUID]*model.Role, error) {
	all, err := g.roles.ListTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	return byIDMap(all), nil
}

func byIDMap(roles []*model.Role) map[uuid.UUID]*model.Role {
	byID := make(map[uuid.UUID]*model.Role, len(roles))
	for _, r := range roles {
		byID[r.ID] = r
	}
	return byID
}

// Expand returns the transitive closure of roleIDs and every ancestor
// reachable by following parent_id, memoized within this call so a diamond
// in the DAG is only visited once. Disabled roles are included in the
// result (so callers can inspect them) but Permissions() below excludes
// their contribution.
func (g *Graph) Expand(ctx context.Context, roleIDs []uuid.UUID) (map[uuid.UUID]*model.Role, error) {
	byID, err := g.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]*model.Role)
	queue := append([]uuid.UUID{}, roleIDs...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := result[id]; seen {
			continue
		}
		role, ok := byID[id]
		if !ok {
			continue
		}
		result[id] = role
		if role.ParentID != nil {
			queue = append(queue, *role.ParentID)
		}
	}
	return result, nil
}

// Permissions unions the permission keys of every enabled role in a
// closure produced by Expand.
func Permissions(closure map[uuid.UUID]*model.Role) map[string]struct{} {
	perms := make(map[string]struct{})
	for _, role := range closure {
		if role.Disabled {
			continue
		}
		for _, p := range role.Permissions {
			perms[p] = struct{}{}
		}
	}
	return perms
}

// AllDescendants returns every role reachable by following parent_id
// backwards from roleID (i.e. roles that have roleID somewhere in their
// ancestor chain), used by the anti-privilege-escalation check in rbac:
// a caller may only grant a role that is a descendant of one they already
// hold at the target resource or one of its ancestors.
func (g *Graph) AllDescendants(ctx context.Context, roleID uuid.UUID) (map[uuid.UUID]*model.Role, error) {
	byID, err := g.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	children := make(map[uuid.UUID][]uuid.UUID)
	for _, r := range byID {
		if r.ParentID != nil {
			children[*r.ParentID] = append(children[*r.ParentID], r.ID)
		}
	}

	result := make(map[uuid.UUID]*model.Role)
	queue := []uuid.UUID{roleID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, childID := range children[id] {
			if _, seen := result[childID]; seen {
				continue
			}
			result[childID] = byID[childID]
			queue = append(queue, childID)
		}
	}
	return result, nil
}

// IsDescendantOf reports whether candidate is roleID itself or a transitive
// child of it.
func (g *Graph) IsDescendantOf(ctx context.Context, candidate, roleID uuid.UUID) (bool, error) {
	if candidate == roleID {
		return true, nil
	}
	descendants, err := g.AllDescendants(ctx, roleID)
	if err != nil {
		return false, err
	}
	_, ok := descendants[candidate]
	return ok, nil
}

// CheckNoCycle simulates assigning newParentID as roleID's parent and
// rejects it if that would create a cycle, i.e. if roleID is already an
// ancestor of newParentID.
//
// This read must happen in the same transaction as the Role.Update that
// changes parent_id - otherwise two concurrent updates can each read a
// cycle-free graph, each pass this check, and then both commit, closing a
// loop neither one individually would have created. Callers changing
// parent_id must use CheckNoCycleTx paired with RoleRepository.UpdateTx
// inside one pgx.Tx; this method is for read-only ancestry questions and for
// Create, where the new role cannot yet be anyone's ancestor.
func (g *Graph) CheckNoCycle(ctx context.Context, roleID uuid.UUID, newParentID *uuid.UUID) error {
	byID, err := g.loadAll(ctx)
	if err != nil {
		return err
	}
	return checkNoCycle(byID, roleID, newParentID)
}

// CheckNoCycleTx is CheckNoCycle run against an in-flight transaction, for
// pairing with RoleRepository.UpdateTx when parent_id is changing.
func (g *Graph) CheckNoCycleTx(ctx context.Context, tx pgx.Tx, roleID uuid.UUID, newParentID *uuid.UUID) error {
	byID, err := g.loadAllTx(ctx, tx)
	if err != nil {
		return err
	}
	return checkNoCycle(byID, roleID, newParentID)
}

func checkNoCycle(byID map[uuid.UUID]*model.Role, roleID uuid.UUID, newParentID *uuid.UUID) error {
	if newParentID == nil {
		return nil
	}
	if *newParentID == roleID {
		return apperror.New(apperror.KindValidation, "a role cannot be its own parent")
	}

	// Walk up from newParentID; if roleID appears, assigning it as parent
	// would close a loop back to roleID.
	cur := newParentID
	visited := make(map[uuid.UUID]bool)
	for cur != nil {
		if *cur == roleID {
			return apperror.New(apperror.KindValidation, "assigning this parent would create a role cycle")
		}
		if visited[*cur] {
			// Pre-existing cycle unrelated to this change; not this call's
			// job to repair, just don't loop forever.
			break
		}
		visited[*cur] = true
		role, ok := byID[*cur]
		if !ok {
			break
		}
		cur = role.ParentID
	}
	return nil
}
