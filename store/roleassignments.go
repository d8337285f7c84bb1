package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"iamkernel/apperror"
	"iamkernel/model"
)

// RoleAssignmentRepository implements C2 for RoleAssignment. The unique
// triple (target_id, role_id, resource_id) is enforced by a database
// constraint; a duplicate assignment surfaces as KindConflict.
type RoleAssignmentRepository struct {
	store *Store
}

func NewRoleAssignmentRepository(s *Store) *RoleAssignmentRepository {
	return &RoleAssignmentRepository{store: s}
}

func (r *RoleAssignmentRepository) Create(ctx context.Context, a *model.RoleAssignment) error {
	const query = `
		INSERT INTO role_assignments (target_id, role_id, resource_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.store.Pool.QueryRow(ctx, query, a.TargetID, a.RoleID, a.ResourceID).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return translateWriteErr(err, "role assignment")
	}
	return nil
}

func (r *RoleAssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.store.Pool.Exec(ctx, `DELETE FROM role_assignments WHERE id=$1`, id)
	if err != nil {
		return translateWriteErr(err, "role assignment")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "role assignment not found")
	}
	return nil
}

// ListByTargetAndResources returns every assignment for targetID whose
// resource_id is in resourceIDs - the exact shape C5's Evaluate needs once
// it has computed the ancestor chain for a resource.
func (r *RoleAssignmentRepository) ListByTargetAndResources(ctx context.Context, targetID uuid.UUID, resourceIDs []string) ([]*model.RoleAssignment, error) {
	rows, err := r.store.Pool.Query(ctx, `
		SELECT id, target_id, role_id, resource_id, created_at
		FROM role_assignments
		WHERE target_id = $1 AND resource_id = ANY($2)
	`, targetID, resourceIDs)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to list role assignments", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

// ListByTarget returns every assignment for a target across all resources.
// The assignment-legality check uses ListByTargetAndResources instead.
func (r *RoleAssignmentRepository) ListByTarget(ctx context.Context, targetID uuid.UUID) ([]*model.RoleAssignment, error) {
	rows, err := r.store.Pool.Query(ctx, `
		SELECT id, target_id, role_id, resource_id, created_at
		FROM role_assignments WHERE target_id = $1
	`, targetID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to list role assignments", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func scanAssignments(rows pgx.Rows) ([]*model.RoleAssignment, error) {
	var out []*model.RoleAssignment
	for rows.Next() {
		a := &model.RoleAssignment{}
		if err := rows.Scan(&a.ID, &a.TargetID, &a.RoleID, &a.ResourceID, &a.CreatedAt); err != nil {
			return nil, apperror.Wrap(apperror.KindInternal, "failed to scan role assignment", err)
		}
		out = append(out, a)
	}
	return out, nil
}

// CreateWithMembership atomically creates a membership row (organization or
// project, per kind) and a baseline role assignment in one transaction -
// the operation C7's invite acceptance needs (spec §1.10 / S6).
func (r *RoleAssignmentRepository) CreateWithMembership(ctx context.Context, kind model.ResourceKind, resourceID string, userID uuid.UUID, baselineRoleID uuid.UUID) error {
	tx, err := r.store.Pool.Begin(ctx)
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, "failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var membershipTable, resourceColumn string
	switch kind {
	case model.ResourceKindOrganization:
		membershipTable, resourceColumn = "organization_members", "organization_id"
	case model.ResourceKindProject:
		membershipTable, resourceColumn = "project_members", "project_id"
	default:
		return apperror.New(apperror.KindInvalidRequest, "unknown resource kind")
	}

	_, err = tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (%s, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, membershipTable, resourceColumn), resourceID, userID)
	if err != nil {
		return translateWriteErr(err, "membership")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO role_assignments (target_id, role_id, resource_id) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, userID, baselineRoleID, resourceID)
	if err != nil {
		return translateWriteErr(err, "role assignment")
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.Wrap(apperror.KindInternal, "failed to commit membership+role assignment", err)
	}
	return nil
}
