package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"iamkernel/apperror"
	"iamkernel/model"
)

// RoleRepository implements C2 for Role. Role-graph traversal (C3) lives in
// package rolegraph, which loads every row through List/ListTx and walks
// the parent links in memory.
type RoleRepository struct {
	store *Store
}

func NewRoleRepository(s *Store) *RoleRepository { return &RoleRepository{store: s} }

func (r *RoleRepository) Create(ctx context.Context, role *model.Role) error {
	const query = `
		INSERT INTO roles (name, description, parent_id, permissions, disabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.store.Pool.QueryRow(ctx, query, role.Name, role.Description, role.ParentID, role.Permissions, role.Disabled).
		Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return translateWriteErr(err, "role")
	}
	return nil
}

func (r *RoleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	const query = `
		SELECT id, name, description, parent_id, permissions, disabled, created_at, updated_at
		FROM roles WHERE id = $1
	`
	return r.scanOne(r.store.Pool.QueryRow(ctx, query, id))
}

func (r *RoleRepository) scanOne(row pgx.Row) (*model.Role, error) {
	role := &model.Role{}
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.ParentID, &role.Permissions,
		&role.Disabled, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.KindNotFound, "role not found")
		}
		return nil, apperror.Wrap(apperror.KindInternal, "failed to read role", err)
	}
	return role, nil
}

// GetByName resolves a role by its unique name, used to look up the
// baseline role granted on invite acceptance ("OrganizationViewer" /
// "ProjectViewer").
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*model.Role, error) {
	const query = `
		SELECT id, name, description, parent_id, permissions, disabled, created_at, updated_at
		FROM roles WHERE name = $1
	`
	return r.scanOne(r.store.Pool.QueryRow(ctx, query, name))
}

// Update replaces name/description/parent_id/permissions/disabled. Whenever
// parent_id changes, the caller must run rolegraph.Graph.CheckNoCycleTx and
// this method inside the same transaction (UpdateTx) - otherwise two
// concurrent updates can each pass the cycle check before either commits and
// together close a loop in the role DAG. See handlers.UpdateRole.
func (r *RoleRepository) Update(ctx context.Context, role *model.Role) error {
	return r.update(ctx, r.store.Pool, role)
}

// UpdateTx is Update run against an in-flight transaction, for callers that
// must pair it with a cycle check over the same view of the table.
func (r *RoleRepository) UpdateTx(ctx context.Context, tx pgx.Tx, role *model.Role) error {
	return r.update(ctx, tx, role)
}

func (r *RoleRepository) update(ctx context.Context, q Querier, role *model.Role) error {
	const query = `
		UPDATE roles SET name=$2, description=$3, parent_id=$4, permissions=$5, disabled=$6, updated_at=now()
		WHERE id=$1
	`
	tag, err := q.Exec(ctx, query, role.ID, role.Name, role.Description, role.ParentID, role.Permissions, role.Disabled)
	if err != nil {
		return translateWriteErr(err, "role")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "role not found")
	}
	return nil
}

func (r *RoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.store.Pool.Exec(ctx, `DELETE FROM roles WHERE id=$1`, id)
	if err != nil {
		return translateWriteErr(err, "role")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "role not found")
	}
	return nil
}

func (r *RoleRepository) List(ctx context.Context) ([]*model.Role, error) {
	return r.list(ctx, r.store.Pool)
}

// ListTx is List run against an in-flight transaction, used by
// rolegraph.Graph.CheckNoCycleTx so the cycle check sees the same
// transaction-local view of the table that the paired update will write to.
func (r *RoleRepository) ListTx(ctx context.Context, tx pgx.Tx) ([]*model.Role, error) {
	return r.list(ctx, tx)
}

func (r *RoleRepository) list(ctx context.Context, q Querier) ([]*model.Role, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, description, parent_id, permissions, disabled, created_at, updated_at
		FROM roles ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to list roles", err)
	}
	defer rows.Close()

	var roles []*model.Role
	for rows.Next() {
		role := &model.Role{}
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.ParentID, &role.Permissions,
			&role.Disabled, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, apperror.Wrap(apperror.KindInternal, "failed to scan role", err)
		}
		roles = append(roles, role)
	}
	return roles, nil
}
