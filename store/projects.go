package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"iamkernel/apperror"
	"iamkernel/model"
)

// ProjectRepository implements C2 for Project.
type ProjectRepository struct {
	store *Store
}

func NewProjectRepository(s *Store) *ProjectRepository { return &ProjectRepository{store: s} }

func (r *ProjectRepository) Create(ctx context.Context, p *model.Project) error {
	const query = `
		INSERT INTO projects (organization_id, name, slug, description, disabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.store.Pool.QueryRow(ctx, query, p.OrganizationID, p.Name, p.Slug, p.Description, p.Disabled).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return translateWriteErr(err, "project")
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	const query = `
		SELECT id, organization_id, name, slug, description, disabled, created_at, updated_at
		FROM projects WHERE id = $1
	`
	return scanProject(r.store.Pool.QueryRow(ctx, query, id))
}

// OrganizationIDFor resolves a project's parent organization id - the
// single hop rbac.Evaluate needs to climb from a project resource_id to its
// organization before reaching the platform root.
func (r *ProjectRepository) OrganizationIDFor(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var orgID uuid.UUID
	err := r.store.Pool.QueryRow(ctx, `SELECT organization_id FROM projects WHERE id = $1`, id).Scan(&orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, apperror.New(apperror.KindNotFound, "project not found")
		}
		return uuid.Nil, apperror.Wrap(apperror.KindInternal, "failed to resolve project organization", err)
	}
	return orgID, nil
}

func scanProject(row pgx.Row) (*model.Project, error) {
	p := &model.Project{}
	err := row.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Slug, &p.Description, &p.Disabled, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.KindNotFound, "project not found")
		}
		return nil, apperror.Wrap(apperror.KindInternal, "failed to read project", err)
	}
	return p, nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	const query = `
		UPDATE projects SET name=$2, slug=$3, description=$4, disabled=$5, updated_at=now()
		WHERE id=$1
	`
	tag, err := r.store.Pool.Exec(ctx, query, p.ID, p.Name, p.Slug, p.Description, p.Disabled)
	if err != nil {
		return translateWriteErr(err, "project")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "project not found")
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.store.Pool.Exec(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return translateWriteErr(err, "project")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "project not found")
	}
	return nil
}

func (r *ProjectRepository) List(ctx context.Context, organizationID uuid.UUID, p ListParams) (Page[*model.Project], error) {
	limit := p.NormalizedLimit()
	order, cmp, c, reversed, err := pageQuery(ctx, r.store.Pool, "projects", p)
	if err != nil {
		return Page[*model.Project]{}, err
	}

	args := []interface{}{limit + 1, organizationID}
	query := `
		SELECT id, organization_id, name, slug, description, disabled, created_at, updated_at
		FROM projects WHERE organization_id = $2
	`
	if c != nil {
		args = append(args, c.SortAt, c.ID)
		query += fmt.Sprintf(" AND (created_at, id) %s ($3, $4)", cmp)
	}
	query += fmt.Sprintf(" ORDER BY created_at %s, id %s LIMIT $1", order, order)

	rows, err := r.store.Pool.Query(ctx, query, args...)
	if err != nil {
		return Page[*model.Project]{}, apperror.Wrap(apperror.KindInternal, "failed to list projects", err)
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		p := &model.Project{}
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Slug, &p.Description, &p.Disabled, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return Page[*model.Project]{}, apperror.Wrap(apperror.KindInternal, "failed to scan project", err)
		}
		projects = append(projects, p)
	}

	hasMore := len(projects) > limit
	if hasMore {
		projects = projects[:limit]
	}
	if reversed {
		reverseSlice(projects)
	}
	return Page[*model.Project]{Data: projects, HasMore: hasMore}, nil
}

// ProjectMemberRepository implements C2 for ProjectMember.
type ProjectMemberRepository struct {
	store *Store
}

func NewProjectMemberRepository(s *Store) *ProjectMemberRepository {
	return &ProjectMemberRepository{store: s}
}

func (r *ProjectMemberRepository) Add(ctx context.Context, m *model.ProjectMember) error {
	const query = `
		INSERT INTO project_members (project_id, user_id)
		VALUES ($1, $2)
		RETURNING id, joined_at
	`
	err := r.store.Pool.QueryRow(ctx, query, m.ProjectID, m.UserID).Scan(&m.ID, &m.JoinedAt)
	if err != nil {
		return translateWriteErr(err, "project membership")
	}
	return nil
}

func (r *ProjectMemberRepository) Remove(ctx context.Context, projectID, userID uuid.UUID) error {
	tag, err := r.store.Pool.Exec(ctx, `
		DELETE FROM project_members WHERE project_id=$1 AND user_id=$2
	`, projectID, userID)
	if err != nil {
		return translateWriteErr(err, "project membership")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "project membership not found")
	}
	return nil
}

func (r *ProjectMemberRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*model.ProjectMember, error) {
	rows, err := r.store.Pool.Query(ctx, `
		SELECT id, project_id, user_id, joined_at FROM project_members WHERE project_id=$1
	`, projectID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to list project members", err)
	}
	defer rows.Close()

	var out []*model.ProjectMember
	for rows.Next() {
		m := &model.ProjectMember{}
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.JoinedAt); err != nil {
			return nil, apperror.Wrap(apperror.KindInternal, "failed to scan project member", err)
		}
		out = append(out, m)
	}
	return out, nil
}
