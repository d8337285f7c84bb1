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

// OrganizationRepository implements C2 for Organization.
type OrganizationRepository struct {
	store *Store
}

func NewOrganizationRepository(s *Store) *OrganizationRepository {
	return &OrganizationRepository{store: s}
}

func (r *OrganizationRepository) Create(ctx context.Context, o *model.Organization) error {
	const query = `
		INSERT INTO organizations (name, slug, description, disabled)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.store.Pool.QueryRow(ctx, query, o.Name, o.Slug, o.Description, o.Disabled).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return translateWriteErr(err, "organization")
	}
	return nil
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	const query = `
		SELECT id, name, slug, description, disabled, created_at, updated_at
		FROM organizations WHERE id = $1
	`
	return scanOrganization(r.store.Pool.QueryRow(ctx, query, id))
}

func scanOrganization(row pgx.Row) (*model.Organization, error) {
	o := &model.Organization{}
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.Description, &o.Disabled, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.KindNotFound, "organization not found")
		}
		return nil, apperror.Wrap(apperror.KindInternal, "failed to read organization", err)
	}
	return o, nil
}

func (r *OrganizationRepository) Update(ctx context.Context, o *model.Organization) error {
	const query = `
		UPDATE organizations SET name=$2, slug=$3, description=$4, disabled=$5, updated_at=now()
		WHERE id=$1
	`
	tag, err := r.store.Pool.Exec(ctx, query, o.ID, o.Name, o.Slug, o.Description, o.Disabled)
	if err != nil {
		return translateWriteErr(err, "organization")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "organization not found")
	}
	return nil
}

func (r *OrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.store.Pool.Exec(ctx, `DELETE FROM organizations WHERE id=$1`, id)
	if err != nil {
		return translateWriteErr(err, "organization")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "organization not found")
	}
	return nil
}

func (r *OrganizationRepository) List(ctx context.Context, p ListParams) (Page[*model.Organization], error) {
	limit := p.NormalizedLimit()
	order, cmp, c, reversed, err := pageQuery(ctx, r.store.Pool, "organizations", p)
	if err != nil {
		return Page[*model.Organization]{}, err
	}

	args := []interface{}{limit + 1}
	query := `SELECT id, name, slug, description, disabled, created_at, updated_at FROM organizations`
	if c != nil {
		args = append(args, c.SortAt, c.ID)
		query += fmt.Sprintf(" WHERE (created_at, id) %s ($2, $3)", cmp)
	}
	query += fmt.Sprintf(" ORDER BY created_at %s, id %s LIMIT $1", order, order)

	rows, err := r.store.Pool.Query(ctx, query, args...)
	if err != nil {
		return Page[*model.Organization]{}, apperror.Wrap(apperror.KindInternal, "failed to list organizations", err)
	}
	defer rows.Close()

	var orgs []*model.Organization
	for rows.Next() {
		o := &model.Organization{}
		if err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.Description, &o.Disabled, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return Page[*model.Organization]{}, apperror.Wrap(apperror.KindInternal, "failed to scan organization", err)
		}
		orgs = append(orgs, o)
	}

	hasMore := len(orgs) > limit
	if hasMore {
		orgs = orgs[:limit]
	}
	if reversed {
		reverseSlice(orgs)
	}
	return Page[*model.Organization]{Data: orgs, HasMore: hasMore}, nil
}

// OrganizationMemberRepository implements C2 for OrganizationMember.
type OrganizationMemberRepository struct {
	store *Store
}

func NewOrganizationMemberRepository(s *Store) *OrganizationMemberRepository {
	return &OrganizationMemberRepository{store: s}
}

func (r *OrganizationMemberRepository) Add(ctx context.Context, m *model.OrganizationMember) error {
	const query = `
		INSERT INTO organization_members (organization_id, user_id)
		VALUES ($1, $2)
		RETURNING id, joined_at
	`
	err := r.store.Pool.QueryRow(ctx, query, m.OrganizationID, m.UserID).Scan(&m.ID, &m.JoinedAt)
	if err != nil {
		return translateWriteErr(err, "organization membership")
	}
	return nil
}

func (r *OrganizationMemberRepository) Remove(ctx context.Context, organizationID, userID uuid.UUID) error {
	tag, err := r.store.Pool.Exec(ctx, `
		DELETE FROM organization_members WHERE organization_id=$1 AND user_id=$2
	`, organizationID, userID)
	if err != nil {
		return translateWriteErr(err, "organization membership")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "organization membership not found")
	}
	return nil
}

func (r *OrganizationMemberRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*model.OrganizationMember, error) {
	rows, err := r.store.Pool.Query(ctx, `
		SELECT id, organization_id, user_id, joined_at FROM organization_members WHERE organization_id=$1
	`, organizationID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to list organization members", err)
	}
	defer rows.Close()

	var out []*model.OrganizationMember
	for rows.Next() {
		m := &model.OrganizationMember{}
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.JoinedAt); err != nil {
			return nil, apperror.Wrap(apperror.KindInternal, "failed to scan organization member", err)
		}
		out = append(out, m)
	}
	return out, nil
}
