package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"iamkernel/apperror"
	"iamkernel/model"
)

// InviteRepository implements C2 for Invite. Acceptance is orchestrated by
// package invite, which creates the membership + role assignment in a
// single transaction via RoleAssignmentRepository.CreateWithMembership and
// deletes the invite row after that transaction has committed.
type InviteRepository struct {
	store *Store
}

func NewInviteRepository(s *Store) *InviteRepository { return &InviteRepository{store: s} }

func (r *InviteRepository) Create(ctx context.Context, inv *model.Invite) error {
	const query = `
		INSERT INTO invites (email, resource_id, resource_kind, temporary_token, invited_by_user_id, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.store.Pool.QueryRow(ctx, query, inv.Email, inv.ResourceID, inv.ResourceKind,
		inv.TemporaryToken, inv.InvitedByUserID, inv.ExpiresAt).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return translateWriteErr(err, "invite")
	}
	return nil
}

// GetLiveByEmailAndResource returns the unexpired invite already outstanding
// for this (email, resource_id) pair, if any - used by invite.Create to make
// re-inviting the same address idempotent instead of piling up rows.
func (r *InviteRepository) GetLiveByEmailAndResource(ctx context.Context, email, resourceID string) (*model.Invite, error) {
	const query = `
		SELECT id, email, resource_id, resource_kind, temporary_token, invited_by_user_id, expires_at, created_at
		FROM invites WHERE email = $1 AND resource_id = $2 AND expires_at > now()
	`
	return scanInvite(r.store.Pool.QueryRow(ctx, query, email, resourceID))
}

func (r *InviteRepository) GetByToken(ctx context.Context, token string) (*model.Invite, error) {
	const query = `
		SELECT id, email, resource_id, resource_kind, temporary_token, invited_by_user_id, expires_at, created_at
		FROM invites WHERE temporary_token = $1
	`
	return scanInvite(r.store.Pool.QueryRow(ctx, query, token))
}

func scanInvite(row pgx.Row) (*model.Invite, error) {
	inv := &model.Invite{}
	err := row.Scan(&inv.ID, &inv.Email, &inv.ResourceID, &inv.ResourceKind, &inv.TemporaryToken,
		&inv.InvitedByUserID, &inv.ExpiresAt, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.KindNotFound, "invite not found")
		}
		return nil, apperror.Wrap(apperror.KindInternal, "failed to read invite", err)
	}
	return inv, nil
}

// DeleteByID removes an invite after it has been accepted or explicitly
// revoked, so a token can never be replayed.
func (r *InviteRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	tag, err := r.store.Pool.Exec(ctx, `DELETE FROM invites WHERE id=$1`, id)
	if err != nil {
		return translateWriteErr(err, "invite")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "invite not found")
	}
	return nil
}

// DeleteByEmailAndResource removes any (expired) invite rows for this pair
// so a fresh one can be inserted without tripping the (email, resource_id)
// uniqueness constraint.
func (r *InviteRepository) DeleteByEmailAndResource(ctx context.Context, email, resourceID string) error {
	_, err := r.store.Pool.Exec(ctx, `DELETE FROM invites WHERE email=$1 AND resource_id=$2`, email, resourceID)
	if err != nil {
		return translateWriteErr(err, "invite")
	}
	return nil
}

func (r *InviteRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.store.Pool.Exec(ctx, `DELETE FROM invites WHERE expires_at < now()`)
	if err != nil {
		return 0, apperror.Wrap(apperror.KindInternal, "failed to purge invites", err)
	}
	return tag.RowsAffected(), nil
}
