package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"iamkernel/apperror"
	"iamkernel/model"
)

// SessionRepository implements C2/C8 storage for console browser sessions.
type SessionRepository struct {
	store *Store
}

func NewSessionRepository(s *Store) *SessionRepository { return &SessionRepository{store: s} }

func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	const query = `
		INSERT INTO sessions (user_id, access_token_signature, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.store.Pool.QueryRow(ctx, query, s.UserID, s.AccessTokenSignature, s.ExpiresAt).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return translateWriteErr(err, "session")
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	const query = `
		SELECT id, user_id, access_token_signature, expires_at, created_at
		FROM sessions WHERE id = $1
	`
	return scanSession(r.store.Pool.QueryRow(ctx, query, id))
}

func scanSession(row pgx.Row) (*model.Session, error) {
	s := &model.Session{}
	err := row.Scan(&s.ID, &s.UserID, &s.AccessTokenSignature, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.KindNotFound, "session not found")
		}
		return nil, apperror.Wrap(apperror.KindInternal, "failed to read session", err)
	}
	return s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.store.Pool.Exec(ctx, `DELETE FROM sessions WHERE id=$1`, id)
	if err != nil {
		return translateWriteErr(err, "session")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "session not found")
	}
	return nil
}

func (r *SessionRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.store.Pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return translateWriteErr(err, "session")
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.store.Pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, apperror.Wrap(apperror.KindInternal, "failed to purge sessions", err)
	}
	return tag.RowsAffected(), nil
}
