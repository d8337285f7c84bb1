package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"iamkernel/apperror"
	"iamkernel/model"
)

// UserRepository implements C2 for the User entity.
type UserRepository struct {
	store *Store
}

func NewUserRepository(s *Store) *UserRepository { return &UserRepository{store: s} }

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	var metadata []byte
	if u.Metadata != nil {
		var err error
		metadata, err = json.Marshal(u.Metadata)
		if err != nil {
			return apperror.Wrap(apperror.KindInternal, "failed to marshal user metadata", err)
		}
	}

	const query = `
		INSERT INTO users (username, email, full_name, phone, hashed_password, disabled, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.store.Pool.QueryRow(ctx, query,
		u.Username, u.Email, u.FullName, u.Phone, u.HashedPassword, u.Disabled, metadata,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return translateWriteErr(err, "user")
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const query = `
		SELECT id, username, email, full_name, phone, hashed_password, disabled, metadata, created_at, updated_at
		FROM users WHERE id = $1
	`
	return r.scanOne(r.store.Pool.QueryRow(ctx, query, id))
}

// GetByNaturalKey resolves the user whose username or email equals
// identifier; one query matches both columns, with no email heuristic.
func (r *UserRepository) GetByNaturalKey(ctx context.Context, identifier string) (*model.User, error) {
	const query = `
		SELECT id, username, email, full_name, phone, hashed_password, disabled, metadata, created_at, updated_at
		FROM users WHERE username = $1 OR email = $1
	`
	return r.scanOne(r.store.Pool.QueryRow(ctx, query, identifier))
}

func (r *UserRepository) scanOne(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	var metadata []byte
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Phone, &u.HashedPassword,
		&u.Disabled, &metadata, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.KindNotFound, "user not found")
		}
		return nil, apperror.Wrap(apperror.KindInternal, "failed to read user", err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &u.Metadata); err != nil {
			return nil, apperror.Wrap(apperror.KindInternal, "failed to unmarshal user metadata", err)
		}
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	var metadata []byte
	if u.Metadata != nil {
		var err error
		metadata, err = json.Marshal(u.Metadata)
		if err != nil {
			return apperror.Wrap(apperror.KindInternal, "failed to marshal user metadata", err)
		}
	}

	const query = `
		UPDATE users SET username=$2, email=$3, full_name=$4, phone=$5, hashed_password=$6,
			metadata=$7, updated_at=now()
		WHERE id=$1
		RETURNING updated_at
	`
	tag, err := r.store.Pool.Exec(ctx, query, u.ID, u.Username, u.Email, u.FullName, u.Phone, u.HashedPassword, metadata)
	if err != nil {
		return translateWriteErr(err, "user")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "user not found")
	}
	return nil
}

func (r *UserRepository) SetDisabled(ctx context.Context, id uuid.UUID, disabled bool) error {
	const query = `UPDATE users SET disabled=$2, updated_at=now() WHERE id=$1`
	tag, err := r.store.Pool.Exec(ctx, query, id, disabled)
	if err != nil {
		return translateWriteErr(err, "user")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "user not found")
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.store.Pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return translateWriteErr(err, "user")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "user not found")
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, p ListParams) (Page[*model.User], error) {
	limit := p.NormalizedLimit()
	order, cmp, c, reversed, err := pageQuery(ctx, r.store.Pool, "users", p)
	if err != nil {
		return Page[*model.User]{}, err
	}

	args := []interface{}{limit + 1}
	query := `
		SELECT id, username, email, full_name, phone, hashed_password, disabled, metadata, created_at, updated_at
		FROM users
	`
	if c != nil {
		args = append(args, c.SortAt, c.ID)
		query += fmt.Sprintf(" WHERE (created_at, id) %s ($2, $3)", cmp)
	}
	query += fmt.Sprintf(" ORDER BY created_at %s, id %s LIMIT $1", order, order)

	rows, err := r.store.Pool.Query(ctx, query, args...)
	if err != nil {
		return Page[*model.User]{}, apperror.Wrap(apperror.KindInternal, "failed to list users", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u := &model.User{}
		var metadata []byte
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Phone, &u.HashedPassword,
			&u.Disabled, &metadata, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return Page[*model.User]{}, apperror.Wrap(apperror.KindInternal, "failed to scan user", err)
		}
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &u.Metadata)
		}
		users = append(users, u)
	}

	hasMore := len(users) > limit
	if hasMore {
		users = users[:limit]
	}
	if reversed {
		reverseSlice(users)
	}
	return Page[*model.User]{Data: users, HasMore: hasMore}, nil
}

// translateWriteErr maps a pgx write error onto an apperror kind: a unique
// violation (23505) becomes KindConflict, anything else KindInternal.
func translateWriteErr(err error, entity string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperror.New(apperror.KindConflict, entity+" already exists")
	}
	return apperror.Wrap(apperror.KindInternal, "store write failed", err)
}
