package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"iamkernel/apperror"
	"iamkernel/model"
)

// APIKeyRepository implements C2 for APIKey. Lookup by presented secret goes
// through GetByDecoratorAndPrefix first, narrowing to a handful of rows
// before principal.Resolve runs the PBKDF2 comparison - the prefix column
// exists purely to keep that lookup indexed instead of a full table scan.
type APIKeyRepository struct {
	store *Store
}

func NewAPIKeyRepository(s *Store) *APIKeyRepository { return &APIKeyRepository{store: s} }

func (r *APIKeyRepository) Create(ctx context.Context, k *model.APIKey) error {
	const query = `
		INSERT INTO api_keys (user_id, resource_kind, resource_id, decorator, prefix, secret_hash, salt, name, disabled, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`
	err := r.store.Pool.QueryRow(ctx, query, k.UserID, k.ResourceKind, k.ResourceID, k.Decorator, k.Prefix,
		k.SecretHash, k.Salt, k.Name, k.Disabled, k.ExpiresAt).
		Scan(&k.ID, &k.CreatedAt)
	if err != nil {
		return translateWriteErr(err, "api key")
	}
	return nil
}

func (r *APIKeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.APIKey, error) {
	const query = `
		SELECT id, user_id, resource_kind, resource_id, decorator, prefix, secret_hash, salt, name, disabled, expires_at, created_at, last_used_at
		FROM api_keys WHERE id = $1
	`
	return scanAPIKey(r.store.Pool.QueryRow(ctx, query, id))
}

// GetByDecoratorAndPrefix returns the candidate rows matching a presented
// key's decorator and secret prefix. Collisions on the 8-character prefix
// are possible; callers must still run the constant-time secret comparison
// against every candidate.
func (r *APIKeyRepository) GetByDecoratorAndPrefix(ctx context.Context, decorator, prefix string) ([]*model.APIKey, error) {
	rows, err := r.store.Pool.Query(ctx, `
		SELECT id, user_id, resource_kind, resource_id, decorator, prefix, secret_hash, salt, name, disabled, expires_at, created_at, last_used_at
		FROM api_keys WHERE decorator = $1 AND prefix = $2
	`, decorator, prefix)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to look up api key", err)
	}
	defer rows.Close()

	var out []*model.APIKey
	for rows.Next() {
		k, err := scanAPIKeyRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

func scanAPIKeyRow(rows pgx.Rows) (*model.APIKey, error) {
	k := &model.APIKey{}
	if err := rows.Scan(&k.ID, &k.UserID, &k.ResourceKind, &k.ResourceID, &k.Decorator, &k.Prefix, &k.SecretHash,
		&k.Salt, &k.Name, &k.Disabled, &k.ExpiresAt, &k.CreatedAt, &k.LastUsedAt); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to scan api key", err)
	}
	return k, nil
}

func scanAPIKey(row pgx.Row) (*model.APIKey, error) {
	k := &model.APIKey{}
	err := row.Scan(&k.ID, &k.UserID, &k.ResourceKind, &k.ResourceID, &k.Decorator, &k.Prefix, &k.SecretHash,
		&k.Salt, &k.Name, &k.Disabled, &k.ExpiresAt, &k.CreatedAt, &k.LastUsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.KindNotFound, "api key not found")
		}
		return nil, apperror.Wrap(apperror.KindInternal, "failed to read api key", err)
	}
	return k, nil
}

func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.store.Pool.Exec(ctx, `UPDATE api_keys SET last_used_at = now() WHERE id = $1`, id)
	if err != nil {
		return translateWriteErr(err, "api key")
	}
	return nil
}

func (r *APIKeyRepository) SetDisabled(ctx context.Context, id uuid.UUID, disabled bool) error {
	tag, err := r.store.Pool.Exec(ctx, `UPDATE api_keys SET disabled = $2 WHERE id = $1`, id, disabled)
	if err != nil {
		return translateWriteErr(err, "api key")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "api key not found")
	}
	return nil
}

func (r *APIKeyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.store.Pool.Exec(ctx, `DELETE FROM api_keys WHERE id=$1`, id)
	if err != nil {
		return translateWriteErr(err, "api key")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "api key not found")
	}
	return nil
}

// ListByResource returns every key pinned to exactly resourceID, newest
// first, for the /v1/.../api-keys listing endpoints.
func (r *APIKeyRepository) ListByResource(ctx context.Context, resourceID string) ([]*model.APIKey, error) {
	rows, err := r.store.Pool.Query(ctx, `
		SELECT id, user_id, resource_kind, resource_id, decorator, prefix, secret_hash, salt, name, disabled, expires_at, created_at, last_used_at
		FROM api_keys WHERE resource_id = $1 ORDER BY created_at DESC
	`, resourceID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to list api keys", err)
	}
	defer rows.Close()

	var out []*model.APIKey
	for rows.Next() {
		k, err := scanAPIKeyRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// ListByUser returns every key a given user created, across all resources.
func (r *APIKeyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.APIKey, error) {
	rows, err := r.store.Pool.Query(ctx, `
		SELECT id, user_id, resource_kind, resource_id, decorator, prefix, secret_hash, salt, name, disabled, expires_at, created_at, last_used_at
		FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to list api keys", err)
	}
	defer rows.Close()

	var out []*model.APIKey
	for rows.Next() {
		k, err := scanAPIKeyRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}
