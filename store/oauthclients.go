package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"iamkernel/apperror"
	"iamkernel/model"
)

// OAuthClientRepository implements C2 for OAuthClient. Dynamic client
// registration is a Non-goal; clients are provisioned through this
// repository only by console/admin operations.
type OAuthClientRepository struct {
	store *Store
}

func NewOAuthClientRepository(s *Store) *OAuthClientRepository { return &OAuthClientRepository{store: s} }

func (r *OAuthClientRepository) Create(ctx context.Context, c *model.OAuthClient) error {
	const query = `
		INSERT INTO oauth_clients (id, client_id, client_secret_hash, client_type, name,
			redirect_uris, allowed_scopes, allowed_grant_types, project_id, disabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	err := r.store.Pool.QueryRow(ctx, query, c.ID, c.ClientID, c.ClientSecretHash, c.ClientType, c.Name,
		c.RedirectURIs, c.AllowedScopes, c.AllowedGrantTypes, c.ProjectID, c.Disabled).Scan(&c.CreatedAt)
	if err != nil {
		return translateWriteErr(err, "oauth client")
	}
	return nil
}

// GetByClientID loads one client by its client_id. fosite reads clients
// through oauth2.Store.GetClient, not through this method.
func (r *OAuthClientRepository) GetByClientID(ctx context.Context, clientID string) (*model.OAuthClient, error) {
	const query = `
		SELECT id, client_id, client_secret_hash, client_type, name, redirect_uris,
			allowed_scopes, allowed_grant_types, project_id, disabled, created_at
		FROM oauth_clients WHERE client_id = $1
	`
	return scanOAuthClient(r.store.Pool.QueryRow(ctx, query, clientID))
}

func scanOAuthClient(row pgx.Row) (*model.OAuthClient, error) {
	c := &model.OAuthClient{}
	err := row.Scan(&c.ID, &c.ClientID, &c.ClientSecretHash, &c.ClientType, &c.Name, &c.RedirectURIs,
		&c.AllowedScopes, &c.AllowedGrantTypes, &c.ProjectID, &c.Disabled, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.KindNotFound, "oauth client not found")
		}
		return nil, apperror.Wrap(apperror.KindInternal, "failed to read oauth client", err)
	}
	return c, nil
}

func (r *OAuthClientRepository) SetDisabled(ctx context.Context, id string, disabled bool) error {
	tag, err := r.store.Pool.Exec(ctx, `UPDATE oauth_clients SET disabled = $2 WHERE id = $1`, id, disabled)
	if err != nil {
		return translateWriteErr(err, "oauth client")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "oauth client not found")
	}
	return nil
}

func (r *OAuthClientRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.store.Pool.Exec(ctx, `DELETE FROM oauth_clients WHERE id=$1`, id)
	if err != nil {
		return translateWriteErr(err, "oauth client")
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.KindNotFound, "oauth client not found")
	}
	return nil
}

func (r *OAuthClientRepository) List(ctx context.Context) ([]*model.OAuthClient, error) {
	rows, err := r.store.Pool.Query(ctx, `
		SELECT id, client_id, client_secret_hash, client_type, name, redirect_uris,
			allowed_scopes, allowed_grant_types, project_id, disabled, created_at
		FROM oauth_clients ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to list oauth clients", err)
	}
	defer rows.Close()

	var out []*model.OAuthClient
	for rows.Next() {
		c := &model.OAuthClient{}
		if err := rows.Scan(&c.ID, &c.ClientID, &c.ClientSecretHash, &c.ClientType, &c.Name, &c.RedirectURIs,
			&c.AllowedScopes, &c.AllowedGrantTypes, &c.ProjectID, &c.Disabled, &c.CreatedAt); err != nil {
			return nil, apperror.Wrap(apperror.KindInternal, "failed to scan oauth client", err)
		}
		out = append(out, c)
	}
	return out, nil
}
