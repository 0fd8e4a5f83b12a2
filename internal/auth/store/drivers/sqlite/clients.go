package sqlite

import (
	"context"
	"time"

	"github.com/lanternauth/lantern/internal/auth/domain"
)

type clientsRepo struct {
	db dbtx
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(secret_hash, ''), redirect_uris, allowed_grants, scopes, created_at, updated_at
		FROM clients WHERE id = ?`, id)

	var c domain.Client
	var redirectURIs, allowedGrants, scopes string
	err := row.Scan(&c.ID, &c.Name, &c.SecretHash, &redirectURIs, &allowedGrants, &scopes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	c.RedirectURIs = splitList(redirectURIs)
	c.AllowedGrants = splitList(allowedGrants)
	c.Scopes = splitScopes(scopes)
	return c, nil
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, secret_hash, redirect_uris, allowed_grants, scopes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, mapStringNull(c.SecretHash),
		joinList(c.RedirectURIs), joinList(c.AllowedGrants), joinScopes(c.Scopes),
		now, now,
	)
	return mapConstraint(err)
}

func (r *clientsRepo) DeleteClient(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	return err
}
