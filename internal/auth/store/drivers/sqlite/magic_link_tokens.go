package sqlite

import (
	"context"
	"time"

	"github.com/lanternauth/lantern/internal/auth/domain"
)

type magicLinkTokensRepo struct {
	db dbtx
}

func (r *magicLinkTokensRepo) CreateMagicLinkToken(
	ctx context.Context,
	m domain.MagicLinkToken,
) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO magic_link_tokens (id, code_hash, client_id, user_id, scopes, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.CodeHash, m.ClientID, m.UserID, joinScopes(m.Scopes),
		m.ExpiresAt, time.Now().UTC(),
	)
	return mapConstraint(err)
}

// ConsumeMagicLinkToken implements the single-use guarantee at the storage
// level: the row is deleted and returned in one statement, so of N
// concurrent redemptions exactly one can win the delete.
func (r *magicLinkTokensRepo) ConsumeMagicLinkToken(
	ctx context.Context,
	codeHash string,
) (domain.MagicLinkToken, error) {
	row := r.db.QueryRowContext(ctx, `
		DELETE FROM magic_link_tokens
		WHERE code_hash = ?
		RETURNING id, code_hash, client_id, user_id, scopes, expires_at, created_at`, codeHash)

	var m domain.MagicLinkToken
	var scopes string
	err := row.Scan(&m.ID, &m.CodeHash, &m.ClientID, &m.UserID, &scopes, &m.ExpiresAt, &m.CreatedAt)
	if err != nil {
		return domain.MagicLinkToken{}, mapNotFound(err)
	}

	m.Scopes = splitScopes(scopes)
	return m, nil
}

func (r *magicLinkTokensRepo) DeleteExpiredMagicLinkTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM magic_link_tokens WHERE expires_at < ?`, time.Now().UTC())
	return err
}
