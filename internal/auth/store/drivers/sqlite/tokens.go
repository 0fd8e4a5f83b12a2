package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lanternauth/lantern/internal/auth/domain"
)

type tokensRepo struct {
	db dbtx
}

const tokenColumns = `id, access_token_hash, access_token_expires_at,
	COALESCE(refresh_token_hash, ''), refresh_token_expires_at,
	client_id, user_id, scopes, created_at, updated_at`

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.Token) error {
	now := time.Now().UTC()

	var refreshHash sql.NullString
	var refreshExpiry sql.NullTime
	if t.RefreshTokenHash != "" {
		refreshHash = sql.NullString{String: t.RefreshTokenHash, Valid: true}
		refreshExpiry = sql.NullTime{Time: t.RefreshTokenExpiresAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tokens (id, access_token_hash, access_token_expires_at,
			refresh_token_hash, refresh_token_expires_at,
			client_id, user_id, scopes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccessTokenHash, t.AccessTokenExpiresAt,
		refreshHash, refreshExpiry,
		t.ClientID, mapOptionalString(t.UserID), joinScopes(t.Scopes),
		now, now,
	)
	return mapConstraint(err)
}

func (r *tokensRepo) GetTokenByAccessHash(ctx context.Context, hash string) (domain.Token, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE access_token_hash = ?`, hash)
	return scanToken(row)
}

func (r *tokensRepo) GetTokenByRefreshHash(ctx context.Context, hash string) (domain.Token, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE refresh_token_hash = ?`, hash)
	return scanToken(row)
}

// RevokeToken forces both expiries to the epoch. The row stays behind as an
// audit trail until housekeeping retires it.
func (r *tokensRepo) RevokeToken(ctx context.Context, id string) error {
	epoch := time.Unix(0, 0).UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE tokens
		SET access_token_expires_at = ?,
		    refresh_token_expires_at = CASE WHEN refresh_token_hash IS NULL THEN NULL ELSE ? END,
		    updated_at = ?
		WHERE id = ?`,
		epoch, epoch, time.Now().UTC(), id,
	)
	return err
}

func (r *tokensRepo) DeleteTokensExpiredBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM tokens
		WHERE access_token_expires_at < ?
		  AND (refresh_token_expires_at IS NULL OR refresh_token_expires_at < ?)`,
		cutoff, cutoff,
	)
	return err
}

func scanToken(row *sql.Row) (domain.Token, error) {
	var t domain.Token
	var refreshExpiry sql.NullTime
	var userID sql.NullString
	var scopes string

	err := row.Scan(
		&t.ID, &t.AccessTokenHash, &t.AccessTokenExpiresAt,
		&t.RefreshTokenHash, &refreshExpiry,
		&t.ClientID, &userID, &scopes, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}

	if refreshExpiry.Valid {
		t.RefreshTokenExpiresAt = refreshExpiry.Time
	}
	t.UserID = mapNullStringPtr(userID)
	t.Scopes = splitScopes(scopes)
	return t, nil
}
