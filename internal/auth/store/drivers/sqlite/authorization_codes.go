package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lanternauth/lantern/internal/auth/domain"
)

type authorizationCodesRepo struct {
	db dbtx
}

func (r *authorizationCodesRepo) CreateAuthorizationCode(
	ctx context.Context,
	c domain.AuthorizationCode,
) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO authorization_codes (id, code_hash, redirect_uri, code_challenge,
			code_challenge_method, client_id, user_id, scopes, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CodeHash, c.RedirectURI, c.CodeChallenge, c.CodeChallengeMethod,
		c.ClientID, mapOptionalString(c.UserID), joinScopes(c.Scopes),
		c.ExpiresAt, time.Now().UTC(),
	)
	return mapConstraint(err)
}

// ConsumeAuthorizationCode deletes the code row and returns it in one
// statement. DELETE ... RETURNING means only one concurrent redeemer can
// ever observe the row; everyone else sees ErrNotFound.
func (r *authorizationCodesRepo) ConsumeAuthorizationCode(
	ctx context.Context,
	codeHash string,
) (domain.AuthorizationCode, error) {
	row := r.db.QueryRowContext(ctx, `
		DELETE FROM authorization_codes
		WHERE code_hash = ?
		RETURNING id, code_hash, redirect_uri, code_challenge, code_challenge_method,
			client_id, user_id, scopes, expires_at, created_at`, codeHash)

	var c domain.AuthorizationCode
	var userID sql.NullString
	var scopes string
	err := row.Scan(
		&c.ID, &c.CodeHash, &c.RedirectURI, &c.CodeChallenge, &c.CodeChallengeMethod,
		&c.ClientID, &userID, &scopes, &c.ExpiresAt, &c.CreatedAt,
	)
	if err != nil {
		return domain.AuthorizationCode{}, mapNotFound(err)
	}

	c.UserID = mapNullStringPtr(userID)
	c.Scopes = splitScopes(scopes)
	return c, nil
}

func (r *authorizationCodesRepo) DeleteExpiredAuthorizationCodes(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM authorization_codes WHERE expires_at < ?`, time.Now().UTC())
	return err
}
