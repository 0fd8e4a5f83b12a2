package store

import (
	"context"
	"errors"
	"time"

	"github.com/lanternauth/lantern/internal/auth/domain"
)

var (
	ErrNotFound = errors.New("store: not found")

	// ErrAlreadyExists is returned when an insert violates a uniqueness
	// constraint. For token rows this signals a (vanishingly rare) random
	// collision and the caller should regenerate and retry rather than
	// overwrite.
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. Sub-repositories keep the per-entity contracts tidy and
// individually mockable.
type Store interface {
	Clients() Clients
	Users() Users
	Scopes() Scopes
	Tokens() Tokens
	AuthorizationCodes() AuthorizationCodes
	MagicLinkTokens() MagicLinkTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST Commit() or Rollback() the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction; fn returning an error rolls
	// back, nil commits. Prefer this over Tx for multi-step operations that
	// must be atomic (refresh rotation, code redemption).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Same repos, plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Clients interface {
	// GetClientByID fetches a client for grant validation.
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// CreateClient inserts a new client. Provisioning is an admin concern;
	// the grant engine never calls this.
	CreateClient(ctx context.Context, c domain.Client) error

	DeleteClient(ctx context.Context, id string) error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used by the magic-link send flow.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	CreateUser(ctx context.Context, u domain.User) error

	DeleteUser(ctx context.Context, id string) error
}

type Scopes interface {
	GetScopeByName(ctx context.Context, name string) (domain.Scope, error)

	// FilterKnown returns, in request order, the subset of names that exist
	// as provisioned scopes. Unknown names are silently dropped.
	FilterKnown(ctx context.Context, names []string) ([]string, error)

	CreateScope(ctx context.Context, s domain.Scope) error
}

type Tokens interface {
	// CreateToken inserts a new access/refresh pair. Returns
	// ErrAlreadyExists on a token-value collision.
	CreateToken(ctx context.Context, t domain.Token) error

	// GetTokenByAccessHash fetches a token row by the fingerprint of the
	// presented access token value.
	GetTokenByAccessHash(ctx context.Context, hash string) (domain.Token, error)

	// GetTokenByRefreshHash fetches a token row by the fingerprint of the
	// presented refresh token value.
	GetTokenByRefreshHash(ctx context.Context, hash string) (domain.Token, error)

	// RevokeToken forces both expiries to the epoch, keeping the row as an
	// audit trail. Revoking an already-revoked token is a no-op.
	RevokeToken(ctx context.Context, id string) error

	// DeleteTokensExpiredBefore removes rows whose access and refresh halves
	// both expired before the cutoff (housekeeping; the cutoff implements
	// the audit-retention window).
	DeleteTokensExpiredBefore(ctx context.Context, cutoff time.Time) error
}

type AuthorizationCodes interface {
	CreateAuthorizationCode(ctx context.Context, c domain.AuthorizationCode) error

	// ConsumeAuthorizationCode atomically deletes the code row identified by
	// the fingerprint and returns it. At most one concurrent caller wins;
	// the rest get ErrNotFound.
	ConsumeAuthorizationCode(ctx context.Context, codeHash string) (domain.AuthorizationCode, error)

	DeleteExpiredAuthorizationCodes(ctx context.Context) error
}

type MagicLinkTokens interface {
	CreateMagicLinkToken(ctx context.Context, m domain.MagicLinkToken) error

	// ConsumeMagicLinkToken atomically deletes the token row identified by
	// the fingerprint and returns it. This is the single-use guarantee: two
	// concurrent redemptions of the same code cannot both succeed.
	ConsumeMagicLinkToken(ctx context.Context, codeHash string) (domain.MagicLinkToken, error)

	DeleteExpiredMagicLinkTokens(ctx context.Context) error
}
