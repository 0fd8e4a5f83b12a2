package service

import (
	"context"
	"testing"
	"time"

	"github.com/lanternauth/lantern/internal/auth/domain"
	"github.com/lanternauth/lantern/internal/auth/store"
	"github.com/lanternauth/lantern/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

// collidingStore fails CreateToken with ErrAlreadyExists a fixed number
// of times before accepting, standing in for a fingerprint collision.
type collidingStore struct {
	store.Store
	tokens *collidingTokens
}

func (s *collidingStore) Tokens() store.Tokens { return s.tokens }

type collidingTokens struct {
	store.Tokens
	failures int
	created  []domain.Token
}

func (t *collidingTokens) CreateToken(_ context.Context, tok domain.Token) error {
	if t.failures > 0 {
		t.failures--
		return store.ErrAlreadyExists
	}
	t.created = append(t.created, tok)
	return nil
}

func TestTokenIssuerCollisionRetry(t *testing.T) {
	ctx := context.Background()
	issuer := &TokenIssuer{}
	client := domain.Client{ID: "client-1"}

	t.Run("retries on collision", func(t *testing.T) {
		st := &collidingStore{tokens: &collidingTokens{failures: 2}}

		pair, err := issuer.Issue(ctx, st, IssueSpec{
			Client:    client,
			Scopes:    []string{"profile:read"},
			AccessTTL: time.Hour,
		})
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
		require.Len(t, st.tokens.created, 1)
	})

	t.Run("gives up after exhausting attempts", func(t *testing.T) {
		st := &collidingStore{tokens: &collidingTokens{failures: maxIssueAttempts}}

		_, err := issuer.Issue(ctx, st, IssueSpec{
			Client:    client,
			Scopes:    []string{"profile:read"},
			AccessTTL: time.Hour,
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("regenerates fresh values per attempt", func(t *testing.T) {
		st := &collidingStore{tokens: &collidingTokens{}}

		first, err := issuer.Issue(ctx, st, IssueSpec{Client: client, AccessTTL: time.Hour})
		require.NoError(t, err)
		second, err := issuer.Issue(ctx, st, IssueSpec{Client: client, AccessTTL: time.Hour})
		require.NoError(t, err)

		require.NotEqual(t, first.AccessToken, second.AccessToken)
	})
}

func TestTokenIssuerPersistsFingerprintsOnly(t *testing.T) {
	ctx := context.Background()
	st := &collidingStore{tokens: &collidingTokens{}}
	issuer := &TokenIssuer{}

	userID := "user-1"
	pair, err := issuer.Issue(ctx, st, IssueSpec{
		Client:     domain.Client{ID: "client-1"},
		UserID:     &userID,
		Scopes:     []string{"profile:read"},
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	require.Len(t, st.tokens.created, 1)
	row := st.tokens.created[0]

	require.NotEqual(t, pair.AccessToken, row.AccessTokenHash)
	require.Equal(t, cryptox.FingerprintToken(pair.AccessToken), row.AccessTokenHash)
	require.Equal(t, cryptox.FingerprintToken(pair.RefreshToken), row.RefreshTokenHash)
	require.Equal(t, &userID, row.UserID)
	require.True(t, row.RefreshTokenExpiresAt.After(row.AccessTokenExpiresAt))
}
