package service

import (
	"context"
	"testing"
	"time"

	"github.com/lanternauth/lantern/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestRefreshTokenGrantRotates(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	user := createTestUser(t, st, "dave@example.com")
	client := createTestClient(t, st, "s3cret", GrantRefreshToken)

	issuer := &TokenIssuer{}
	initial, err := issuer.Issue(ctx, st, IssueSpec{
		Client:     client,
		UserID:     &user.ID,
		Scopes:     []string{"profile:read", "profile:write"},
		AccessTTL:  2 * time.Hour,
		RefreshTTL: 30 * 24 * time.Hour,
	})
	require.NoError(t, err)
	require.NotEmpty(t, initial.RefreshToken)

	g := &RefreshTokenGrant{
		Store:      st,
		Issuer:     issuer,
		AccessTTL:  2 * time.Hour,
		RefreshTTL: 30 * 24 * time.Hour,
	}

	rotated, err := g.RespondToAccessTokenRequest(ctx, tokenRequest(GrantRefreshToken, client, "s3cret",
		map[string]string{"refresh_token": initial.RefreshToken}))
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEmpty(t, rotated.RefreshToken)
	require.NotEqual(t, initial.AccessToken, rotated.AccessToken)
	require.NotEqual(t, initial.RefreshToken, rotated.RefreshToken)
	require.Equal(t, initial.Scope, rotated.Scope)

	// The old refresh token died with the rotation.
	_, err = g.RespondToAccessTokenRequest(ctx, tokenRequest(GrantRefreshToken, client, "s3cret",
		map[string]string{"refresh_token": initial.RefreshToken}))
	require.ErrorIs(t, err, ErrInvalidGrant)

	// The old access token reads as revoked too.
	old, err := st.Tokens().GetTokenByAccessHash(ctx, cryptox.FingerprintToken(initial.AccessToken))
	require.NoError(t, err)
	require.True(t, old.AccessExpired(time.Now()))

	// The rotated refresh token works exactly once.
	_, err = g.RespondToAccessTokenRequest(ctx, tokenRequest(GrantRefreshToken, client, "s3cret",
		map[string]string{"refresh_token": rotated.RefreshToken}))
	require.NoError(t, err)
	_, err = g.RespondToAccessTokenRequest(ctx, tokenRequest(GrantRefreshToken, client, "s3cret",
		map[string]string{"refresh_token": rotated.RefreshToken}))
	require.ErrorIs(t, err, ErrInvalidGrant)
}

func TestRefreshTokenGrantScopeNarrowing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	user := createTestUser(t, st, "erin@example.com")
	client := createTestClient(t, st, "", GrantRefreshToken)

	issuer := &TokenIssuer{}
	initial, err := issuer.Issue(ctx, st, IssueSpec{
		Client:     client,
		UserID:     &user.ID,
		Scopes:     []string{"profile:read", "profile:write"},
		AccessTTL:  time.Hour,
		RefreshTTL: time.Hour,
	})
	require.NoError(t, err)

	g := &RefreshTokenGrant{Store: st, Issuer: issuer, AccessTTL: time.Hour, RefreshTTL: time.Hour}

	t.Run("narrowing succeeds", func(t *testing.T) {
		pair, err := g.RespondToAccessTokenRequest(ctx, tokenRequest(GrantRefreshToken, client, "",
			map[string]string{"refresh_token": initial.RefreshToken, "scope": "profile:read"}))
		require.NoError(t, err)
		require.Equal(t, "profile:read", pair.Scope)
		initial = pair
	})

	t.Run("widening fails", func(t *testing.T) {
		_, err := g.RespondToAccessTokenRequest(ctx, tokenRequest(GrantRefreshToken, client, "",
			map[string]string{"refresh_token": initial.RefreshToken, "scope": "profile:read profile:write"}))
		require.ErrorIs(t, err, ErrInvalidScope)
	})

	t.Run("repeated scope names are not widening", func(t *testing.T) {
		pair, err := g.RespondToAccessTokenRequest(ctx, tokenRequest(GrantRefreshToken, client, "",
			map[string]string{"refresh_token": initial.RefreshToken, "scope": "profile:read profile:read"}))
		require.NoError(t, err)
		require.Equal(t, "profile:read", pair.Scope)
	})
}

func TestRefreshTokenGrantRejections(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	user := createTestUser(t, st, "frank@example.com")
	client := createTestClient(t, st, "", GrantRefreshToken)

	issuer := &TokenIssuer{}
	g := &RefreshTokenGrant{Store: st, Issuer: issuer, AccessTTL: time.Hour, RefreshTTL: time.Hour}

	t.Run("missing refresh_token parameter", func(t *testing.T) {
		_, err := g.RespondToAccessTokenRequest(ctx, tokenRequest(GrantRefreshToken, client, "", nil))
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("unknown refresh token", func(t *testing.T) {
		_, err := g.RespondToAccessTokenRequest(ctx, tokenRequest(GrantRefreshToken, client, "",
			map[string]string{"refresh_token": "bogus"}))
		require.ErrorIs(t, err, ErrInvalidGrant)
	})

	t.Run("refresh token issued to another client", func(t *testing.T) {
		other := createTestClient(t, st, "", GrantRefreshToken)
		pair, err := issuer.Issue(ctx, st, IssueSpec{
			Client:     other,
			UserID:     &user.ID,
			Scopes:     []string{"profile:read"},
			AccessTTL:  time.Hour,
			RefreshTTL: time.Hour,
		})
		require.NoError(t, err)

		_, err = g.RespondToAccessTokenRequest(ctx, tokenRequest(GrantRefreshToken, client, "",
			map[string]string{"refresh_token": pair.RefreshToken}))
		require.ErrorIs(t, err, ErrInvalidGrant)
	})

	t.Run("access-only token has no refresh half", func(t *testing.T) {
		pair, err := issuer.Issue(ctx, st, IssueSpec{
			Client:    client,
			UserID:    &user.ID,
			Scopes:    []string{"profile:read"},
			AccessTTL: time.Hour,
		})
		require.NoError(t, err)
		require.Empty(t, pair.RefreshToken)
	})
}
