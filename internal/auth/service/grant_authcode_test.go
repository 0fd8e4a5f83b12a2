package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newAuthCodeFixture(t *testing.T) (*AuthCodeService, *AuthorizationCodeGrant) {
	t.Helper()

	st := newTestStore(t)
	codec := NewAuthCodeCodec([]byte("test-signing-secret-32-bytes-long"))

	svc := &AuthCodeService{Store: st, Codec: codec, CodeTTL: 5 * time.Minute}
	grant := &AuthorizationCodeGrant{
		Store:      st,
		Issuer:     &TokenIssuer{},
		Codec:      codec,
		AccessTTL:  2 * time.Hour,
		RefreshTTL: 30 * 24 * time.Hour,
	}
	return svc, grant
}

func s256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func TestAuthorizationCodeGrantExchange(t *testing.T) {
	ctx := context.Background()
	svc, grant := newAuthCodeFixture(t)
	st := svc.Store

	user := createTestUser(t, st, "grace@example.com")
	client := createTestClient(t, st, "s3cret", GrantAuthorizationCode)

	verifier := "example-code-verifier-with-enough-entropy"
	wire, err := svc.IssueAuthorizationCode(ctx, IssueAuthorizationCodeRequest{
		Client:              client,
		UserID:              &user.ID,
		Scopes:              []string{"profile:read"},
		RedirectURI:         "https://app.example/callback",
		CodeChallenge:       s256Challenge(verifier),
		CodeChallengeMethod: "S256",
	})
	require.NoError(t, err)

	pair, err := grant.RespondToAccessTokenRequest(ctx, tokenRequest(GrantAuthorizationCode, client, "s3cret", map[string]string{
		"code":          wire,
		"redirect_uri":  "https://app.example/callback",
		"code_verifier": verifier,
	}))
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "profile:read", pair.Scope)

	// Codes are single use.
	_, err = grant.RespondToAccessTokenRequest(ctx, tokenRequest(GrantAuthorizationCode, client, "s3cret", map[string]string{
		"code":          wire,
		"redirect_uri":  "https://app.example/callback",
		"code_verifier": verifier,
	}))
	require.ErrorIs(t, err, ErrInvalidGrant)
}

func TestAuthorizationCodeGrantRejections(t *testing.T) {
	ctx := context.Background()
	svc, grant := newAuthCodeFixture(t)
	st := svc.Store

	user := createTestUser(t, st, "heidi@example.com")
	client := createTestClient(t, st, "", GrantAuthorizationCode)

	verifier := "another-code-verifier-with-enough-entropy"
	mint := func(t *testing.T) string {
		t.Helper()
		wire, err := svc.IssueAuthorizationCode(ctx, IssueAuthorizationCodeRequest{
			Client:              client,
			UserID:              &user.ID,
			Scopes:              []string{"profile:read"},
			RedirectURI:         "https://app.example/callback",
			CodeChallenge:       s256Challenge(verifier),
			CodeChallengeMethod: "S256",
		})
		require.NoError(t, err)
		return wire
	}

	t.Run("missing code parameter", func(t *testing.T) {
		_, err := grant.RespondToAccessTokenRequest(ctx, tokenRequest(GrantAuthorizationCode, client, "", nil))
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("tampered wire code fails signature check", func(t *testing.T) {
		wire := mint(t)
		_, err := grant.RespondToAccessTokenRequest(ctx, tokenRequest(GrantAuthorizationCode, client, "", map[string]string{
			"code":          wire + "x",
			"redirect_uri":  "https://app.example/callback",
			"code_verifier": verifier,
		}))
		require.ErrorIs(t, err, ErrInvalidGrant)
	})

	t.Run("redirect URI mismatch", func(t *testing.T) {
		wire := mint(t)
		_, err := grant.RespondToAccessTokenRequest(ctx, tokenRequest(GrantAuthorizationCode, client, "", map[string]string{
			"code":          wire,
			"redirect_uri":  "https://evil.example/callback",
			"code_verifier": verifier,
		}))
		require.ErrorIs(t, err, ErrInvalidGrant)
	})

	t.Run("wrong PKCE verifier", func(t *testing.T) {
		wire := mint(t)
		_, err := grant.RespondToAccessTokenRequest(ctx, tokenRequest(GrantAuthorizationCode, client, "", map[string]string{
			"code":          wire,
			"redirect_uri":  "https://app.example/callback",
			"code_verifier": "not-the-verifier",
		}))
		require.ErrorIs(t, err, ErrInvalidGrant)
	})

	t.Run("code issued to another client", func(t *testing.T) {
		other := createTestClient(t, st, "", GrantAuthorizationCode)
		wire, err := svc.IssueAuthorizationCode(ctx, IssueAuthorizationCodeRequest{
			Client: other,
			UserID: &user.ID,
			Scopes: []string{"profile:read"},
		})
		require.NoError(t, err)

		_, err = grant.RespondToAccessTokenRequest(ctx, tokenRequest(GrantAuthorizationCode, client, "", map[string]string{
			"code": wire,
		}))
		require.ErrorIs(t, err, ErrInvalidGrant)
	})

	t.Run("plain method compares verifier directly", func(t *testing.T) {
		wire, err := svc.IssueAuthorizationCode(ctx, IssueAuthorizationCodeRequest{
			Client:              client,
			UserID:              &user.ID,
			Scopes:              []string{"profile:read"},
			CodeChallenge:       "plain-challenge-value",
			CodeChallengeMethod: "plain",
		})
		require.NoError(t, err)

		pair, err := grant.RespondToAccessTokenRequest(ctx, tokenRequest(GrantAuthorizationCode, client, "", map[string]string{
			"code":          wire,
			"code_verifier": "plain-challenge-value",
		}))
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
	})
}

func TestAuthCodeCodec(t *testing.T) {
	t.Parallel()

	codec := NewAuthCodeCodec([]byte("codec-secret"))

	t.Run("round trip", func(t *testing.T) {
		wire, err := codec.Encode("code-id-1", time.Now().Add(5*time.Minute))
		require.NoError(t, err)

		id, err := codec.Decode(wire)
		require.NoError(t, err)
		require.Equal(t, "code-id-1", id)
	})

	t.Run("expired envelope is rejected", func(t *testing.T) {
		wire, err := codec.Encode("code-id-2", time.Now().Add(-1*time.Minute))
		require.NoError(t, err)

		_, err = codec.Decode(wire)
		require.Error(t, err)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		wire, err := codec.Encode("code-id-3", time.Now().Add(5*time.Minute))
		require.NoError(t, err)

		_, err = NewAuthCodeCodec([]byte("other-secret")).Decode(wire)
		require.Error(t, err)
	})
}
