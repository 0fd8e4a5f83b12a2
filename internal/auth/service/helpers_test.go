package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lanternauth/lantern/internal/auth/domain"
	"github.com/lanternauth/lantern/internal/auth/store"
	"github.com/lanternauth/lantern/internal/auth/store/drivers/sqlite"
	"github.com/lanternauth/lantern/pkg/cryptox"
	"github.com/lanternauth/lantern/pkg/idx"
	"github.com/stretchr/testify/require"
)

// newTestStore opens a throwaway file-backed sqlite store with migrations
// applied. A file DSN (rather than :memory:) keeps every pooled connection
// on the same database, which the concurrency tests depend on.
func newTestStore(t *testing.T) store.Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func createTestUser(t *testing.T, st store.Store, email string) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "argon2id-placeholder",
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func createTestClient(t *testing.T, st store.Store, secret string, grants ...string) domain.Client {
	t.Helper()

	c := domain.Client{
		ID:            idx.New().String(),
		Name:          "test-client",
		RedirectURIs:  []string{"https://app.example/callback"},
		AllowedGrants: grants,
		Scopes:        []string{"profile:read", "profile:write"},
	}
	if secret != "" {
		hash, err := cryptox.HashSecret(secret)
		require.NoError(t, err)
		c.SecretHash = hash
	}
	require.NoError(t, st.Clients().CreateClient(context.Background(), c))
	return c
}

func createTestScopes(t *testing.T, st store.Store, names ...string) {
	t.Helper()

	for _, name := range names {
		require.NoError(t, st.Scopes().CreateScope(context.Background(), domain.Scope{
			Name:        name,
			Description: name,
		}))
	}
}

// createMagicLink persists a magic-link row and returns the opaque code a
// user would present.
func createMagicLink(t *testing.T, st store.Store, client domain.Client, user domain.User, scopes []string, ttl time.Duration) string {
	t.Helper()

	code, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)

	require.NoError(t, st.MagicLinkTokens().CreateMagicLinkToken(context.Background(), domain.MagicLinkToken{
		ID:        idx.New().String(),
		CodeHash:  cryptox.FingerprintToken(code),
		ClientID:  client.ID,
		UserID:    user.ID,
		Scopes:    scopes,
		ExpiresAt: time.Now().Add(ttl),
	}))
	return code
}

func tokenRequest(grantType string, client domain.Client, secret string, params map[string]string) TokenRequest {
	form := make(map[string][]string, len(params))
	for k, v := range params {
		form[k] = []string{v}
	}
	return TokenRequest{
		GrantType:    grantType,
		ClientID:     client.ID,
		ClientSecret: secret,
		Params:       form,
	}
}
