package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/lanternauth/lantern/internal/auth/domain"
	"github.com/lanternauth/lantern/internal/auth/store"
	"github.com/lanternauth/lantern/pkg/cryptox"
	"github.com/lanternauth/lantern/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingCleanup(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	user := createTestUser(t, st, "kim@example.com")
	client := createTestClient(t, st, "", GrantMagicLink)

	expiredCode := createMagicLink(t, st, client, user, nil, -1*time.Hour)
	liveCode := createMagicLink(t, st, client, user, nil, 1*time.Hour)

	staleToken := domain.Token{
		ID:                   idx.New().String(),
		AccessTokenHash:      cryptox.FingerprintToken("stale-access"),
		AccessTokenExpiresAt: time.Now().Add(-60 * 24 * time.Hour),
		ClientID:             client.ID,
		Scopes:               []string{"profile:read"},
	}
	require.NoError(t, st.Tokens().CreateToken(ctx, staleToken))

	svc := NewHousekeepingService(st, slog.Default(), time.Hour, 30*24*time.Hour)
	svc.cleanup()

	_, err := st.MagicLinkTokens().ConsumeMagicLinkToken(ctx, cryptox.FingerprintToken(expiredCode))
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.MagicLinkTokens().ConsumeMagicLinkToken(ctx, cryptox.FingerprintToken(liveCode))
	require.NoError(t, err)

	_, err = st.Tokens().GetTokenByAccessHash(ctx, staleToken.AccessTokenHash)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestHousekeepingStartStop(t *testing.T) {
	st := newTestStore(t)

	svc := NewHousekeepingService(st, slog.Default(), time.Hour, 0)
	svc.Start()
	svc.Stop()
}
