package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/lanternauth/lantern/internal/auth/domain"
	"github.com/lanternauth/lantern/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

// recordingMailer captures sends instead of dialing SMTP.
type recordingMailer struct {
	to    []string
	links []string
	err   error
}

func (m *recordingMailer) SendMagicLink(_ context.Context, to, link string) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.links = append(m.links, link)
	return nil
}

func TestMagicLinkServiceSend(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	user := createTestUser(t, st, "alice@example.com")
	client := createTestClient(t, st, "", GrantMagicLink)
	createTestScopes(t, st, "profile:read", "profile:write")

	mailer := &recordingMailer{}
	svc := &MagicLinkService{
		Store:    st,
		Mailer:   mailer,
		AppURL:   "https://app.example",
		TokenTTL: 15 * time.Minute,
	}

	require.NoError(t, svc.Send(ctx, "alice@example.com", client.ID, []string{"profile:read", "unknown:scope"}))
	require.Equal(t, []string{"alice@example.com"}, mailer.to)
	require.Len(t, mailer.links, 1)

	// The link carries the opaque code and points at the app URL.
	link, err := url.Parse(mailer.links[0])
	require.NoError(t, err)
	require.Equal(t, "app.example", link.Host)
	require.Equal(t, "/auth/magic-link/verify", link.Path)
	code := link.Query().Get("token")
	require.NotEmpty(t, code)

	// The persisted row matches the link: hashed code, bound user and
	// client, unknown scopes dropped.
	ml, err := st.MagicLinkTokens().ConsumeMagicLinkToken(ctx, cryptox.FingerprintToken(code))
	require.NoError(t, err)
	require.Equal(t, user.ID, ml.UserID)
	require.Equal(t, client.ID, ml.ClientID)
	require.Equal(t, []string{"profile:read"}, ml.Scopes)
	require.False(t, ml.Expired(time.Now()))
}

func TestMagicLinkServiceSendAntiEnumeration(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	createTestUser(t, st, "bob@example.com")
	client := createTestClient(t, st, "", GrantMagicLink)

	mailer := &recordingMailer{}
	svc := &MagicLinkService{
		Store:    st,
		Mailer:   mailer,
		AppURL:   "https://app.example",
		TokenTTL: 15 * time.Minute,
	}

	t.Run("unknown email succeeds without sending", func(t *testing.T) {
		require.NoError(t, svc.Send(ctx, "nobody@example.com", client.ID, nil))
		require.Empty(t, mailer.to)
	})

	t.Run("unknown client succeeds without sending", func(t *testing.T) {
		require.NoError(t, svc.Send(ctx, "bob@example.com", "no-such-client", nil))
		require.Empty(t, mailer.to)
	})

	t.Run("client without the grant succeeds without sending", func(t *testing.T) {
		refreshOnly := createTestClient(t, st, "", GrantRefreshToken)
		require.NoError(t, svc.Send(ctx, "bob@example.com", refreshOnly.ID, nil))
		require.Empty(t, mailer.to)
	})

	t.Run("delivery failure is swallowed", func(t *testing.T) {
		failing := &MagicLinkService{
			Store:    st,
			Mailer:   &recordingMailer{err: errors.New("smtp down")},
			AppURL:   "https://app.example",
			TokenTTL: 15 * time.Minute,
		}
		require.NoError(t, failing.Send(ctx, "bob@example.com", client.ID, nil))
	})

	t.Run("email lookup is case insensitive", func(t *testing.T) {
		require.NoError(t, svc.Send(ctx, "  BOB@example.com ", client.ID, nil))
		require.Equal(t, []string{"bob@example.com"}, mailer.to)
	})
}

func TestMagicLinkServiceScopePolicy(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	createTestUser(t, st, "carol@example.com")
	client := createTestClient(t, st, "", GrantMagicLink)
	createTestScopes(t, st, "profile:read", "profile:write")

	mailer := &recordingMailer{}
	svc := &MagicLinkService{
		Store:    st,
		Mailer:   mailer,
		AppURL:   "https://app.example",
		TokenTTL: 15 * time.Minute,
		Policy: func(_ context.Context, _ domain.User, _ domain.Client, requested []string) ([]string, error) {
			var out []string
			for _, s := range requested {
				if strings.HasSuffix(s, ":read") {
					out = append(out, s)
				}
			}
			return out, nil
		},
	}

	require.NoError(t, svc.Send(ctx, "carol@example.com", client.ID, []string{"profile:read", "profile:write"}))
	require.Len(t, mailer.links, 1)

	link, err := url.Parse(mailer.links[0])
	require.NoError(t, err)
	ml, err := st.MagicLinkTokens().ConsumeMagicLinkToken(ctx, cryptox.FingerprintToken(link.Query().Get("token")))
	require.NoError(t, err)
	require.Equal(t, []string{"profile:read"}, ml.Scopes)
}
