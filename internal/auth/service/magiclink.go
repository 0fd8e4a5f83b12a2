package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lanternauth/lantern/internal/auth/domain"
	"github.com/lanternauth/lantern/internal/auth/store"
	"github.com/lanternauth/lantern/pkg/cryptox"
	"github.com/lanternauth/lantern/pkg/idx"
	"github.com/lanternauth/lantern/pkg/slogx"
)

// SendResponseMessage is the body returned for every send request,
// whether or not the email matched a user. Varying the response would
// let callers enumerate registered addresses.
const SendResponseMessage = "If the email exists, a magic link was sent"

// Mailer delivers the magic link to the user. Implementations live in
// the mail package; tests inject a recorder.
type Mailer interface {
	SendMagicLink(ctx context.Context, to, link string) error
}

// ScopePolicy decides which of the requested scopes a minted magic link
// may carry. The default policy keeps every provisioned scope the
// request named.
type ScopePolicy func(ctx context.Context, user domain.User, client domain.Client, requested []string) ([]string, error)

// MagicLinkService mints single-use login codes and emails them out.
type MagicLinkService struct {
	Store    store.Store
	Mailer   Mailer
	AppURL   string
	TokenTTL time.Duration
	Policy   ScopePolicy // optional
}

// Send mints a magic-link token for the user with the given email and
// mails the verification link. Unknown emails and unknown clients
// return nil without side effects so the response cannot be used to
// probe for accounts. Delivery failures are logged but also reported as
// success for the same reason.
func (s *MagicLinkService) Send(ctx context.Context, email, clientID string, requestedScopes []string) error {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("magic link requested for unknown email")
			return nil
		}
		return err
	}

	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("magic link requested for unknown client", "client_id", clientID)
			return nil
		}
		return err
	}
	if !client.AllowsGrant(GrantMagicLink) {
		l.Info("magic link requested for client without the grant", "client_id", clientID)
		return nil
	}

	scopes, err := s.Store.Scopes().FilterKnown(ctx, requestedScopes)
	if err != nil {
		return err
	}
	if s.Policy != nil {
		scopes, err = s.Policy(ctx, user, client, scopes)
		if err != nil {
			return err
		}
	}

	code, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	now := time.Now()
	ml := domain.MagicLinkToken{
		ID:        idx.New().String(),
		CodeHash:  cryptox.FingerprintToken(code),
		ClientID:  client.ID,
		UserID:    user.ID,
		Scopes:    scopes,
		ExpiresAt: now.Add(s.TokenTTL),
	}

	if err := s.Store.MagicLinkTokens().CreateMagicLinkToken(ctx, ml); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/auth/magic-link/verify?token=%s",
		strings.TrimRight(s.AppURL, "/"),
		url.QueryEscape(code),
	)

	if err := s.Mailer.SendMagicLink(ctx, user.Email, link); err != nil {
		// Swallowed: the caller's response must not reveal whether a
		// mailbox exists, and a delivery retry is just another request.
		l.Error("magic link delivery failed", "error", err, "user_id", user.ID)
		return nil
	}

	l.Info("magic link sent", "user_id", user.ID, "client_id", client.ID)

	return nil
}
