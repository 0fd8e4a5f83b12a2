package service

import (
	"context"
	"errors"
	"time"

	"github.com/lanternauth/lantern/internal/auth/domain"
	"github.com/lanternauth/lantern/internal/auth/store"
	"github.com/lanternauth/lantern/pkg/cryptox"
	"github.com/lanternauth/lantern/pkg/slogx"
)

// MagicLinkGrant redeems a single-use magic-link code for an access
// token. The code row is consumed (atomically deleted) BEFORE its
// validity is checked, so a concurrent redemption race has exactly one
// winner and an expired code still burns on first presentation.
type MagicLinkGrant struct {
	Store     store.Store
	Issuer    *TokenIssuer
	AccessTTL time.Duration
}

func (g *MagicLinkGrant) Identifier() string { return GrantMagicLink }

func (g *MagicLinkGrant) RespondToAccessTokenRequest(ctx context.Context, req TokenRequest) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := time.Now()

	client, err := validateClient(ctx, g.Store, req)
	if err != nil {
		return nil, err
	}

	code := req.Param("token")
	if code == "" {
		return nil, ErrInvalidRequest
	}

	// Consume first. Whatever happens below, this code is spent.
	ml, err := g.Store.MagicLinkTokens().ConsumeMagicLinkToken(ctx, cryptox.FingerprintToken(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("magic link redemption with unknown or already used code", "client_id", client.ID)
			return nil, ErrInvalidGrant
		}
		return nil, err
	}

	if ml.Expired(now) {
		l.Info("magic link redemption with expired code", "client_id", client.ID)
		return nil, ErrInvalidGrant
	}
	if ml.ClientID != client.ID {
		l.Warn("magic link redeemed by a different client than it was issued to",
			"issued_to", ml.ClientID,
			"redeemed_by", client.ID,
		)
		return nil, ErrInvalidGrant
	}
	if ml.UserID == "" {
		return nil, ErrInvalidGrant
	}

	user, err := g.Store.Users().GetUserByID(ctx, ml.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidGrant
		}
		return nil, err
	}

	pair, err := g.Issuer.Issue(ctx, g.Store, IssueSpec{
		Client:    client,
		UserID:    &user.ID,
		Scopes:    ml.Scopes,
		AccessTTL: g.AccessTTL,
		// Magic-link sessions are short lived; re-authentication is another
		// email away, so no refresh token is issued.
	})
	if err != nil {
		return nil, err
	}

	l.Info("magic link redeemed",
		"client_id", client.ID,
		"user_id", user.ID,
	)

	return pair, nil
}
