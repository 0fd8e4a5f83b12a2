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

// RefreshTokenGrant implements refresh token rotation: each successful
// exchange revokes the presented token and issues a brand new pair in
// the same transaction. A replayed refresh token therefore fails, which
// doubles as theft detection.
type RefreshTokenGrant struct {
	Store      store.Store
	Issuer     *TokenIssuer
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (g *RefreshTokenGrant) Identifier() string { return GrantRefreshToken }

func (g *RefreshTokenGrant) RespondToAccessTokenRequest(ctx context.Context, req TokenRequest) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := time.Now()

	client, err := validateClient(ctx, g.Store, req)
	if err != nil {
		return nil, err
	}

	refreshOpaque := req.Param("refresh_token")
	if refreshOpaque == "" {
		return nil, ErrInvalidRequest
	}

	fp := cryptox.FingerprintToken(refreshOpaque)

	var pair *domain.TokenPair

	err = g.Store.WithTx(ctx, func(tx store.Tx) error {
		t, err := tx.Tokens().GetTokenByRefreshHash(ctx, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidGrant
			}
			return err
		}

		if t.RefreshExpired(now) {
			return ErrInvalidGrant
		}
		if t.ClientID != client.ID {
			l.Warn("refresh token presented by a different client than it was issued to",
				"issued_to", t.ClientID,
				"presented_by", client.ID,
			)
			return ErrInvalidGrant
		}

		// Optional scope narrowing: requested scopes must be a subset of
		// what the original grant carried.
		scopes := t.Scopes
		if requested := dedupe(parseScope(req.Param("scope"))); len(requested) > 0 {
			scopes = intersectScopes(requested, t.Scopes)
			if len(scopes) != len(requested) {
				return ErrInvalidScope
			}
		}

		if err := tx.Tokens().RevokeToken(ctx, t.ID); err != nil {
			return err
		}

		pair, err = g.Issuer.Issue(ctx, tx, IssueSpec{
			Client:     client,
			UserID:     t.UserID,
			Scopes:     scopes,
			AccessTTL:  g.AccessTTL,
			RefreshTTL: g.RefreshTTL,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	l.Info("refresh token rotated", "client_id", client.ID)

	return pair, nil
}
