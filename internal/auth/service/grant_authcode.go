package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/lanternauth/lantern/internal/auth/domain"
	"github.com/lanternauth/lantern/internal/auth/store"
	"github.com/lanternauth/lantern/pkg/cryptox"
	"github.com/lanternauth/lantern/pkg/slogx"
)

// AuthorizationCodeGrant exchanges a signed authorization code for a
// token pair, enforcing single use, redirect URI binding, and PKCE.
type AuthorizationCodeGrant struct {
	Store      store.Store
	Issuer     *TokenIssuer
	Codec      *AuthCodeCodec
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (g *AuthorizationCodeGrant) Identifier() string { return GrantAuthorizationCode }

func (g *AuthorizationCodeGrant) RespondToAccessTokenRequest(ctx context.Context, req TokenRequest) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := time.Now()

	client, err := validateClient(ctx, g.Store, req)
	if err != nil {
		return nil, err
	}

	wire := req.Param("code")
	redirectURI := req.Param("redirect_uri")
	codeVerifier := req.Param("code_verifier")
	if wire == "" {
		return nil, ErrInvalidRequest
	}

	codeID, err := g.Codec.Decode(wire)
	if err != nil {
		l.Info("authorization code failed signature or expiry check", "client_id", client.ID)
		return nil, ErrInvalidGrant
	}

	var pair *domain.TokenPair

	err = g.Store.WithTx(ctx, func(tx store.Tx) error {
		code, err := tx.AuthorizationCodes().ConsumeAuthorizationCode(ctx, cryptox.FingerprintToken(codeID))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				l.Info("authorization code unknown or already used", "client_id", client.ID)
				return ErrInvalidGrant
			}
			return err
		}

		if code.Expired(now) {
			return ErrInvalidGrant
		}
		if code.ClientID != client.ID {
			l.Warn("authorization code redeemed by a different client than it was issued to",
				"issued_to", code.ClientID,
				"redeemed_by", client.ID,
			)
			return ErrInvalidGrant
		}
		if code.RedirectURI != "" && code.RedirectURI != redirectURI {
			return ErrInvalidGrant
		}
		if !verifyCodeVerifier(code.CodeChallenge, code.CodeChallengeMethod, codeVerifier) {
			return ErrInvalidGrant
		}

		pair, err = g.Issuer.Issue(ctx, tx, IssueSpec{
			Client:     client,
			UserID:     code.UserID,
			Scopes:     code.Scopes,
			AccessTTL:  g.AccessTTL,
			RefreshTTL: g.RefreshTTL,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	l.Info("authorization code exchanged", "client_id", client.ID)

	return pair, nil
}

func verifyCodeVerifier(challenge, method, verifier string) bool {
	challenge = strings.TrimSpace(challenge)
	if challenge == "" {
		// No PKCE challenge stored; accept regardless of verifier.
		return true
	}

	verifier = strings.TrimSpace(verifier)
	if verifier == "" {
		return false
	}

	method = strings.TrimSpace(method)
	switch {
	case method == "" || strings.EqualFold(method, "plain"):
		return subtle.ConstantTimeCompare([]byte(challenge), []byte(verifier)) == 1
	case strings.EqualFold(method, "S256"):
		sum := sha256.Sum256([]byte(verifier))
		expected := base64.RawURLEncoding.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(challenge), []byte(expected)) == 1
	default:
		return false
	}
}
