package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lanternauth/lantern/internal/auth/domain"
	"github.com/lanternauth/lantern/internal/auth/store"
	"github.com/lanternauth/lantern/pkg/cryptox"
	"github.com/lanternauth/lantern/pkg/idx"
	"github.com/lanternauth/lantern/pkg/slogx"
)

// maxIssueAttempts bounds the retry loop on token value collisions.
// A SHA-256 fingerprint collision on 256-bit random values is vanishingly
// rare, so more than one retry in practice means something is broken.
const maxIssueAttempts = 3

// IssueSpec describes the token pair a grant wants minted.
type IssueSpec struct {
	Client     domain.Client
	UserID     *string
	Scopes     []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration // zero means no refresh token is issued
}

// TokenIssuer mints opaque token pairs and persists their fingerprints.
// The raw values leave this package only inside the returned TokenPair;
// the store never sees them.
type TokenIssuer struct{}

// Issue generates a fresh access token (and a refresh token when
// RefreshTTL is set), persists the hashed record through st, and returns
// the raw pair. On a fingerprint uniqueness violation it regenerates and
// retries up to maxIssueAttempts times.
//
// Callers that need issuance to be atomic with other writes pass a
// transactional store.
func (i *TokenIssuer) Issue(ctx context.Context, st store.Store, spec IssueSpec) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := time.Now()

	var lastErr error
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		accessOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return nil, err
		}

		t := domain.Token{
			ID:                   idx.New().String(),
			AccessTokenHash:      cryptox.FingerprintToken(accessOpaque),
			AccessTokenExpiresAt: now.Add(spec.AccessTTL),
			ClientID:             spec.Client.ID,
			UserID:               spec.UserID,
			Scopes:               spec.Scopes,
		}

		var refreshOpaque string
		if spec.RefreshTTL > 0 {
			refreshOpaque, err = cryptox.GenerateToken(cryptox.TokenSize256)
			if err != nil {
				return nil, err
			}
			t.RefreshTokenHash = cryptox.FingerprintToken(refreshOpaque)
			t.RefreshTokenExpiresAt = now.Add(spec.RefreshTTL)
		}

		if err := st.Tokens().CreateToken(ctx, t); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				l.Warn("token fingerprint collision, regenerating", "attempt", attempt+1)
				lastErr = err
				continue
			}
			return nil, err
		}

		return &domain.TokenPair{
			AccessToken:  accessOpaque,
			RefreshToken: refreshOpaque,
			ExpiresIn:    spec.AccessTTL,
			Scope:        strings.Join(spec.Scopes, " "),
		}, nil
	}

	return nil, lastErr
}
