package service

import (
	"context"
	"errors"

	"github.com/lanternauth/lantern/internal/auth/domain"
	"github.com/lanternauth/lantern/internal/auth/store"
	"github.com/lanternauth/lantern/pkg/cryptox"
	"github.com/lanternauth/lantern/pkg/slogx"
)

// validateClient loads the client, checks that the requested grant is
// allowed for it, and authenticates confidential clients against their
// stored secret hash. Every failure maps to ErrInvalidClient so callers
// leak nothing about which check tripped.
func validateClient(ctx context.Context, st store.Store, req TokenRequest) (domain.Client, error) {
	l := slogx.FromContext(ctx)

	if req.ClientID == "" {
		return domain.Client{}, ErrInvalidClient
	}

	client, err := st.Clients().GetClientByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrInvalidClient
		}
		return domain.Client{}, err
	}

	if !client.AllowsGrant(req.GrantType) {
		l.Info("grant type not allowed for client",
			"client_id", client.ID,
			"grant_type", req.GrantType,
		)
		return domain.Client{}, ErrInvalidClient
	}

	// Confidential clients must authenticate
	if client.Confidential() {
		if req.ClientSecret == "" || cryptox.VerifySecret(req.ClientSecret, client.SecretHash) != nil {
			l.Info("client authentication failed", "client_id", client.ID)
			return domain.Client{}, ErrInvalidClient
		}
	}

	return client, nil
}
