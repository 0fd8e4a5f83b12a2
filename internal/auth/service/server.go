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

// Introspection is the result of looking up a presented token value.
// A token that is unknown, expired, or revoked is simply inactive; the
// caller learns nothing beyond that.
type Introspection struct {
	Active    bool
	Scope     string
	ClientID  string
	Sub       string
	TokenType string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// AuthorizationServer owns the grant registry and dispatches token
// endpoint requests to the grant named by grant_type. It also serves
// introspection and revocation, which are grant-independent.
type AuthorizationServer struct {
	store  store.Store
	grants map[string]Grant
}

func NewAuthorizationServer(st store.Store) *AuthorizationServer {
	return &AuthorizationServer{
		store:  st,
		grants: make(map[string]Grant),
	}
}

// EnableGrant registers a grant under its identifier. Registration
// happens at wiring time, before the server handles requests; the map
// is read-only afterwards, so no locking is needed.
func (s *AuthorizationServer) EnableGrant(g Grant) {
	s.grants[g.Identifier()] = g
}

// RespondToAccessTokenRequest dispatches to the registered grant for
// req.GrantType. An empty or unregistered grant_type yields
// ErrUnsupportedGrantType without touching any credentials.
func (s *AuthorizationServer) RespondToAccessTokenRequest(ctx context.Context, req TokenRequest) (*domain.TokenPair, error) {
	if req.GrantType == "" {
		return nil, ErrInvalidRequest
	}

	grant, ok := s.grants[req.GrantType]
	if !ok {
		slogx.FromContext(ctx).Info("unsupported grant type requested", "grant_type", req.GrantType)
		return nil, ErrUnsupportedGrantType
	}

	return grant.RespondToAccessTokenRequest(ctx, req)
}

// Introspect resolves a presented opaque token value to its metadata.
// The value is tried as an access token first, then as a refresh token;
// the token_type_hint only changes the order we try, per RFC 7662.
func (s *AuthorizationServer) Introspect(ctx context.Context, token, tokenTypeHint string) (Introspection, error) {
	if token == "" {
		return Introspection{}, nil
	}

	now := time.Now()
	fp := cryptox.FingerprintToken(token)

	order := []string{"access_token", "refresh_token"}
	if tokenTypeHint == "refresh_token" {
		order = []string{"refresh_token", "access_token"}
	}

	for _, kind := range order {
		t, err := s.lookup(ctx, kind, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return Introspection{}, err
		}
		return introspectionFor(t, kind, now), nil
	}

	return Introspection{}, nil
}

// Revoke invalidates the token row matching the presented value,
// whether it was presented as an access or a refresh token. Revoking
// both halves at once follows RFC 7009's recommendation to invalidate
// related tokens. Unknown values are not an error.
func (s *AuthorizationServer) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	fp := cryptox.FingerprintToken(token)

	t, err := s.store.Tokens().GetTokenByAccessHash(ctx, fp)
	if errors.Is(err, store.ErrNotFound) {
		t, err = s.store.Tokens().GetTokenByRefreshHash(ctx, fp)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	return s.store.Tokens().RevokeToken(ctx, t.ID)
}

func (s *AuthorizationServer) lookup(ctx context.Context, kind, fp string) (domain.Token, error) {
	if kind == "refresh_token" {
		return s.store.Tokens().GetTokenByRefreshHash(ctx, fp)
	}
	return s.store.Tokens().GetTokenByAccessHash(ctx, fp)
}

func introspectionFor(t domain.Token, kind string, now time.Time) Introspection {
	var active bool
	var expiresAt time.Time

	switch kind {
	case "refresh_token":
		active = !t.RefreshExpired(now)
		expiresAt = t.RefreshTokenExpiresAt
	default:
		active = !t.AccessExpired(now)
		expiresAt = t.AccessTokenExpiresAt
	}

	if !active {
		return Introspection{}
	}

	sub := t.ClientID
	if t.UserID != nil {
		sub = *t.UserID
	}

	return Introspection{
		Active:    true,
		Scope:     joinScope(t.Scopes),
		ClientID:  t.ClientID,
		Sub:       sub,
		TokenType: kind,
		ExpiresAt: expiresAt,
		IssuedAt:  t.CreatedAt,
	}
}
