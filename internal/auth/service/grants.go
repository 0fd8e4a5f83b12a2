package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/lanternauth/lantern/internal/auth/domain"
)

// Registered grant type identifiers. Custom grants use the "custom:"
// prefix to stay out of the IANA-registered namespace.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
	GrantMagicLink         = "custom:magic_link"
)

var (
	ErrInvalidRequest       = errors.New("invalid_request")
	ErrInvalidClient        = errors.New("invalid_client")
	ErrInvalidGrant         = errors.New("invalid_grant")
	ErrInvalidScope         = errors.New("invalid_scope")
	ErrUnsupportedGrantType = errors.New("unsupported_grant_type")
)

// TokenRequest carries the parsed form of a token endpoint request.
// Grants read their grant-specific parameters through Param.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Params       url.Values
}

// Param returns the named form parameter with surrounding whitespace removed.
func (r TokenRequest) Param(key string) string {
	return strings.TrimSpace(r.Params.Get(key))
}

// Grant is a single credential exchange strategy. Implementations
// validate the client and the grant-specific credential, then issue a
// token pair on success.
type Grant interface {
	// Identifier returns the grant_type value this grant handles.
	Identifier() string

	// RespondToAccessTokenRequest performs the exchange. It returns
	// ErrInvalidClient, ErrInvalidGrant, ErrInvalidRequest or
	// ErrInvalidScope for protocol failures, or a raw error for
	// infrastructure failures.
	RespondToAccessTokenRequest(ctx context.Context, req TokenRequest) (*domain.TokenPair, error)
}
