package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lanternauth/lantern/internal/auth/domain"
	"github.com/lanternauth/lantern/internal/auth/store"
	"github.com/lanternauth/lantern/pkg/cryptox"
	"github.com/lanternauth/lantern/pkg/idx"
)

// AuthCodeCodec wraps authorization code IDs in a signed HS256 JWT.
// The wire code is the JWT; the database stores only a fingerprint of
// the inner ID. Forging a redeemable code therefore needs both the
// signing secret and a matching row.
type AuthCodeCodec struct {
	secret []byte
}

func NewAuthCodeCodec(secret []byte) *AuthCodeCodec {
	return &AuthCodeCodec{secret: secret}
}

// Encode signs the code ID into the wire representation.
func (c *AuthCodeCodec) Encode(codeID string, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        codeID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies the wire code's signature and expiry and returns the
// inner code ID.
func (c *AuthCodeCodec) Decode(wire string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(wire, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", errors.New("authorization code missing id claim")
	}
	return claims.ID, nil
}

// AuthCodeService mints authorization codes. The HTTP authorize flow
// (consent UI, session handling) lives outside this service; callers
// that have authenticated a user invoke IssueAuthorizationCode and put
// the returned wire code on the redirect.
type AuthCodeService struct {
	Store   store.Store
	Codec   *AuthCodeCodec
	CodeTTL time.Duration
}

// IssueAuthorizationCodeRequest carries the parameters bound into a
// minted code. CodeChallenge may be empty for clients not using PKCE.
type IssueAuthorizationCodeRequest struct {
	Client              domain.Client
	UserID              *string
	Scopes              []string
	RedirectURI         string
	CodeChallenge       string
	CodeChallengeMethod string
}

// IssueAuthorizationCode persists a code row bound to the client,
// redirect URI, scopes, and PKCE challenge, and returns the signed wire
// code to place on the redirect.
func (s *AuthCodeService) IssueAuthorizationCode(ctx context.Context, req IssueAuthorizationCodeRequest) (string, error) {
	method := strings.TrimSpace(req.CodeChallengeMethod)
	if req.CodeChallenge != "" {
		switch {
		case method == "" || strings.EqualFold(method, "plain"):
			method = "plain"
		case strings.EqualFold(method, "S256"):
			method = "S256"
		default:
			return "", fmt.Errorf("unsupported code challenge method %q", method)
		}
	}

	now := time.Now()
	codeID := idx.New().String()

	code := domain.AuthorizationCode{
		ID:                  codeID,
		CodeHash:            cryptox.FingerprintToken(codeID),
		RedirectURI:         req.RedirectURI,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: method,
		ClientID:            req.Client.ID,
		UserID:              req.UserID,
		Scopes:              req.Scopes,
		ExpiresAt:           now.Add(s.CodeTTL),
	}

	if err := s.Store.AuthorizationCodes().CreateAuthorizationCode(ctx, code); err != nil {
		return "", err
	}

	return s.Codec.Encode(codeID, code.ExpiresAt)
}
