package domain

import "time"

// TokenPair is what the token endpoint returns: the opaque access token and,
// for grants that rotate, the opaque refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string        // empty for grants that issue none
	ExpiresIn    time.Duration // access token lifetime
	Scope        string        // space-delimited
}

// Token models the stored access/refresh pair. Only SHA-256 fingerprints of
// the opaque values are persisted; the raw values exist only in the response
// handed to the client.
type Token struct {
	ID                    string
	AccessTokenHash       string
	AccessTokenExpiresAt  time.Time
	RefreshTokenHash      string // empty when no refresh token was issued
	RefreshTokenExpiresAt time.Time
	ClientID              string
	UserID                *string // nil for client-only grants
	Scopes                []string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// AccessExpired reports whether the access token is expired as of now.
// Revoked tokens have their expiry forced to the epoch, so they read as
// expired here without losing the audit row.
func (t Token) AccessExpired(now time.Time) bool {
	return now.After(t.AccessTokenExpiresAt)
}

// RefreshExpired reports whether the refresh token is expired as of now.
// A token with no refresh half always reads as expired.
func (t Token) RefreshExpired(now time.Time) bool {
	return t.RefreshTokenHash == "" || now.After(t.RefreshTokenExpiresAt)
}
