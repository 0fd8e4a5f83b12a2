package domain

import "time"

// AuthorizationCode is a single-use credential minted at authorize-approval
// time and redeemed at the token endpoint. The wire form handed to clients
// is a signed JWT envelope around ID; only the fingerprint of ID is stored.
type AuthorizationCode struct {
	ID                  string
	CodeHash            string
	RedirectURI         string // optional
	CodeChallenge       string // optional PKCE challenge
	CodeChallengeMethod string // "S256" or "plain"
	ClientID            string
	UserID              *string
	Scopes              []string
	ExpiresAt           time.Time
	CreatedAt           time.Time
}

func (c AuthorizationCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
