package domain

import "time"

// MagicLinkToken is a single-use login credential delivered out-of-band
// (email). Unlike authorization codes it always binds exactly one user, and
// the row is deleted, not marked, on first successful redemption.
type MagicLinkToken struct {
	ID        string
	CodeHash  string // fingerprint of the opaque code in the link
	ClientID  string
	UserID    string
	Scopes    []string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (m MagicLinkToken) Expired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}
