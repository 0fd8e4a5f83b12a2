package domain

import (
	"slices"
	"time"
)

// Client is a registered OAuth2 application. Reference data: the grant
// engine reads clients but never mutates them.
type Client struct {
	ID            string
	Name          string
	SecretHash    string // argon2id encoded; empty for public clients
	RedirectURIs  []string
	AllowedGrants []string
	Scopes        []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Confidential reports whether the client must authenticate with a secret.
func (c Client) Confidential() bool { return c.SecretHash != "" }

// AllowsGrant reports whether the client may use the given grant identifier.
func (c Client) AllowsGrant(grant string) bool {
	return slices.Contains(c.AllowedGrants, grant)
}
