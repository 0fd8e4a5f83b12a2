package domain

// Scope is a named permission. Scopes are provisioned out-of-band and only
// ever referenced by tokens and codes.
type Scope struct {
	Name        string // unique, non-empty
	Description string
}
