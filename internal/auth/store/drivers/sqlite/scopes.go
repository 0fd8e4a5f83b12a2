package sqlite

import (
	"context"

	"github.com/lanternauth/lantern/internal/auth/domain"
)

type scopesRepo struct {
	db dbtx
}

func (r *scopesRepo) GetScopeByName(ctx context.Context, name string) (domain.Scope, error) {
	row := r.db.QueryRowContext(ctx, `SELECT name, description FROM scopes WHERE name = ?`, name)

	var s domain.Scope
	if err := row.Scan(&s.Name, &s.Description); err != nil {
		return domain.Scope{}, mapNotFound(err)
	}
	return s, nil
}

// FilterKnown checks each requested name against the scopes table one by one.
// Scope lists are short (a handful of names per request) so a prepared IN
// clause buys nothing here.
func (r *scopesRepo) FilterKnown(ctx context.Context, names []string) ([]string, error) {
	var known []string
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		var exists int
		row := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM scopes WHERE name = ?`, name)
		if err := row.Scan(&exists); err != nil {
			return nil, err
		}
		if exists > 0 {
			known = append(known, name)
		}
	}
	return known, nil
}

func (r *scopesRepo) CreateScope(ctx context.Context, s domain.Scope) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scopes (name, description) VALUES (?, ?)`, s.Name, s.Description)
	return mapConstraint(err)
}
