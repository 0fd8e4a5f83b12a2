package service

import "strings"

func joinScope(scopes []string) string {
	return strings.Join(scopes, " ")
}

// parseScope splits a space-delimited scope parameter, per RFC 6749 §3.3.
func parseScope(s string) []string {
	return strings.Fields(s)
}

// intersectScopes returns the elements of a that also appear in b,
// preserving a's order, with duplicates removed.
func intersectScopes(a, b []string) []string {
	set := map[string]struct{}{}
	for _, s := range b {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
