// Package identity maps raw commit author strings to canonical developer
// identities and drops identities that are out of scope for reporting.
package identity

// Config holds the identity rules for one team
type Config struct {
	// Excluded authors (bots, external contributors) are dropped outright.
	Excluded []string
	// Aliases maps raw author strings to canonical names (many-to-one).
	Aliases map[string]string
	// CoreTeam, when non-empty, is the roster of canonical names in scope.
	CoreTeam []string
}

// Resolver is a pure, immutable author filter-and-rewrite
type Resolver struct {
	excluded map[string]struct{}
	aliases  map[string]string
	roster   map[string]struct{}
}

// NewResolver builds a resolver from cfg. The input maps are copied.
func NewResolver(cfg Config) *Resolver {
	r := &Resolver{
		excluded: make(map[string]struct{}, len(cfg.Excluded)),
		aliases:  make(map[string]string, len(cfg.Aliases)),
		roster:   make(map[string]struct{}, len(cfg.CoreTeam)),
	}
	for _, name := range cfg.Excluded {
		r.excluded[name] = struct{}{}
	}
	for raw, canonical := range cfg.Aliases {
		r.aliases[raw] = canonical
	}
	for _, name := range cfg.CoreTeam {
		r.roster[name] = struct{}{}
	}
	return r
}

// Resolve returns the canonical author for raw, or ok=false when the
// identity is excluded and the commit must be discarded.
func (r *Resolver) Resolve(raw string) (canonical string, ok bool) {
	if _, excluded := r.excluded[raw]; excluded {
		return "", false
	}

	canonical = raw
	if mapped, found := r.aliases[raw]; found {
		canonical = mapped
	}

	// An alias target may itself be listed as excluded.
	if _, excluded := r.excluded[canonical]; excluded {
		return "", false
	}

	if len(r.roster) > 0 {
		if _, member := r.roster[canonical]; !member {
			return "", false
		}
	}

	return canonical, true
}

// RosterEnabled reports whether roster filtering is active
func (r *Resolver) RosterEnabled() bool {
	return len(r.roster) > 0
}
