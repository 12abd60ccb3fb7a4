package project

import "fmt"

// Resolver is a Namer that prefers stored aliases over decoded names.
// It is a snapshot: later changes to the store are not seen.
type Resolver struct {
	aliases map[string]string
}

// NewResolver creates a resolver from aliases.
func NewResolver(aliases []*Alias) *Resolver {
	r := &Resolver{aliases: make(map[string]string, len(aliases))}
	for _, a := range aliases {
		r.aliases[a.Project] = a.Name
	}
	return r
}

// LoadResolver creates a resolver from every alias in store.
func LoadResolver(store Store) (*Resolver, error) {
	aliases, err := store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load aliases: %w", err)
	}
	return NewResolver(aliases), nil
}

// Name implements Namer.Name.
func (r *Resolver) Name(project string) string {
	if r != nil {
		if alias, ok := r.aliases[project]; ok {
			return alias
		}
	}
	return DisplayName(project)
}
