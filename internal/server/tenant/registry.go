// Package tenant maps tenant ids to their authoritative GitHub repositories.
package tenant

import (
	"fmt"

	"github.com/categolj/entry-api-gemfire/internal/entry"
	"github.com/categolj/entry-api-gemfire/internal/github"
)

// Source is the GitHub repository holding the markdown files of one tenant.
// The client carries the tenant's own access token.
type Source struct {
	Owner  string
	Repo   string
	Client *github.Client
}

// Registry resolves tenant ids to sources. The default tenant always
// resolves; any other tenant must be configured explicitly.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds a registry with the default tenant's source and any
// per-tenant overrides keyed by tenant id.
func NewRegistry(def Source, others map[string]Source) *Registry {
	sources := make(map[string]Source, len(others)+1)
	sources[entry.DefaultTenantID] = def
	for id, src := range others {
		sources[entry.NormalizeTenantID(id)] = src
	}
	return &Registry{sources: sources}
}

// Resolve returns the source of the given tenant.
func (r *Registry) Resolve(tenantID string) (Source, error) {
	src, ok := r.sources[entry.NormalizeTenantID(tenantID)]
	if !ok {
		return Source{}, fmt.Errorf("tenant %q is not configured", tenantID)
	}
	return src, nil
}

// TenantIDs lists the configured tenant ids.
func (r *Registry) TenantIDs() []string {
	ids := make([]string, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	return ids
}
