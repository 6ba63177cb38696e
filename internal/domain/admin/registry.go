package admin

import (
	"sort"
	"strings"

	"github.com/edscope/edscope/internal/domain/shared"
)

// Registry is the source of admin profiles. The resolver is the only
// reader; nothing else in the system looks admins up.
type Registry interface {
	// Get returns the profile for a normalized admin ID.
	Get(id string) (*Profile, bool)

	// All returns every registered profile in stable ID order.
	All() []*Profile
}

// StaticRegistry is an in-memory Registry built once at startup from
// whatever backing format the infrastructure layer parsed.
type StaticRegistry struct {
	profiles map[string]*Profile
}

// NewStaticRegistry indexes the given profiles by ID. Duplicate IDs are
// a configuration error.
func NewStaticRegistry(profiles []*Profile) (*StaticRegistry, error) {
	indexed := make(map[string]*Profile, len(profiles))
	for _, p := range profiles {
		if _, exists := indexed[p.ID]; exists {
			return nil, shared.NewDomainError("admin", "NewStaticRegistry", shared.ErrAlreadyExists,
				"duplicate admin ID "+p.ID)
		}
		indexed[p.ID] = p
	}
	return &StaticRegistry{profiles: indexed}, nil
}

// Get implements Registry.
func (r *StaticRegistry) Get(id string) (*Profile, bool) {
	p, ok := r.profiles[id]
	return p, ok
}

// All implements Registry.
func (r *StaticRegistry) All() []*Profile {
	out := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Resolver turns an admin ID from a request into a profile, rejecting
// unknown admins before any roster data is touched.
type Resolver struct {
	registry Registry
}

// NewResolver creates a resolver over the given registry.
func NewResolver(registry Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve looks up the admin, matching IDs case-insensitively.
// Unknown admins get shared.ErrAdminNotRegistered, never an empty scope.
func (r *Resolver) Resolve(adminID string) (*Profile, error) {
	id := strings.ToLower(strings.TrimSpace(adminID))
	if id == "" {
		return nil, shared.ErrAdminNotRegistered
	}
	profile, ok := r.registry.Get(id)
	if !ok {
		return nil, shared.ErrAdminNotRegistered
	}
	return profile, nil
}
