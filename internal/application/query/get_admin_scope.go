package query

import (
	"context"

	"github.com/edscope/edscope/internal/domain/admin"
	domainquery "github.com/edscope/edscope/internal/domain/query"
	"github.com/edscope/edscope/internal/domain/roster"
	"github.com/edscope/edscope/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ADMIN SCOPE QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetAdminScopeQuery contains the input for a scope lookup.
type GetAdminScopeQuery struct {
	AdminID string
}

// AdminScopeDTO describes an admin's visibility scope.
type AdminScopeDTO struct {
	AdminID     string   `json:"admin_id"`
	DisplayName string   `json:"display_name"`
	Grades      []string `json:"grades"`
	Classes     []string `json:"classes"`
	Region      string   `json:"region"`

	// Sealed is true when any scope dimension is empty, which means
	// every question from this admin returns an empty view.
	Sealed bool `json:"sealed"`

	// VisibleRecords is how many roster records the scope alone admits,
	// before any question filters. Omitted when no snapshot is loaded.
	VisibleRecords *int `json:"visible_records,omitempty"`
}

// GetAdminScopeHandler looks up admin scopes. When a table provider is
// given, each scope also reports how many records it admits on its own.
type GetAdminScopeHandler struct {
	resolver *admin.Resolver
	tables   roster.Provider
}

// NewGetAdminScopeHandler creates a new handler. tables may be nil.
func NewGetAdminScopeHandler(resolver *admin.Resolver, tables roster.Provider) *GetAdminScopeHandler {
	return &GetAdminScopeHandler{resolver: resolver, tables: tables}
}

// Handle resolves one admin's scope.
func (h *GetAdminScopeHandler) Handle(ctx context.Context, q GetAdminScopeQuery) (*AdminScopeDTO, error) {
	if q.AdminID == "" {
		return nil, shared.ErrEmptyAdminID
	}

	profile, err := h.resolver.Resolve(q.AdminID)
	if err != nil {
		return nil, err
	}

	dto := toScopeDTO(profile)
	h.attachVisibleCount(profile, dto)
	return dto, nil
}

// attachVisibleCount runs the scope predicates alone against the
// current snapshot. A missing snapshot just leaves the count out.
func (h *GetAdminScopeHandler) attachVisibleCount(profile *admin.Profile, dto *AdminScopeDTO) {
	if h.tables == nil {
		return
	}
	table, err := h.tables.Current()
	if err != nil {
		return
	}

	plan, err := domainquery.Compile(profile, domainquery.Intent{
		Action:  domainquery.ActionGeneric,
		Filters: domainquery.Filters{},
	})
	if err != nil {
		return
	}

	view := domainquery.Execute(table, plan)
	count := len(view.Records)
	dto.VisibleRecords = &count
}

// ListAdminScopes returns the scope of every registered admin, sorted by ID.
func ListAdminScopes(registry admin.Registry) []AdminScopeDTO {
	profiles := registry.All()
	dtos := make([]AdminScopeDTO, len(profiles))
	for i, p := range profiles {
		dtos[i] = *toScopeDTO(p)
	}
	return dtos
}

func toScopeDTO(p *admin.Profile) *AdminScopeDTO {
	grades := make([]string, len(p.Grades))
	for i, g := range p.Grades {
		grades[i] = g.String()
	}
	classes := make([]string, len(p.Classes))
	for i, c := range p.Classes {
		classes[i] = c.String()
	}

	return &AdminScopeDTO{
		AdminID:     p.ID,
		DisplayName: p.DisplayName,
		Grades:      grades,
		Classes:     classes,
		Region:      p.Region.String(),
		Sealed:      p.IsSealed(),
	}
}
