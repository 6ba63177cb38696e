package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edscope/edscope/internal/domain/admin"
	"github.com/edscope/edscope/internal/domain/roster"
	"github.com/edscope/edscope/internal/infrastructure/persistence/file"
	"github.com/edscope/edscope/internal/infrastructure/service"
)

// pipeline bundles the in-process components a command needs. The CLI
// always answers from the rule-based parse; refinement is a server
// concern.
type pipeline struct {
	registry *admin.StaticRegistry
	resolver *admin.Resolver
	tables   *service.TableService

	// loadResult is the initial roster load, kept so validate can
	// report per-row warnings.
	loadResult *roster.LoadResult
}

// buildPipeline loads the admin registry and, when withRoster is set,
// the roster file.
func buildPipeline(ctx context.Context, opts *RootOptions, log *slog.Logger, withRoster bool) (*pipeline, error) {
	rosterPath, registryPath, err := loadPaths(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	registry, err := file.LoadAdminRegistry(registryPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin registry: %w", err)
	}

	p := &pipeline{
		registry: registry,
		resolver: admin.NewResolver(registry),
	}

	if withRoster {
		loader := file.NewLoader(rosterPath, file.FormatAuto, log)
		p.tables = service.NewTableService(loader, nil, log)
		result, err := p.tables.Reload(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load roster: %w", err)
		}
		p.loadResult = result
	}

	return p, nil
}
