package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edscope/edscope/internal/application/query"
)

// NewScopeCommand creates the scope command.
func NewScopeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scope [admin-id]",
		Short: "Show an admin's visibility scope",
		Long: `Show what an admin is allowed to see: grades, classes, and region
from the admin registry. With no argument, lists every registered
admin.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			adminID := ""
			if len(args) == 1 {
				adminID = args[0]
			}
			return runScope(rootOpts, adminID, cmd)
		},
	}

	return cmd
}

func runScope(rootOpts *RootOptions, adminID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	ctx := cmd.Context()
	log := cliLogger(rootOpts, cmd)

	p, err := buildPipeline(ctx, rootOpts, log, false)
	if err != nil {
		return formatter.Failure("setup_failed", err.Error())
	}

	if adminID == "" {
		scopes := query.ListAdminScopes(p.registry)
		if rootOpts.Format == "json" {
			return formatter.Success(scopes)
		}
		out := cmd.OutOrStdout()
		rows := make([][]string, len(scopes))
		for i, s := range scopes {
			rows[i] = []string{
				s.AdminID, s.DisplayName,
				strings.Join(s.Grades, ","), strings.Join(s.Classes, ","),
				s.Region, fmt.Sprintf("%t", s.Sealed),
			}
		}
		renderTable(out, []string{"id", "name", "grades", "classes", "region", "sealed"}, rows)
		return nil
	}

	handler := query.NewGetAdminScopeHandler(p.resolver, nil)
	scope, err := handler.Handle(ctx, query.GetAdminScopeQuery{AdminID: adminID})
	if err != nil {
		return formatter.Failure("unknown_admin", err.Error())
	}

	if rootOpts.Format == "json" {
		return formatter.Success(scope)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "admin:   %s (%s)\n", scope.AdminID, scope.DisplayName)
	fmt.Fprintf(out, "grades:  %s\n", strings.Join(scope.Grades, ", "))
	fmt.Fprintf(out, "classes: %s\n", strings.Join(scope.Classes, ", "))
	fmt.Fprintf(out, "region:  %s\n", scope.Region)
	if scope.Sealed {
		fmt.Fprintln(out, "sealed:  yes (every question returns an empty view)")
	}
	return nil
}
