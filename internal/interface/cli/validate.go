package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationReport summarizes a roster and registry check.
type ValidationReport struct {
	RosterSource string   `json:"roster_source"`
	RowsLoaded   int      `json:"rows_loaded"`
	RowsSkipped  int      `json:"rows_skipped"`
	Admins       int      `json:"admins"`
	Warnings     []string `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the roster file and admin registry",
		Long: `Load the roster file and admin registry the same way the server
does and report what survives normalization. Fails when the roster
schema is incomplete or no usable rows remain.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}

	return cmd
}

func runValidate(rootOpts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	ctx := cmd.Context()
	log := cliLogger(rootOpts, cmd)

	p, err := buildPipeline(ctx, rootOpts, log, true)
	if err != nil {
		return formatter.Failure("validation_failed", err.Error())
	}

	table := p.loadResult.Table
	report := ValidationReport{
		RosterSource: table.Source(),
		RowsLoaded:   table.Len(),
		RowsSkipped:  len(p.loadResult.Warnings),
		Admins:       len(p.registry.All()),
	}
	for _, w := range p.loadResult.Warnings {
		report.Warnings = append(report.Warnings, fmt.Sprintf("row %d: %s", w.Row, w.Reason))
	}

	if rootOpts.Format == "json" {
		return formatter.Success(report)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "roster:  %s\n", report.RosterSource)
	fmt.Fprintf(out, "rows:    %d loaded, %d skipped\n", report.RowsLoaded, report.RowsSkipped)
	fmt.Fprintf(out, "admins:  %d registered\n", report.Admins)
	for _, w := range report.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	fmt.Fprintln(out, "ok")
	return nil
}
