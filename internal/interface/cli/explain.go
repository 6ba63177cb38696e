package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edscope/edscope/internal/application/query"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	AdminID string
	Now     string
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{}

	cmd := &cobra.Command{
		Use:   "explain <question>",
		Short: "Show the query plan for a question without running it",
		Long: `Show how a question would be interpreted: the recognized action,
filters, resolved date window, and the full predicate trace. The
roster is not consulted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.AdminID, "admin", "", "asking admin's ID (required)")
	cmd.Flags().StringVar(&opts.Now, "now", "", "reference date for relative phrases (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("admin")

	return cmd
}

func runExplain(rootOpts *RootOptions, opts *ExplainOptions, question string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	now, err := parseNowFlag(opts.Now)
	if err != nil {
		return formatter.Failure("invalid_flag", err.Error())
	}

	ctx := cmd.Context()
	log := cliLogger(rootOpts, cmd)

	// Explaining needs only the registry, not the dataset.
	p, err := buildPipeline(ctx, rootOpts, log, false)
	if err != nil {
		return formatter.Failure("setup_failed", err.Error())
	}

	handler := query.NewExplainQuestionHandler(p.resolver, nil, log)
	result, err := handler.Handle(ctx, query.ExplainQuestionQuery{
		AdminID:  opts.AdminID,
		Question: question,
		Now:      now,
	})
	if err != nil {
		return formatter.Failure("explain_failed", err.Error())
	}

	if rootOpts.Format == "json" {
		return formatter.Success(result)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "action: %s\n", result.Action)
	if len(result.Filters) > 0 {
		fields := make([]string, 0, len(result.Filters))
		for field := range result.Filters {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(out, "filter: %s in {%s}\n", field, strings.Join(result.Filters[field], ", "))
		}
	}
	if result.DateRange != nil {
		fmt.Fprintf(out, "dates:  %s within [%s, %s]\n",
			result.DateRange.Kind, result.DateRange.Start, result.DateRange.End)
	}
	fmt.Fprintln(out, "plan:")
	for _, line := range result.Trace {
		fmt.Fprintf(out, "  %s\n", line)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	return nil
}
