package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edscope/edscope/internal/application/query"
)

// AskOptions holds flags for the ask command.
type AskOptions struct {
	AdminID string
	Now     string
}

// NewAskCommand creates the ask command.
func NewAskCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AskOptions{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question against the roster",
		Long: `Answer a plain-language question against the roster.

The answer is restricted to the admin's visibility scope. Unknown
admins are rejected outright.

Examples:
  edscope ask --admin alice "which 8th graders submitted homework?"
  edscope ask --admin bob --now 2024-04-10 "quizzes this week"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.AdminID, "admin", "", "asking admin's ID (required)")
	cmd.Flags().StringVar(&opts.Now, "now", "", "reference date for relative phrases (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("admin")

	return cmd
}

func runAsk(rootOpts *RootOptions, opts *AskOptions, question string, cmd *cobra.Command) error {
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

	p, err := buildPipeline(ctx, rootOpts, log, true)
	if err != nil {
		return formatter.Failure("setup_failed", err.Error())
	}

	handler := query.NewAskQuestionHandler(p.resolver, p.tables, nil, nil, log)
	result, err := handler.Handle(ctx, query.AskQuestionQuery{
		AdminID:  opts.AdminID,
		Question: question,
		Now:      now,
	})
	if err != nil {
		return formatter.Failure("query_failed", err.Error())
	}

	if rootOpts.Format == "json" {
		return formatter.Success(result)
	}

	out := cmd.OutOrStdout()
	if result.RowCount == 0 {
		fmt.Fprintln(out, "no matching rows")
	} else {
		renderTable(out, result.Columns, result.Rows)
	}
	fmt.Fprintf(out, "\n%d of %d rows matched (action: %s)\n",
		result.RowCount, result.RowsScanned, result.Action)
	for _, line := range result.Trace {
		formatter.VerboseLog("  %s", line)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	return nil
}
