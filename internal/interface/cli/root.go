// Package cli implements the edscope command-line interface.
//
// The CLI runs the question-answering pipeline in-process against a
// roster file and admin registry, without the HTTP server. It is the
// quickest way to try a question or to check what an admin can see.
package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/edscope/edscope/config"
	"github.com/edscope/edscope/pkg/logger"
	"github.com/edscope/edscope/pkg/timeutil"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "text" | "json"

	// RosterPath and RegistryPath override the configured file locations.
	RosterPath   string
	RegistryPath string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the edscope CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "edscope",
		Short: "EdScope - scoped questions over a student roster",
		Long: `EdScope answers plain-language questions about a student roster.

Every answer is restricted to the asking admin's visibility scope:
grades, classes, and region from the admin registry. The CLI loads
the roster and registry from files and answers one question per run.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.RosterPath, "roster", "", "roster file path (overrides ROSTER_PATH)")
	cmd.PersistentFlags().StringVar(&opts.RegistryPath, "registry", "", "admin registry path (overrides ADMIN_REGISTRY_PATH)")

	cmd.AddCommand(NewAskCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewScopeCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// cliLogger returns a logger for in-process pipeline components. Quiet
// by default so command output stays clean; --verbose sends debug logs
// to stderr.
func cliLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	logOpts := logger.DefaultOptions()
	logOpts.Output = cmd.ErrOrStderr()
	logOpts.Format = logger.FormatText
	if opts.Verbose {
		logOpts.Level = slog.LevelDebug
	} else {
		logOpts.Level = slog.LevelError
	}
	return logger.New(logOpts)
}

// loadPaths resolves roster and registry paths from flags with the
// environment configuration as fallback.
func loadPaths(opts *RootOptions) (rosterPath, registryPath string, err error) {
	cfg, err := config.Load()
	if err != nil {
		return "", "", err
	}

	rosterPath = cfg.Roster.Path
	if opts.RosterPath != "" {
		rosterPath = opts.RosterPath
	}
	registryPath = cfg.Roster.RegistryPath
	if opts.RegistryPath != "" {
		registryPath = opts.RegistryPath
	}
	return rosterPath, registryPath, nil
}

// parseNowFlag turns a --now value into a reference time. An empty
// value means "use the real clock" and maps to the zero time.
func parseNowFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	now, err := timeutil.ParseDateLenient(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now value %q: %w", value, err)
	}
	return now, nil
}
