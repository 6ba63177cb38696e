// Package logger configures the process-wide structured logger and
// provides shared attribute helpers so log fields stay consistent
// across packages.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Options configures the logger.
type Options struct {
	// Output defaults to os.Stdout.
	Output io.Writer

	// Level is the minimum level to emit.
	Level slog.Level

	// Format selects JSON or human-readable text output.
	Format Format

	// AddSource includes the file:line of the call site.
	AddSource bool
}

// DefaultOptions returns sensible defaults for the logger.
func DefaultOptions() Options {
	return Options{
		Output: os.Stdout,
		Level:  slog.LevelInfo,
		Format: FormatJSON,
	}
}

// ParseLevel converts a level name to a slog.Level. Unknown names
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a *slog.Logger from the given options.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	switch opts.Format {
	case FormatText:
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	}

	return slog.New(handler)
}

// Default creates a logger with default options.
func Default() *slog.Logger {
	return New(DefaultOptions())
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTRIBUTE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// Err wraps an error as a log attribute. A nil error renders as "<nil>".
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Component names the subsystem emitting the entry.
func Component(name string) slog.Attr { return slog.String("component", name) }

// Domain-specific field helpers keep key names uniform across the
// query pipeline.

func AdminID(id string) slog.Attr         { return slog.String("admin_id", id) }
func Question(text string) slog.Attr      { return slog.String("question", text) }
func Action(action string) slog.Attr      { return slog.String("action", action) }
func RowCount(n int) slog.Attr            { return slog.Int("row_count", n) }
func RowsScanned(n int) slog.Attr         { return slog.Int("rows_scanned", n) }
func Source(name string) slog.Attr        { return slog.String("source", name) }
func RequestID(id string) slog.Attr       { return slog.String("request_id", id) }
func Latency(d time.Duration) slog.Attr   { return slog.Int64("latency_ms", d.Milliseconds()) }
func Refined(refined bool) slog.Attr      { return slog.Bool("refined", refined) }
func WarningCount(n int) slog.Attr        { return slog.Int("warnings", n) }
