// Package command contains write operations following CQRS pattern.
// Commands change state and return only what the caller needs to know
// about the outcome.
package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/edscope/edscope/internal/domain/roster"
)

// ══════════════════════════════════════════════════════════════════════════════
// RELOAD ROSTER COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// ReloadRosterCommand requests an immediate roster reload.
type ReloadRosterCommand struct {
	// Requester names who asked for the reload, for logging.
	Requester string
}

// ReloadRosterResult reports the reload outcome.
type ReloadRosterResult struct {
	Source      string    `json:"source"`
	RowsLoaded  int       `json:"rows_loaded"`
	RowsSkipped int       `json:"rows_skipped"`
	Warnings    []string  `json:"warnings,omitempty"`
	ReloadedAt  time.Time `json:"reloaded_at"`
}

// ReloadRosterHandler executes roster reloads.
type ReloadRosterHandler struct {
	reloader roster.Reloader
	logger   *slog.Logger
}

// NewReloadRosterHandler creates a new handler.
func NewReloadRosterHandler(reloader roster.Reloader, logger *slog.Logger) *ReloadRosterHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReloadRosterHandler{
		reloader: reloader,
		logger:   logger.With(slog.String("component", "reload_roster")),
	}
}

// Handle reloads the roster. On failure the previous snapshot stays in
// service, so returning the error is safe.
func (h *ReloadRosterHandler) Handle(ctx context.Context, cmd ReloadRosterCommand) (*ReloadRosterResult, error) {
	result, err := h.reloader.Reload(ctx)
	if err != nil {
		h.logger.Error("reload failed",
			slog.String("requester", cmd.Requester),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	warnings := make([]string, len(result.Warnings))
	for i, w := range result.Warnings {
		warnings[i] = w.Reason
	}

	h.logger.Info("roster reloaded",
		slog.String("requester", cmd.Requester),
		slog.String("source", result.Table.Source()),
		slog.Int("rows_loaded", result.Table.Len()),
		slog.Int("rows_skipped", len(result.Warnings)),
	)

	return &ReloadRosterResult{
		Source:      result.Table.Source(),
		RowsLoaded:  result.Table.Len(),
		RowsSkipped: len(result.Warnings),
		Warnings:    warnings,
		ReloadedAt:  result.Table.LoadedAt(),
	}, nil
}
