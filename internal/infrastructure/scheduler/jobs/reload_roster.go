// Package jobs contains implementations of scheduled jobs.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/edscope/edscope/internal/domain/roster"
	"github.com/edscope/edscope/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// RELOAD ROSTER JOB
// ══════════════════════════════════════════════════════════════════════════════

// ReloadRosterJob periodically reloads the roster from its source so
// queries keep seeing fresh data without a restart. A failed reload
// keeps the previous snapshot in service.
type ReloadRosterJob struct {
	reloader roster.Reloader
	logger   *slog.Logger
	config   ReloadRosterConfig

	lastStats atomic.Value // *ReloadStats
}

// ReloadRosterConfig contains configuration for the reload job.
type ReloadRosterConfig struct {
	// Timeout is the maximum duration for one reload.
	Timeout time.Duration

	// MaxSkippedFraction fails the job when more than this fraction of
	// rows was rejected, which usually means the source file is broken.
	MaxSkippedFraction float64
}

// DefaultReloadRosterConfig returns sensible defaults.
func DefaultReloadRosterConfig() ReloadRosterConfig {
	return ReloadRosterConfig{
		Timeout:            30 * time.Second,
		MaxSkippedFraction: 0.5,
	}
}

// ReloadStats contains statistics from a reload run.
type ReloadStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	RowsLoaded  int
	RowsSkipped int
	Err         error
}

// NewReloadRosterJob creates a new reload job.
func NewReloadRosterJob(reloader roster.Reloader, logger *slog.Logger, config ReloadRosterConfig) *ReloadRosterJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxSkippedFraction <= 0 {
		config.MaxSkippedFraction = 0.5
	}

	return &ReloadRosterJob{
		reloader: reloader,
		logger:   logger.With(slog.String("component", "reload_roster_job")),
		config:   config,
	}
}

// Name returns the job name.
func (j *ReloadRosterJob) Name() string {
	return "reload_roster"
}

// Description returns a human-readable description.
func (j *ReloadRosterJob) Description() string {
	return "Reloads the student roster from its configured source"
}

// Run executes the reload job.
func (j *ReloadRosterJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &ReloadStats{StartedAt: startedAt}

	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	// Transient source failures (file mid-write, database hiccup) get a
	// couple of retries before the run is declared failed.
	var result *roster.LoadResult
	err := retry.RosterSourceRetrier().Do(ctx, func(ctx context.Context) error {
		res, loadErr := j.reloader.Reload(ctx)
		if loadErr != nil {
			return retry.Retryable(loadErr)
		}
		result = res
		return nil
	})

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	stats.Err = err

	if err != nil {
		j.lastStats.Store(stats)
		return fmt.Errorf("roster reload failed: %w", err)
	}

	stats.RowsLoaded = result.Table.Len()
	stats.RowsSkipped = len(result.Warnings)
	j.lastStats.Store(stats)

	total := stats.RowsLoaded + stats.RowsSkipped
	if total > 0 {
		skippedFraction := float64(stats.RowsSkipped) / float64(total)
		if skippedFraction > j.config.MaxSkippedFraction {
			return fmt.Errorf("roster reload rejected %d of %d rows", stats.RowsSkipped, total)
		}
	}

	j.logger.Info("roster reloaded",
		"source", result.Table.Source(),
		"rows_loaded", stats.RowsLoaded,
		"rows_skipped", stats.RowsSkipped,
		"duration", stats.Duration.String(),
	)

	return nil
}

// LastStats returns statistics from the last reload run.
func (j *ReloadRosterJob) LastStats() *ReloadStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*ReloadStats)
}
