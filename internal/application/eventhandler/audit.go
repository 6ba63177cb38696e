// Package eventhandler contains subscribers that react to domain events.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/edscope/edscope/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUDIT TRAIL
// ══════════════════════════════════════════════════════════════════════════════

// AuditSink persists audit entries. The PostgreSQL audit repository
// implements this; a nil sink leaves the trail log-only.
type AuditSink interface {
	Record(ctx context.Context, event shared.Event) error
}

// AuditLogger turns query-path events into an audit trail: every event
// is logged, and persisted when a sink is configured.
type AuditLogger struct {
	sink    AuditSink
	logger  *slog.Logger
	timeout time.Duration
}

// NewAuditLogger creates a new AuditLogger.
func NewAuditLogger(sink AuditSink, logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		sink:    sink,
		logger:  logger.With(slog.String("component", "audit")),
		timeout: 5 * time.Second,
	}
}

// Register subscribes the audit logger to every event on the bus.
func (a *AuditLogger) Register(bus shared.EventSubscriber) error {
	return bus.SubscribeAll(a.Handle)
}

// Handle processes one event. It always returns nil: audit failures
// are logged, never allowed to fail the operation that emitted the event.
func (a *AuditLogger) Handle(event shared.Event) error {
	a.log(event)

	if a.sink != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.sink.Record(ctx, event); err != nil {
			a.logger.Error("failed to persist audit entry",
				slog.String("event_type", string(event.EventType())),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

func (a *AuditLogger) log(event shared.Event) {
	switch e := event.(type) {
	case shared.QueryExecutedEvent:
		a.logger.Info("query executed",
			slog.String("admin_id", e.AdminID),
			slog.String("question", e.Question),
			slog.String("action", e.Action),
			slog.Int("rows_matched", e.RowsMatched),
			slog.Bool("refined", e.Refined),
			slog.Int64("duration_ms", e.DurationMS),
		)
	case shared.QueryRejectedEvent:
		a.logger.Warn("query rejected",
			slog.String("admin_id", e.AdminID),
			slog.String("question", e.Question),
			slog.String("reason", e.Reason),
		)
	case shared.RefinementAppliedEvent:
		a.logger.Info("refinement applied",
			slog.String("admin_id", e.AdminID),
			slog.Any("changes", e.Changes),
		)
	case shared.RefinementFallbackEvent:
		a.logger.Info("refinement fallback",
			slog.String("admin_id", e.AdminID),
			slog.String("cause", e.Cause),
		)
	case shared.RosterLoadedEvent:
		a.logger.Info("roster snapshot",
			slog.String("source", e.Source),
			slog.Int("rows_loaded", e.RowsLoaded),
			slog.Int("rows_skipped", e.RowsSkipped),
			slog.Bool("reload", e.Reload),
		)
	default:
		a.logger.Info("event",
			slog.String("event_type", string(event.EventType())),
			slog.String("aggregate_id", event.AggregateID()),
		)
	}
}
