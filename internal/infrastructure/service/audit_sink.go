package service

import (
	"context"
	"log/slog"

	"github.com/edscope/edscope/internal/application/eventhandler"
	"github.com/edscope/edscope/internal/domain/shared"
	"github.com/edscope/edscope/pkg/circuitbreaker"
	"github.com/edscope/edscope/pkg/retry"
)

// ResilientAuditSink wraps an audit sink with a retrier and a circuit
// breaker. Audit writes sit on the query path (via the event bus), so
// a down audit database must degrade to dropped entries, not stalls.
type ResilientAuditSink struct {
	inner   eventhandler.AuditSink
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewResilientAuditSink wraps the given sink.
func NewResilientAuditSink(inner eventhandler.AuditSink, logger *slog.Logger) *ResilientAuditSink {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "audit_sink"))

	breaker := circuitbreaker.AuditBreaker(func(name string, from, to circuitbreaker.State) {
		logger.Warn("audit breaker state change",
			slog.String("breaker", name),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return &ResilientAuditSink{
		inner:   inner,
		retrier: retry.DatabaseRetrier(),
		breaker: breaker,
		logger:  logger,
	}
}

// Record persists the event, retrying transient failures. When the
// breaker is open the entry is dropped and the error returned; the
// audit logger downgrades that to a log line.
func (s *ResilientAuditSink) Record(ctx context.Context, event shared.Event) error {
	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.retrier.Do(ctx, func(ctx context.Context) error {
			if err := s.inner.Record(ctx, event); err != nil {
				return retry.Retryable(err)
			}
			return nil
		})
	})
}
