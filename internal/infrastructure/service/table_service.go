package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/edscope/edscope/internal/domain/roster"
	"github.com/edscope/edscope/internal/domain/shared"
)

// TableService owns the active roster snapshot. It loads once at
// startup and swaps the whole table atomically on reload, so queries
// that already hold a snapshot are never affected by a reload racing
// past them. Implements roster.Provider and roster.Reloader.
type TableService struct {
	source roster.Source
	events shared.EventPublisher
	logger *slog.Logger

	mu    sync.RWMutex
	table *roster.Table
}

// NewTableService creates the service; call Reload once before serving.
func NewTableService(source roster.Source, events shared.EventPublisher, logger *slog.Logger) *TableService {
	return &TableService{
		source: source,
		events: events,
		logger: logger.With(slog.String("component", "table_service")),
	}
}

// Current implements roster.Provider.
func (s *TableService) Current() (*roster.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.table == nil {
		return nil, shared.ErrTableNotLoaded
	}
	return s.table, nil
}

// Reload implements roster.Reloader. The previous table stays active
// when the load fails.
func (s *TableService) Reload(ctx context.Context) (*roster.LoadResult, error) {
	result, err := s.source.Load(ctx)
	if err != nil {
		s.logger.Error("roster load failed",
			slog.String("source", s.source.Name()),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.mu.Lock()
	initial := s.table == nil
	s.table = result.Table
	s.mu.Unlock()

	s.logger.Info("roster snapshot swapped",
		slog.String("source", s.source.Name()),
		slog.Int("records", result.Table.Len()),
		slog.Int("skipped", len(result.Warnings)),
		slog.Bool("initial", initial))

	if s.events != nil {
		event := shared.NewRosterLoadedEvent(
			s.source.Name(), result.Table.Len(), len(result.Warnings), !initial)
		if err := s.events.Publish(event); err != nil {
			s.logger.Warn("roster event publish failed", slog.String("error", err.Error()))
		}
	}

	return result, nil
}
