// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event marks something significant on the query
// path or in the roster lifecycle; subscribers build the audit trail from them.
const (
	// Query events
	EventQueryExecuted EventType = "query.executed"
	EventQueryRejected EventType = "query.rejected"

	// Roster lifecycle events
	EventRosterLoaded   EventType = "roster.loaded"
	EventRosterReloaded EventType = "roster.reloaded"

	// Refinement events
	EventRefinementApplied  EventType = "refinement.applied"
	EventRefinementFallback EventType = "refinement.fallback"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Query Events
// ═══════════════════════════════════════════════════════════════════════════

// QueryExecutedEvent is emitted after a question has been answered.
// It carries the full predicate trace so subscribers can audit exactly
// which constraints were applied, with scope constraints listed first.
type QueryExecutedEvent struct {
	BaseEvent
	AdminID     string   `json:"admin_id"`
	Question    string   `json:"question"`
	Action      string   `json:"action"`
	Trace       []string `json:"trace"`
	Warnings    []string `json:"warnings,omitempty"`
	RowsMatched int      `json:"rows_matched"`
	RowsVisible int      `json:"rows_visible"`
	Refined     bool     `json:"refined"`
	DurationMS  int64    `json:"duration_ms"`
}

// Payload implements Event interface.
func (e QueryExecutedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"admin_id":     e.AdminID,
		"question":     e.Question,
		"action":       e.Action,
		"trace":        e.Trace,
		"warnings":     e.Warnings,
		"rows_matched": e.RowsMatched,
		"rows_visible": e.RowsVisible,
		"refined":      e.Refined,
		"duration_ms":  e.DurationMS,
	}
}

// NewQueryExecutedEvent creates a new QueryExecutedEvent.
func NewQueryExecutedEvent(adminID, question, action string, trace []string, matched, visible int) QueryExecutedEvent {
	return QueryExecutedEvent{
		BaseEvent:   NewBaseEvent(EventQueryExecuted, adminID),
		AdminID:     adminID,
		Question:    question,
		Action:      action,
		Trace:       trace,
		RowsMatched: matched,
		RowsVisible: visible,
	}
}

// WithRefined marks the event as produced from a refined intent.
func (e QueryExecutedEvent) WithRefined(refined bool) QueryExecutedEvent {
	e.Refined = refined
	return e
}

// WithWarnings attaches compiler warnings to the event.
func (e QueryExecutedEvent) WithWarnings(warnings []string) QueryExecutedEvent {
	e.Warnings = warnings
	return e
}

// WithDuration records the end-to-end handling time.
func (e QueryExecutedEvent) WithDuration(d time.Duration) QueryExecutedEvent {
	e.DurationMS = d.Milliseconds()
	return e
}

// QueryRejectedEvent is emitted when a question is refused before execution,
// e.g. for an unknown admin identity. No partial result exists.
type QueryRejectedEvent struct {
	BaseEvent
	AdminID  string `json:"admin_id"`
	Question string `json:"question"`
	Reason   string `json:"reason"`
}

// Payload implements Event interface.
func (e QueryRejectedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"admin_id": e.AdminID,
		"question": e.Question,
		"reason":   e.Reason,
	}
}

// NewQueryRejectedEvent creates a new QueryRejectedEvent.
func NewQueryRejectedEvent(adminID, question, reason string) QueryRejectedEvent {
	return QueryRejectedEvent{
		BaseEvent: NewBaseEvent(EventQueryRejected, adminID),
		AdminID:   adminID,
		Question:  question,
		Reason:    reason,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Roster Lifecycle Events
// ═══════════════════════════════════════════════════════════════════════════

// RosterLoadedEvent is emitted when a roster snapshot becomes current.
type RosterLoadedEvent struct {
	BaseEvent
	Source      string `json:"source"`
	RowsLoaded  int    `json:"rows_loaded"`
	RowsSkipped int    `json:"rows_skipped"`
	Reload      bool   `json:"reload"`
}

// Payload implements Event interface.
func (e RosterLoadedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"source":       e.Source,
		"rows_loaded":  e.RowsLoaded,
		"rows_skipped": e.RowsSkipped,
		"reload":       e.Reload,
	}
}

// NewRosterLoadedEvent creates a new RosterLoadedEvent.
func NewRosterLoadedEvent(source string, loaded, skipped int, reload bool) RosterLoadedEvent {
	eventType := EventRosterLoaded
	if reload {
		eventType = EventRosterReloaded
	}
	return RosterLoadedEvent{
		BaseEvent:   NewBaseEvent(eventType, source),
		Source:      source,
		RowsLoaded:  loaded,
		RowsSkipped: skipped,
		Reload:      reload,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Refinement Events
// ═══════════════════════════════════════════════════════════════════════════

// RefinementFallbackEvent is emitted when the refinement hook failed and the
// rule-based intent was used unchanged. This is informational: fallback is
// normal operation, never an error surfaced to the caller.
type RefinementFallbackEvent struct {
	BaseEvent
	AdminID string `json:"admin_id"`
	Cause   string `json:"cause"`
}

// Payload implements Event interface.
func (e RefinementFallbackEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"admin_id": e.AdminID,
		"cause":    e.Cause,
	}
}

// NewRefinementFallbackEvent creates a new RefinementFallbackEvent.
func NewRefinementFallbackEvent(adminID, cause string) RefinementFallbackEvent {
	return RefinementFallbackEvent{
		BaseEvent: NewBaseEvent(EventRefinementFallback, adminID),
		AdminID:   adminID,
		Cause:     cause,
	}
}

// RefinementAppliedEvent is emitted when the refinement hook changed the
// rule-based intent.
type RefinementAppliedEvent struct {
	BaseEvent
	AdminID string   `json:"admin_id"`
	Changes []string `json:"changes"`
}

// Payload implements Event interface.
func (e RefinementAppliedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"admin_id": e.AdminID,
		"changes":  e.Changes,
	}
}

// NewRefinementAppliedEvent creates a new RefinementAppliedEvent.
func NewRefinementAppliedEvent(adminID string, changes []string) RefinementAppliedEvent {
	return RefinementAppliedEvent{
		BaseEvent: NewBaseEvent(EventRefinementApplied, adminID),
		AdminID:   adminID,
		Changes:   changes,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
