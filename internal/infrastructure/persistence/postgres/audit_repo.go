package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edscope/edscope/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUDIT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// AuditEntry is one persisted audit record.
type AuditEntry struct {
	ID          int64
	EventType   string
	AdminID     string
	Question    string
	Action      string
	Trace       []string
	RowsMatched int
	Detail      string
	OccurredAt  time.Time
}

// AuditRepository persists query-path events into the query_audit table.
type AuditRepository struct {
	conn *Connection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(conn *Connection) *AuditRepository {
	return &AuditRepository{conn: conn}
}

// Record stores a domain event. Only the query-path events carry audit
// fields; anything else is stored with its payload flattened into detail.
func (r *AuditRepository) Record(ctx context.Context, event shared.Event) error {
	entry := entryFromEvent(event)

	traceJSON, err := json.Marshal(entry.Trace)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}
	if entry.Trace == nil {
		traceJSON = []byte("[]")
	}

	query := `
		INSERT INTO query_audit (
			event_type, admin_id, question, action, trace, matched_rows, detail, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.conn.Exec(ctx, query,
		entry.EventType,
		entry.AdminID,
		entry.Question,
		entry.Action,
		traceJSON,
		entry.RowsMatched,
		entry.Detail,
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}

// RecentByAdmin returns the latest audit entries for one admin.
func (r *AuditRepository) RecentByAdmin(ctx context.Context, adminID string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, event_type, admin_id, question, action, trace, matched_rows, detail, occurred_at
		FROM query_audit
		WHERE admin_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, adminID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var (
			entry     AuditEntry
			traceJSON []byte
		)
		if err := rows.Scan(&entry.ID, &entry.EventType, &entry.AdminID,
			&entry.Question, &entry.Action, &traceJSON,
			&entry.RowsMatched, &entry.Detail, &entry.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if err := json.Unmarshal(traceJSON, &entry.Trace); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trace: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// entryFromEvent maps domain events onto audit columns.
func entryFromEvent(event shared.Event) AuditEntry {
	entry := AuditEntry{
		EventType:  string(event.EventType()),
		AdminID:    event.AggregateID(),
		OccurredAt: event.OccurredAt(),
	}

	switch e := event.(type) {
	case shared.QueryExecutedEvent:
		entry.Question = e.Question
		entry.Action = e.Action
		entry.Trace = e.Trace
		entry.RowsMatched = e.RowsMatched
	case shared.QueryRejectedEvent:
		entry.Question = e.Question
		entry.Detail = e.Reason
	case shared.RefinementFallbackEvent:
		entry.Detail = e.Cause
	case shared.RefinementAppliedEvent:
		detail, _ := json.Marshal(e.Changes)
		entry.Detail = string(detail)
	case shared.RosterLoadedEvent:
		entry.Detail = fmt.Sprintf("source=%s loaded=%d skipped=%d",
			e.Source, e.RowsLoaded, e.RowsSkipped)
	default:
		payload, _ := json.Marshal(event.Payload())
		entry.Detail = string(payload)
	}

	return entry
}
