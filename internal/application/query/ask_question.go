// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/edscope/edscope/internal/domain/admin"
	domainquery "github.com/edscope/edscope/internal/domain/query"
	"github.com/edscope/edscope/internal/domain/roster"
	"github.com/edscope/edscope/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ASK QUESTION QUERY
// The main entry point: a plain-language question from an identified
// admin becomes a scoped, filtered view of the roster.
// ══════════════════════════════════════════════════════════════════════════════

// AskQuestionQuery contains the input for one question.
type AskQuestionQuery struct {
	// AdminID identifies the asking admin. Resolution is case-insensitive.
	AdminID string

	// Question is the plain-language question text.
	Question string

	// Now overrides the reference time for relative date phrases.
	// Zero means the handler's clock is used.
	Now time.Time

	// SkipRefinement bypasses the refinement hook for this question.
	SkipRefinement bool
}

// Validate checks the query parameters.
func (q *AskQuestionQuery) Validate() error {
	if q.AdminID == "" {
		return shared.ErrEmptyAdminID
	}
	if q.Question == "" {
		return shared.ErrEmptyQuestion
	}
	return nil
}

// AskQuestionResult contains the answered view.
type AskQuestionResult struct {
	// AdminID is the resolved admin identity.
	AdminID string `json:"admin_id"`

	// Action is the recognized intent action.
	Action string `json:"action"`

	// Columns lists the view's column names in render order.
	Columns []string `json:"columns"`

	// Rows holds the matching records, one rendered row per record,
	// in the dataset's original order.
	Rows [][]string `json:"rows"`

	// RowCount is len(Rows), provided for convenience.
	RowCount int `json:"row_count"`

	// RowsScanned is how many roster rows were evaluated.
	RowsScanned int `json:"rows_scanned"`

	// Trace lists every applied predicate, scope constraints first.
	Trace []string `json:"trace"`

	// Warnings lists dropped filters and other non-fatal conditions.
	Warnings []string `json:"warnings,omitempty"`

	// Refined reports whether the refinement hook changed the intent.
	Refined bool `json:"refined"`

	// GeneratedAt is when the result was produced.
	GeneratedAt time.Time `json:"generated_at"`
}

// AskQuestionHandler answers questions.
type AskQuestionHandler struct {
	resolver *admin.Resolver
	tables   roster.Provider
	refiner  domainquery.Refiner
	events   shared.EventPublisher
	logger   *slog.Logger
	nowFn    func() time.Time
}

// NewAskQuestionHandler creates a new handler. A nil refiner disables
// refinement entirely; the rule-based intent is then always used.
func NewAskQuestionHandler(
	resolver *admin.Resolver,
	tables roster.Provider,
	refiner domainquery.Refiner,
	events shared.EventPublisher,
	logger *slog.Logger,
) *AskQuestionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AskQuestionHandler{
		resolver: resolver,
		tables:   tables,
		refiner:  refiner,
		events:   events,
		logger:   logger.With(slog.String("component", "ask_question")),
		nowFn:    time.Now,
	}
}

// WithNow overrides the handler clock. Intended for tests.
func (h *AskQuestionHandler) WithNow(nowFn func() time.Time) *AskQuestionHandler {
	h.nowFn = nowFn
	return h
}

// Handle answers one question end to end: resolve identity, parse,
// optionally refine, compile under scope, execute.
func (h *AskQuestionHandler) Handle(ctx context.Context, q AskQuestionQuery) (*AskQuestionResult, error) {
	startedAt := time.Now()

	if err := q.Validate(); err != nil {
		return nil, err
	}

	profile, err := h.resolver.Resolve(q.AdminID)
	if err != nil {
		h.publish(shared.NewQueryRejectedEvent(q.AdminID, q.Question, "unknown admin"))
		return nil, err
	}

	now := q.Now
	if now.IsZero() {
		now = h.nowFn()
	}

	seed := domainquery.Parse(q.Question, now)
	intent, refined := h.refineIntent(ctx, profile.ID, q, seed, now)

	plan, err := domainquery.Compile(profile, intent)
	if err != nil {
		return nil, err
	}

	table, err := h.tables.Current()
	if err != nil {
		return nil, err
	}

	view := domainquery.Execute(table, plan)

	result := &AskQuestionResult{
		AdminID:     profile.ID,
		Action:      intent.Action.String(),
		Columns:     viewColumns(),
		Rows:        renderRows(view.Records),
		RowCount:    len(view.Records),
		RowsScanned: view.Scanned,
		Trace:       plan.Trace(),
		Warnings:    plan.Warnings,
		Refined:     refined,
		GeneratedAt: time.Now().UTC(),
	}

	event := shared.NewQueryExecutedEvent(
		profile.ID, q.Question, result.Action,
		result.Trace, result.RowCount, result.RowCount,
	).WithRefined(refined).WithWarnings(plan.Warnings).WithDuration(time.Since(startedAt))
	h.publish(event)

	h.logger.Info("question answered",
		slog.String("admin_id", profile.ID),
		slog.String("action", result.Action),
		slog.Int("rows", result.RowCount),
		slog.Bool("refined", refined),
	)

	return result, nil
}

// refineIntent runs the refinement hook and merges its answer into the
// seed intent. Every failure falls back to the seed: refinement can
// narrow an answer but never block one.
func (h *AskQuestionHandler) refineIntent(ctx context.Context, adminID string, q AskQuestionQuery, seed domainquery.Intent, now time.Time) (domainquery.Intent, bool) {
	if h.refiner == nil || q.SkipRefinement {
		return seed, false
	}

	candidate, err := h.refiner.Refine(ctx, q.Question, seed, now)
	if err != nil {
		cause := "refiner error"
		if shared.IsRefinementUnavailable(err) {
			cause = err.Error()
		}
		h.logger.Warn("refinement fallback",
			slog.String("admin_id", adminID),
			slog.String("cause", cause),
		)
		h.publish(shared.NewRefinementFallbackEvent(adminID, cause))
		return seed, false
	}

	merged, changes := domainquery.MergeRefined(seed, candidate)
	if len(changes) == 0 {
		return merged, false
	}

	h.publish(shared.NewRefinementAppliedEvent(adminID, changes))
	return merged, true
}

func (h *AskQuestionHandler) publish(event shared.Event) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(event); err != nil {
		h.logger.Warn("failed to publish event",
			slog.String("event_type", string(event.EventType())),
			slog.String("error", err.Error()),
		)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// VIEW RENDERING
// ══════════════════════════════════════════════════════════════════════════════

// viewColumns returns the result column names in render order.
func viewColumns() []string {
	columns := make([]string, len(roster.RequiredColumns))
	copy(columns, roster.RequiredColumns)
	return columns
}

// renderRows renders records into display rows, preserving order.
func renderRows(records []roster.Record) [][]string {
	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(roster.RequiredColumns))
		for j, col := range roster.RequiredColumns {
			value, _ := rec.Field(col)
			row[j] = value
		}
		rows[i] = row
	}
	return rows
}
