package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/edscope/edscope/internal/domain/admin"
	domainquery "github.com/edscope/edscope/internal/domain/query"
	"github.com/edscope/edscope/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPLAIN QUESTION QUERY
// Shows what a question WOULD do: the recognized intent and the full
// predicate plan, without touching the roster.
// ══════════════════════════════════════════════════════════════════════════════

// ExplainQuestionQuery contains the input for one explanation.
type ExplainQuestionQuery struct {
	AdminID  string
	Question string

	// Now overrides the reference time for relative date phrases.
	Now time.Time

	// SkipRefinement bypasses the refinement hook.
	SkipRefinement bool
}

// Validate checks the query parameters.
func (q *ExplainQuestionQuery) Validate() error {
	if q.AdminID == "" {
		return shared.ErrEmptyAdminID
	}
	if q.Question == "" {
		return shared.ErrEmptyQuestion
	}
	return nil
}

// DateRangeDTO describes a resolved date window.
type DateRangeDTO struct {
	Kind  string `json:"kind"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// ExplainQuestionResult describes the plan for a question.
type ExplainQuestionResult struct {
	AdminID string `json:"admin_id"`

	// Action is the recognized intent action.
	Action string `json:"action"`

	// Filters holds the recognized filter fields and their values.
	Filters map[string][]string `json:"filters,omitempty"`

	// DateRange is the resolved window, if the question carried one.
	DateRange *DateRangeDTO `json:"date_range,omitempty"`

	// Trace lists every predicate the plan would apply, scope first.
	Trace []string `json:"trace"`

	// Warnings lists dropped filters and other non-fatal conditions.
	Warnings []string `json:"warnings,omitempty"`

	// Refined reports whether the refinement hook changed the intent.
	Refined bool `json:"refined"`
}

// ExplainQuestionHandler explains questions without executing them.
type ExplainQuestionHandler struct {
	resolver *admin.Resolver
	refiner  domainquery.Refiner
	logger   *slog.Logger
	nowFn    func() time.Time
}

// NewExplainQuestionHandler creates a new handler.
func NewExplainQuestionHandler(resolver *admin.Resolver, refiner domainquery.Refiner, logger *slog.Logger) *ExplainQuestionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExplainQuestionHandler{
		resolver: resolver,
		refiner:  refiner,
		logger:   logger.With(slog.String("component", "explain_question")),
		nowFn:    time.Now,
	}
}

// WithNow overrides the handler clock. Intended for tests.
func (h *ExplainQuestionHandler) WithNow(nowFn func() time.Time) *ExplainQuestionHandler {
	h.nowFn = nowFn
	return h
}

// Handle explains one question.
func (h *ExplainQuestionHandler) Handle(ctx context.Context, q ExplainQuestionQuery) (*ExplainQuestionResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	profile, err := h.resolver.Resolve(q.AdminID)
	if err != nil {
		return nil, err
	}

	now := q.Now
	if now.IsZero() {
		now = h.nowFn()
	}

	seed := domainquery.Parse(q.Question, now)
	intent := seed
	refined := false

	if h.refiner != nil && !q.SkipRefinement {
		if candidate, rerr := h.refiner.Refine(ctx, q.Question, seed, now); rerr == nil {
			var changes []string
			intent, changes = domainquery.MergeRefined(seed, candidate)
			refined = len(changes) > 0
		}
	}

	plan, err := domainquery.Compile(profile, intent)
	if err != nil {
		return nil, err
	}

	result := &ExplainQuestionResult{
		AdminID:  profile.ID,
		Action:   intent.Action.String(),
		Trace:    plan.Trace(),
		Warnings: plan.Warnings,
		Refined:  refined,
	}

	if len(intent.Filters) > 0 {
		result.Filters = intent.Filters.Clone()
	}
	if intent.DateRange != nil {
		result.DateRange = &DateRangeDTO{
			Kind:  string(intent.DateRange.Kind),
			Start: intent.DateRange.Start.Format("2006-01-02"),
			End:   intent.DateRange.End.Format("2006-01-02"),
		}
	}

	return result, nil
}
