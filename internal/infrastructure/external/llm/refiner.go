package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/edscope/edscope/internal/domain/query"
	"github.com/edscope/edscope/internal/domain/shared"
	"github.com/edscope/edscope/pkg/timeutil"
)

// Refiner implements query.Refiner on top of the completions client.
// It asks the model to re-read the question as a compact JSON intent
// and maps that JSON onto the intent schema. Anything unusable comes
// back as an error, which the caller treats as "keep the seed".
type Refiner struct {
	client  *Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewRefiner creates a refiner with a bounded per-call timeout.
func NewRefiner(client *Client, timeout time.Duration, logger *slog.Logger) *Refiner {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &Refiner{
		client:  client,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "llm_refiner")),
	}
}

const promptTemplate = `You are a parser. Convert the user question into a compact JSON object with keys:
action: one of [HOMEWORK_STATUS, PERFORMANCE, UPCOMING_QUIZZES, GENERIC]
filters: may include grade (e.g. "8"), class (list, e.g. ["8A"]), region (e.g. "East"), homework_submitted ("yes"/"no")
date_range: one of last_week, this_week, next_week, or null
Only output JSON. Example:
{"action":"PERFORMANCE","filters":{"grade":"8"},"date_range":"last_week"}
Question: %s`

// refinedDTO is the JSON shape the model is asked to produce. Filter
// values arrive untyped since models drift between strings and lists.
type refinedDTO struct {
	Action    string                     `json:"action"`
	Filters   map[string]json.RawMessage `json:"filters"`
	DateRange string                     `json:"date_range"`
}

// Refine implements query.Refiner. Date keywords in the reply resolve
// against now, so a pinned reference time yields the same window the
// rule-based parse produced.
func (r *Refiner) Refine(ctx context.Context, question string, seed query.Intent, now time.Time) (query.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reply, err := r.client.Complete(ctx, fmt.Sprintf(promptTemplate, question))
	if err != nil {
		if ctx.Err() != nil {
			return query.Intent{}, shared.ErrRefinerTimeout
		}
		return query.Intent{}, shared.WrapError("refine", "Request",
			shared.ErrServiceUnavailable, "refinement provider call failed", err)
	}

	candidate, err := r.parseReply(reply, now)
	if err != nil {
		r.logger.Warn("unusable refinement reply", slog.String("error", err.Error()))
		return query.Intent{}, err
	}
	return candidate, nil
}

// parseReply maps the model's text onto an intent candidate. Models
// wrap JSON in prose and code fences often enough that the parse takes
// whatever sits between the first '{' and the last '}'.
func (r *Refiner) parseReply(reply string, now time.Time) (query.Intent, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return query.Intent{}, shared.ErrRefinerInvalidResponse
	}

	var dto refinedDTO
	if err := json.Unmarshal([]byte(reply[start:end+1]), &dto); err != nil {
		return query.Intent{}, shared.WrapError("refine", "Parse",
			shared.ErrInvalidFormat, "refinement reply is not JSON", err)
	}

	candidate := query.Intent{
		Action:  query.Action(strings.ToUpper(strings.TrimSpace(dto.Action))),
		Filters: query.Filters{},
	}

	for field, raw := range dto.Filters {
		for _, value := range decodeFilterValues(raw) {
			candidate.Filters.Add(strings.ToLower(field), value)
		}
	}

	if dr := resolveDateKeyword(dto.DateRange, now); dr != nil {
		candidate.DateRange = dr
	}

	return candidate, nil
}

// decodeFilterValues accepts a scalar or a list of scalars.
func decodeFilterValues(raw json.RawMessage) []string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		if number == float64(int64(number)) {
			return []string{fmt.Sprintf("%d", int64(number))}
		}
		return []string{fmt.Sprintf("%v", number)}
	}
	return nil
}

func resolveDateKeyword(keyword string, now time.Time) *query.DateRange {
	if now.IsZero() {
		now = time.Now()
	}
	var kind query.DateRangeKind
	var start, end time.Time

	switch strings.ToLower(strings.TrimSpace(keyword)) {
	case "last_week":
		kind = query.RangeLastWeek
		start, end = timeutil.PreviousWeekWindow(now)
	case "this_week":
		kind = query.RangeThisWeek
		start, end = timeutil.WeekWindow(now)
	case "next_week":
		kind = query.RangeNextWeek
		start, end = timeutil.NextWeekWindow(now)
	default:
		return nil
	}
	return &query.DateRange{Kind: kind, Start: start, End: end}
}
