// Package query contains the question pipeline: parsing free text into a
// structured intent, compiling intent plus admin scope into predicates,
// and executing those predicates against the roster table.
package query

import (
	"time"

	"github.com/edscope/edscope/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// Action
// ═══════════════════════════════════════════════════════════════════════════

// Action is what a question is asking for. Exactly one action is
// selected per question.
type Action string

const (
	ActionHomeworkStatus  Action = "HOMEWORK_STATUS"
	ActionPerformance     Action = "PERFORMANCE"
	ActionUpcomingQuizzes Action = "UPCOMING_QUIZZES"
	ActionGeneric         Action = "GENERIC"
)

// IsValid checks if the action is one of the known values.
func (a Action) IsValid() bool {
	switch a {
	case ActionHomeworkStatus, ActionPerformance, ActionUpcomingQuizzes, ActionGeneric:
		return true
	}
	return false
}

// String returns the action name.
func (a Action) String() string {
	return string(a)
}

// ═══════════════════════════════════════════════════════════════════════════
// Filters
// ═══════════════════════════════════════════════════════════════════════════

// Filter field names the parser may emit. They mirror the roster schema
// columns a question can constrain.
const (
	FilterGrade     = "grade"
	FilterClass     = "class"
	FilterRegion    = "region"
	FilterSubmitted = "homework_submitted"
)

// Filters maps a field name to the set of acceptable values, in the
// dataset's spellings ("8", "8A", "East", "yes"). Values within a field
// are OR-ed; fields are AND-ed at compile time. Fields outside the
// known set survive parsing but are dropped with a warning by the
// compiler.
type Filters map[string][]string

// Clone returns a deep copy.
func (f Filters) Clone() Filters {
	if f == nil {
		return Filters{}
	}
	out := make(Filters, len(f))
	for k, v := range f {
		vals := make([]string, len(v))
		copy(vals, v)
		out[k] = vals
	}
	return out
}

// Set replaces the field's value set with a single value.
func (f Filters) Set(field, value string) {
	f[field] = []string{value}
}

// Add appends a value to the field's set, skipping duplicates.
func (f Filters) Add(field, value string) {
	for _, existing := range f[field] {
		if existing == value {
			return
		}
	}
	f[field] = append(f[field], value)
}

// ═══════════════════════════════════════════════════════════════════════════
// DateRange
// ═══════════════════════════════════════════════════════════════════════════

// DateRangeKind names how a date range was derived.
type DateRangeKind string

const (
	RangeLastWeek DateRangeKind = "last_week"
	RangeThisWeek DateRangeKind = "this_week"
	RangeNextWeek DateRangeKind = "next_week"
	RangeCustom   DateRangeKind = "custom"
)

// DateRange is an inclusive [Start, End] civil-date window.
type DateRange struct {
	Kind  DateRangeKind
	Start time.Time
	End   time.Time
}

// Validate checks the range invariant.
func (d DateRange) Validate() error {
	if d.Start.After(d.End) {
		return shared.ErrInvalidDateRange
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Intent
// ═══════════════════════════════════════════════════════════════════════════

// Intent is the structured form of a question. It carries no admin
// identity: access scope is resolved independently and joined in at
// compile time, so nothing in an Intent can widen what an admin sees.
type Intent struct {
	Action    Action
	Filters   Filters
	DateRange *DateRange
}

// Clone returns a deep copy.
func (i Intent) Clone() Intent {
	out := Intent{Action: i.Action, Filters: i.Filters.Clone()}
	if i.DateRange != nil {
		dr := *i.DateRange
		out.DateRange = &dr
	}
	return out
}

// GenericIntent is the degraded form used for text nothing matched.
func GenericIntent() Intent {
	return Intent{Action: ActionGeneric, Filters: Filters{}}
}
