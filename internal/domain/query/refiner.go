package query

import (
	"context"
	"fmt"
	"time"
)

// Refiner is the optional language-model hook. Implementations receive
// the raw question, the rule-based intent, and the reference time the
// question was asked against, and may return a revised candidate.
// Relative date phrases must resolve against now, never against the
// implementation's own clock. Any error from Refine means "use the
// seed unchanged"; the pipeline never depends on refinement
// succeeding.
type Refiner interface {
	Refine(ctx context.Context, question string, seed Intent, now time.Time) (Intent, error)
}

// MergeRefined overlays a refinement candidate onto the rule-based
// seed. The hook may only narrow or correct: it can replace the action,
// override or add filter values, and tighten the date range, but it can
// never delete a seed filter, clear the seed's date range, or widen it.
// The returned change list names what the candidate actually altered.
func MergeRefined(seed, candidate Intent) (Intent, []string) {
	merged := seed.Clone()
	var changes []string

	if candidate.Action.IsValid() && candidate.Action != seed.Action {
		merged.Action = candidate.Action
		changes = append(changes, fmt.Sprintf("action %s -> %s", seed.Action, candidate.Action))
	}

	for _, field := range []string{FilterGrade, FilterClass, FilterRegion, FilterSubmitted} {
		values, ok := candidate.Filters[field]
		if !ok || len(values) == 0 {
			continue
		}
		if !sameValues(merged.Filters[field], values) {
			changes = append(changes, fmt.Sprintf("filter %s set to %v", field, values))
		}
		copied := make([]string, len(values))
		copy(copied, values)
		merged.Filters[field] = copied
	}

	if candidate.DateRange != nil && candidate.DateRange.Validate() == nil &&
		!widensRange(seed.DateRange, candidate.DateRange) {
		if seed.DateRange == nil || *seed.DateRange != *candidate.DateRange {
			changes = append(changes, fmt.Sprintf("date range set to %s", candidate.DateRange.Kind))
		}
		dr := *candidate.DateRange
		merged.DateRange = &dr
	}

	return merged, changes
}

// widensRange reports whether candidate reaches outside the seed's
// window. A seed without a range cannot be widened.
func widensRange(seed, candidate *DateRange) bool {
	if seed == nil {
		return false
	}
	return candidate.Start.Before(seed.Start) || candidate.End.After(seed.End)
}

func sameValues(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
