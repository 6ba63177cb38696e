package query

import (
	"regexp"
	"strings"
	"time"

	"github.com/edscope/edscope/pkg/timeutil"
)

// Keyword classes for action selection. Matching is substring-based on
// the lower-cased question, same as the entity patterns below.
var (
	negationPhrases = []string{
		"not submitted",
		"didn't submit",
		"didnt submit",
		"haven't submitted",
		"havent submitted",
		"no submission",
	}
	performanceWords = []string{"performance", "score"}
	schedulingWords  = []string{"upcoming", "scheduled", "quiz"}
	submissionWords  = []string{"homework", "submit", "submission", "submitted"}
)

var (
	gradeRegex  = regexp.MustCompile(`grade\s*(\d{1,2})`)
	classRegex  = regexp.MustCompile(`\b(\d{1,2}[a-z])\b`)
	regionRegex = regexp.MustCompile(`\b(north|south|east|west)\b`)
)

// Parse turns a plain-language question into an Intent. It is pure and
// deterministic: the same text and reference time always produce the
// same Intent, and malformed text degrades to a GENERIC intent instead
// of failing. Relative date phrases resolve against now.
func Parse(text string, now time.Time) Intent {
	t := strings.ToLower(strings.TrimSpace(text))
	// Typographic apostrophes (mobile keyboards insert U+2019) would
	// otherwise miss the negation phrases below.
	t = strings.ReplaceAll(t, "\u2019", "'")
	if t == "" {
		return GenericIntent()
	}

	intent := Intent{Filters: Filters{}}

	// Action selection. Priority is fixed: a negated submission phrase
	// wins over everything, then performance keywords, then scheduling
	// keywords, then plain submission keywords, then GENERIC.
	negated := containsAny(t, negationPhrases)
	switch {
	case negated:
		intent.Action = ActionHomeworkStatus
		intent.Filters.Set(FilterSubmitted, "no")
	case containsAny(t, performanceWords):
		intent.Action = ActionPerformance
	case containsAny(t, schedulingWords):
		intent.Action = ActionUpcomingQuizzes
	case containsAny(t, submissionWords):
		intent.Action = ActionHomeworkStatus
		if strings.Contains(t, "submitted") {
			intent.Filters.Set(FilterSubmitted, "yes")
		}
	default:
		intent.Action = ActionGeneric
	}

	// Entity extraction. Each pattern contributes a filter only when it
	// matches; nothing here can fail.
	if m := gradeRegex.FindStringSubmatch(t); m != nil {
		intent.Filters.Set(FilterGrade, m[1])
	}
	if m := classRegex.FindStringSubmatch(t); m != nil {
		intent.Filters.Add(FilterClass, strings.ToUpper(m[1]))
	}
	if m := regionRegex.FindStringSubmatch(t); m != nil {
		intent.Filters.Set(FilterRegion, capitalize(m[1]))
	}

	// Relative date phrases resolve to inclusive Monday-Sunday windows.
	switch {
	case strings.Contains(t, "last week"):
		intent.DateRange = weekRange(RangeLastWeek, now)
	case strings.Contains(t, "this week"):
		intent.DateRange = weekRange(RangeThisWeek, now)
	case strings.Contains(t, "next week"):
		intent.DateRange = weekRange(RangeNextWeek, now)
	}

	return intent
}

// weekRange resolves a relative week keyword against the reference time.
func weekRange(kind DateRangeKind, now time.Time) *DateRange {
	var start, end time.Time
	switch kind {
	case RangeLastWeek:
		start, end = timeutil.PreviousWeekWindow(now)
	case RangeNextWeek:
		start, end = timeutil.NextWeekWindow(now)
	default:
		start, end = timeutil.WeekWindow(now)
	}
	return &DateRange{Kind: kind, Start: start, End: end}
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
