package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edscope/edscope/internal/domain/roster"
	"github.com/edscope/edscope/internal/domain/shared"
	"github.com/edscope/edscope/pkg/timeutil"
)

// fixtureTable builds a small roster spanning both admins' scopes.
// Dataset order is deliberate: result views must preserve it.
func fixtureTable(t *testing.T) *roster.Table {
	t.Helper()
	records := []roster.Record{
		{
			StudentName: "Aarav", Grade: 8, Class: "8A", Region: shared.RegionEast,
			HomeworkSubmitted: true,
			SubmissionDate:    timeutil.Date(2024, 4, 10),
			QuizScore:         82, QuizDate: timeutil.Date(2024, 4, 9),
		},
		{
			StudentName: "Meera", Grade: 7, Class: "7A", Region: shared.RegionWest,
			HomeworkSubmitted: false,
			QuizScore:         74, QuizDate: timeutil.Date(2024, 4, 11),
		},
		{
			StudentName: "Dev", Grade: 8, Class: "8B", Region: shared.RegionEast,
			HomeworkSubmitted: false,
			QuizScore:         65, QuizDate: timeutil.Date(2024, 4, 12),
		},
		{
			StudentName: "Sana", Grade: 7, Class: "7A", Region: shared.RegionWest,
			HomeworkSubmitted: true,
			SubmissionDate:    timeutil.Date(2024, 4, 16),
			QuizScore:         91, QuizDate: timeutil.Date(2024, 4, 16),
		},
		{
			StudentName: "Rohan", Grade: 9, Class: "9A", Region: shared.RegionNorth,
			HomeworkSubmitted: false,
			QuizScore:         58, QuizDate: timeutil.Date(2024, 4, 10),
		},
	}
	table, err := roster.NewTable(records, "fixture", refNow)
	require.NoError(t, err)
	return table
}

func names(view ResultView) []string {
	out := make([]string, len(view.Records))
	for i, r := range view.Records {
		out[i] = r.StudentName
	}
	return out
}

func TestExecute_RiyaUnsubmittedHomework(t *testing.T) {
	intent := Parse("Which students haven't submitted homework?", refNow)
	plan, err := Compile(riyaProfile(t), intent)
	require.NoError(t, err)

	view := Execute(fixtureTable(t), plan)

	// Only grade 7, class 7A, region West, unsubmitted.
	assert.Equal(t, []string{"Meera"}, names(view))
	assert.Equal(t, 5, view.Scanned)
}

func TestExecute_AmitPerformanceLastWeek(t *testing.T) {
	intent := Parse("Show performance for Grade 8 last week", refNow)
	plan, err := Compile(amitProfile(t), intent)
	require.NoError(t, err)

	view := Execute(fixtureTable(t), plan)

	// Aarav and Dev have quiz dates in the prior Mon-Sun window; order
	// follows the table.
	assert.Equal(t, []string{"Aarav", "Dev"}, names(view))
}

func TestExecute_EmptyViewIsNotAnError(t *testing.T) {
	intent := Parse("Show performance for Grade 9", refNow)
	plan, err := Compile(riyaProfile(t), intent)
	require.NoError(t, err)

	view := Execute(fixtureTable(t), plan)

	assert.True(t, view.IsEmpty())
	assert.Empty(t, view.Records)
}

func TestExecute_ScopeMonotonicity(t *testing.T) {
	// Whatever the question says, the result is a subsequence of what
	// scope alone permits.
	table := fixtureTable(t)
	profile := riyaProfile(t)

	scopeOnly, err := Compile(profile, GenericIntent())
	require.NoError(t, err)
	scopeView := Execute(table, scopeOnly)

	questions := []string{
		"show everything for grade 9",
		"performance in the north",
		"all students please",
		"homework for 8B east",
	}
	for _, q := range questions {
		plan, err := Compile(profile, Parse(q, refNow))
		require.NoError(t, err)
		view := Execute(table, plan)

		for _, r := range view.Records {
			assert.Contains(t, scopeView.Records, r,
				"question %q leaked a record outside scope", q)
		}
	}
}

func TestExecute_OrderPreserved(t *testing.T) {
	plan, err := Compile(amitProfile(t), GenericIntent())
	require.NoError(t, err)

	view := Execute(fixtureTable(t), plan)

	assert.Equal(t, []string{"Aarav", "Dev"}, names(view))
}

func TestExecute_RefinementFallbackDeterminism(t *testing.T) {
	// A failed refinement (seed used unchanged) and a disabled one must
	// produce the same plan, hence the same view.
	text := "Show performance for Grade 8 last week"
	seed := Parse(text, refNow)

	merged, changes := MergeRefined(seed, seed)
	assert.Empty(t, changes)

	planDirect, err := Compile(amitProfile(t), seed)
	require.NoError(t, err)
	planMerged, err := Compile(amitProfile(t), merged)
	require.NoError(t, err)

	table := fixtureTable(t)
	assert.Equal(t, Execute(table, planDirect), Execute(table, planMerged))
}

func TestDateWithin_ZeroDateNeverMatches(t *testing.T) {
	p := DateWithin{
		Column: roster.ColSubmissionDate,
		Start:  timeutil.Date(2024, 4, 8),
		End:    timeutil.Date(2024, 4, 14),
	}
	unsubmitted := roster.Record{HomeworkSubmitted: false}

	assert.False(t, p.Match(unsubmitted))
}

func TestDateWithin_InclusiveBounds(t *testing.T) {
	p := DateWithin{
		Column: roster.ColQuizDate,
		Start:  timeutil.Date(2024, 4, 8),
		End:    timeutil.Date(2024, 4, 14),
	}

	onStart := roster.Record{QuizDate: timeutil.Date(2024, 4, 8)}
	onEnd := roster.Record{QuizDate: timeutil.Date(2024, 4, 14)}
	before := roster.Record{QuizDate: timeutil.Date(2024, 4, 7)}
	after := roster.Record{QuizDate: time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)}

	assert.True(t, p.Match(onStart))
	assert.True(t, p.Match(onEnd))
	assert.False(t, p.Match(before))
	assert.False(t, p.Match(after))
}
