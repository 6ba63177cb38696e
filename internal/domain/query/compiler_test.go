package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edscope/edscope/internal/domain/admin"
	"github.com/edscope/edscope/internal/domain/roster"
	"github.com/edscope/edscope/internal/domain/shared"
)

func amitProfile(t *testing.T) *admin.Profile {
	t.Helper()
	p, err := admin.NewProfile("amit", "Amit",
		[]shared.Grade{8},
		[]shared.ClassCode{"8A", "8B"},
		shared.RegionEast)
	require.NoError(t, err)
	return p
}

func riyaProfile(t *testing.T) *admin.Profile {
	t.Helper()
	p, err := admin.NewProfile("riya", "Riya",
		[]shared.Grade{7},
		[]shared.ClassCode{"7A"},
		shared.RegionWest)
	require.NoError(t, err)
	return p
}

func TestCompile_ScopePredicatesComeFirst(t *testing.T) {
	intent := Parse("Show performance for Grade 8 last week", refNow)

	plan, err := Compile(amitProfile(t), intent)
	require.NoError(t, err)

	trace := plan.Trace()
	require.GreaterOrEqual(t, len(trace), 3)
	assert.Equal(t, "scope: grade in {8}", trace[0])
	assert.Equal(t, "scope: class in {8A, 8B}", trace[1])
	assert.Equal(t, "scope: region == East", trace[2])

	// Intent grade constraint follows scope; date range is last.
	assert.Equal(t, "intent: grade in {8}", trace[3])
	assert.Contains(t, trace[len(trace)-1], "quiz_date within")
}

func TestCompile_EmptyScopeFailsClosed(t *testing.T) {
	sealed := &admin.Profile{
		ID:     "ghost",
		Region: shared.RegionNorth,
	}

	plan, err := Compile(sealed, Parse("show everything", refNow))
	require.NoError(t, err)

	// Empty grade and class sets must reject every record, never relax
	// to "no constraint".
	rec := roster.Record{Grade: 8, Class: "8A", Region: shared.RegionNorth}
	for _, p := range plan.Predicates {
		if _, ok := p.(RejectAll); ok {
			assert.False(t, p.Match(rec))
		}
	}
	trace := plan.Trace()
	assert.Contains(t, trace[0], "reject all")
	assert.Contains(t, trace[1], "reject all")
}

func TestCompile_NilScopeRejected(t *testing.T) {
	_, err := Compile(nil, GenericIntent())
	assert.ErrorIs(t, err, shared.ErrUnknownAdmin)
}

func TestCompile_UnknownFilterFieldDropped(t *testing.T) {
	intent := GenericIntent()
	intent.Filters["favourite_colour"] = []string{"blue"}
	intent.Filters[FilterGrade] = []string{"7"}

	plan, err := Compile(riyaProfile(t), intent)
	require.NoError(t, err)

	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "favourite_colour")

	// The known filter still compiled.
	assert.Contains(t, plan.Trace(), "intent: grade in {7}")
}

func TestCompile_UnparseableFilterValueDropped(t *testing.T) {
	intent := GenericIntent()
	intent.Filters[FilterRegion] = []string{"atlantis"}

	plan, err := Compile(riyaProfile(t), intent)
	require.NoError(t, err)

	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "atlantis")
	// Only the three scope predicates remain.
	assert.Len(t, plan.Predicates, 3)
}

func TestCompile_DateColumnSelection(t *testing.T) {
	window := &DateRange{
		Kind:  RangeLastWeek,
		Start: time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 4, 14, 0, 0, 0, 0, time.UTC),
	}

	t.Run("submitted homework dates against submission_date", func(t *testing.T) {
		intent := Intent{Action: ActionHomeworkStatus, Filters: Filters{}}
		intent.Filters.Set(FilterSubmitted, "yes")
		intent.DateRange = window

		plan, err := Compile(amitProfile(t), intent)
		require.NoError(t, err)

		last := plan.Predicates[len(plan.Predicates)-1]
		dw, ok := last.(DateWithin)
		require.True(t, ok)
		assert.Equal(t, roster.ColSubmissionDate, dw.Column)
	})

	t.Run("unsubmitted homework drops the date range", func(t *testing.T) {
		intent := Intent{Action: ActionHomeworkStatus, Filters: Filters{}}
		intent.Filters.Set(FilterSubmitted, "no")
		intent.DateRange = window

		plan, err := Compile(amitProfile(t), intent)
		require.NoError(t, err)

		for _, p := range plan.Predicates {
			_, isDate := p.(DateWithin)
			assert.False(t, isDate)
		}
		require.Len(t, plan.Warnings, 1)
		assert.Contains(t, plan.Warnings[0], "date range ignored")
	})

	t.Run("performance dates against quiz_date", func(t *testing.T) {
		intent := Intent{Action: ActionPerformance, Filters: Filters{}, DateRange: window}

		plan, err := Compile(amitProfile(t), intent)
		require.NoError(t, err)

		last := plan.Predicates[len(plan.Predicates)-1]
		dw, ok := last.(DateWithin)
		require.True(t, ok)
		assert.Equal(t, roster.ColQuizDate, dw.Column)
	})
}

func TestCompile_InvalidDateRange(t *testing.T) {
	intent := GenericIntent()
	intent.DateRange = &DateRange{
		Kind:  RangeCustom,
		Start: time.Date(2024, 4, 14, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC),
	}

	_, err := Compile(amitProfile(t), intent)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCompile_Deterministic(t *testing.T) {
	intent := Parse("Show performance for Grade 8 in the east last week", refNow)
	profile := amitProfile(t)

	first, err := Compile(profile, intent)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Compile(profile, intent)
		require.NoError(t, err)
		assert.Equal(t, first.Trace(), again.Trace())
		assert.Equal(t, first.Warnings, again.Warnings)
	}
}
