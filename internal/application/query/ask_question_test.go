package query

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edscope/edscope/internal/domain/admin"
	domainquery "github.com/edscope/edscope/internal/domain/query"
	"github.com/edscope/edscope/internal/domain/roster"
	"github.com/edscope/edscope/internal/domain/shared"
	"github.com/edscope/edscope/pkg/timeutil"
)

// testNow is a Tuesday, so "last week" resolves to 2024-04-08..2024-04-14.
var testNow = time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func testResolver(t *testing.T) *admin.Resolver {
	t.Helper()

	amit, err := admin.NewProfile("amit", "Amit",
		[]shared.Grade{8},
		[]shared.ClassCode{"8A", "8B"},
		shared.RegionEast)
	require.NoError(t, err)

	riya, err := admin.NewProfile("riya", "Riya",
		[]shared.Grade{7},
		[]shared.ClassCode{"7A"},
		shared.RegionWest)
	require.NoError(t, err)

	registry, err := admin.NewStaticRegistry([]*admin.Profile{amit, riya})
	require.NoError(t, err)

	return admin.NewResolver(registry)
}

func testTable(t *testing.T) *roster.Table {
	t.Helper()

	records := []roster.Record{
		{StudentName: "Aarav", Grade: 8, Class: "8A", Region: shared.RegionEast,
			HomeworkSubmitted: true, SubmissionDate: day(t, "2024-04-10"),
			QuizScore: 82, QuizDate: day(t, "2024-04-09")},
		{StudentName: "Meera", Grade: 7, Class: "7A", Region: shared.RegionWest,
			HomeworkSubmitted: false,
			QuizScore:         64, QuizDate: day(t, "2024-04-11")},
		{StudentName: "Dev", Grade: 8, Class: "8B", Region: shared.RegionEast,
			HomeworkSubmitted: false,
			QuizScore:         71, QuizDate: day(t, "2024-04-12")},
		{StudentName: "Sana", Grade: 7, Class: "7A", Region: shared.RegionWest,
			HomeworkSubmitted: true, SubmissionDate: day(t, "2024-04-16"),
			QuizScore: 90, QuizDate: day(t, "2024-04-16")},
		{StudentName: "Rohan", Grade: 9, Class: "9A", Region: shared.RegionNorth,
			HomeworkSubmitted: false,
			QuizScore:         55, QuizDate: day(t, "2024-04-10")},
	}

	table, err := roster.NewTable(records, "test.csv", testNow)
	require.NoError(t, err)
	return table
}

type staticProvider struct {
	table *roster.Table
}

func (p *staticProvider) Current() (*roster.Table, error) {
	if p.table == nil {
		return nil, shared.ErrTableNotLoaded
	}
	return p.table, nil
}

type recordingBus struct {
	events []shared.Event
}

func (b *recordingBus) Publish(event shared.Event) error {
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBus) eventTypes() []string {
	types := make([]string, len(b.events))
	for i, e := range b.events {
		types[i] = string(e.EventType())
	}
	return types
}

type stubRefiner struct {
	intent  domainquery.Intent
	err     error
	calls   int
	lastNow time.Time
}

func (r *stubRefiner) Refine(_ context.Context, _ string, _ domainquery.Intent, now time.Time) (domainquery.Intent, error) {
	r.calls++
	r.lastNow = now
	if r.err != nil {
		return domainquery.Intent{}, r.err
	}
	return r.intent, nil
}

// keywordRefiner mimics a provider that answers relative date phrases
// with a keyword, resolved against whatever reference time it is given.
type keywordRefiner struct {
	action domainquery.Action
}

func (r *keywordRefiner) Refine(_ context.Context, _ string, _ domainquery.Intent, now time.Time) (domainquery.Intent, error) {
	start, end := timeutil.PreviousWeekWindow(now)
	return domainquery.Intent{
		Action:  r.action,
		Filters: domainquery.Filters{},
		DateRange: &domainquery.DateRange{
			Kind:  domainquery.RangeLastWeek,
			Start: start,
			End:   end,
		},
	}, nil
}

func newHandler(t *testing.T, refiner domainquery.Refiner, bus *recordingBus) *AskQuestionHandler {
	t.Helper()
	return NewAskQuestionHandler(
		testResolver(t),
		&staticProvider{table: testTable(t)},
		refiner,
		bus,
		nil,
	).WithNow(func() time.Time { return testNow })
}

func TestAskQuestion_UnsubmittedHomeworkScopedToAdmin(t *testing.T) {
	bus := &recordingBus{}
	h := newHandler(t, nil, bus)

	result, err := h.Handle(context.Background(), AskQuestionQuery{
		AdminID:  "riya",
		Question: "Which students have not submitted homework?",
	})
	require.NoError(t, err)

	assert.Equal(t, "HOMEWORK_STATUS", result.Action)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Meera", result.Rows[0][0])
	assert.Equal(t, 5, result.RowsScanned)
	assert.False(t, result.Refined)

	// Scope constraints lead the trace.
	require.NotEmpty(t, result.Trace)
	assert.True(t, strings.HasPrefix(result.Trace[0], "scope:"))

	assert.Equal(t, []string{"query.executed"}, bus.eventTypes())
}

func TestAskQuestion_AdminResolutionIsCaseInsensitive(t *testing.T) {
	h := newHandler(t, nil, &recordingBus{})

	result, err := h.Handle(context.Background(), AskQuestionQuery{
		AdminID:  "  RIYA ",
		Question: "Show homework status",
	})
	require.NoError(t, err)
	assert.Equal(t, "riya", result.AdminID)
}

func TestAskQuestion_UnknownAdminRejected(t *testing.T) {
	bus := &recordingBus{}
	h := newHandler(t, nil, bus)

	_, err := h.Handle(context.Background(), AskQuestionQuery{
		AdminID:  "mallory",
		Question: "Show all students",
	})
	require.Error(t, err)
	assert.True(t, shared.IsUnknownAdmin(err))
	assert.Equal(t, []string{"query.rejected"}, bus.eventTypes())
}

func TestAskQuestion_ValidatesInput(t *testing.T) {
	h := newHandler(t, nil, &recordingBus{})

	_, err := h.Handle(context.Background(), AskQuestionQuery{AdminID: "riya"})
	assert.ErrorIs(t, err, shared.ErrEmptyQuestion)

	_, err = h.Handle(context.Background(), AskQuestionQuery{Question: "anything"})
	assert.ErrorIs(t, err, shared.ErrEmptyAdminID)
}

func TestAskQuestion_RefinerFailureFallsBack(t *testing.T) {
	bus := &recordingBus{}
	refiner := &stubRefiner{err: shared.ErrRefinerUnavailable}
	h := newHandler(t, refiner, bus)

	result, err := h.Handle(context.Background(), AskQuestionQuery{
		AdminID:  "riya",
		Question: "Which students have not submitted homework?",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, refiner.calls)
	assert.False(t, result.Refined)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Meera", result.Rows[0][0])

	types := bus.eventTypes()
	assert.Contains(t, types, "refinement.fallback")
	assert.Contains(t, types, "query.executed")
}

func TestAskQuestion_RefinerNarrowsResult(t *testing.T) {
	bus := &recordingBus{}

	candidate := domainquery.Intent{
		Action:  domainquery.ActionHomeworkStatus,
		Filters: domainquery.Filters{},
	}
	candidate.Filters.Set(domainquery.FilterSubmitted, "no")
	candidate.Filters.Set(domainquery.FilterClass, "8B")

	refiner := &stubRefiner{intent: candidate}
	h := newHandler(t, refiner, bus)

	result, err := h.Handle(context.Background(), AskQuestionQuery{
		AdminID:  "amit",
		Question: "Who is behind on homework?",
	})
	require.NoError(t, err)

	assert.True(t, result.Refined)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Dev", result.Rows[0][0])
	assert.Contains(t, bus.eventTypes(), "refinement.applied")
}

func TestAskQuestion_RefinerReceivesReferenceTime(t *testing.T) {
	refiner := &stubRefiner{err: shared.ErrRefinerUnavailable}
	h := newHandler(t, refiner, &recordingBus{})

	pinned := time.Date(2023, 11, 7, 0, 0, 0, 0, time.UTC)
	_, err := h.Handle(context.Background(), AskQuestionQuery{
		AdminID:  "riya",
		Question: "homework status",
		Now:      pinned,
	})
	require.NoError(t, err)
	assert.Equal(t, pinned, refiner.lastNow)
}

func TestAskQuestion_RepeatedQuestionHookEnabledIsStable(t *testing.T) {
	// The same admin, question, and reference time must yield the same
	// view on every run, with the hook succeeding and emitting a
	// relative date keyword. The window anchors to the query's time,
	// never the wall clock.
	ask := func() *AskQuestionResult {
		h := newHandler(t, &keywordRefiner{action: domainquery.ActionPerformance}, &recordingBus{})
		result, err := h.Handle(context.Background(), AskQuestionQuery{
			AdminID:  "amit",
			Question: "performance last week",
			Now:      testNow,
		})
		require.NoError(t, err)
		return result
	}

	first := ask()
	second := ask()

	assert.Equal(t, first.Action, second.Action)
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Warnings, second.Warnings)

	require.Len(t, first.Rows, 2)
	assert.Equal(t, "Aarav", first.Rows[0][0])
	assert.Equal(t, "Dev", first.Rows[1][0])
	assert.Contains(t, strings.Join(first.Trace, "\n"), "[2024-04-08, 2024-04-14]")
}

func TestAskQuestion_SkipRefinementBypassesHook(t *testing.T) {
	refiner := &stubRefiner{err: shared.ErrRefinerUnavailable}
	h := newHandler(t, refiner, &recordingBus{})

	_, err := h.Handle(context.Background(), AskQuestionQuery{
		AdminID:        "riya",
		Question:       "homework status",
		SkipRefinement: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, refiner.calls)
}

func TestAskQuestion_TableNotLoaded(t *testing.T) {
	h := NewAskQuestionHandler(testResolver(t), &staticProvider{}, nil, nil, nil).
		WithNow(func() time.Time { return testNow })

	_, err := h.Handle(context.Background(), AskQuestionQuery{
		AdminID:  "riya",
		Question: "homework status",
	})
	assert.ErrorIs(t, err, shared.ErrTableNotLoaded)
}

func TestAskQuestion_TraceGolden(t *testing.T) {
	h := newHandler(t, nil, &recordingBus{})

	result, err := h.Handle(context.Background(), AskQuestionQuery{
		AdminID:  "amit",
		Question: "Which students have not submitted homework for grade 8 last week?",
	})
	require.NoError(t, err)

	// The date range is dropped: unsubmitted homework has no
	// submission date to constrain.
	require.Len(t, result.Warnings, 1)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "unsubmitted_grade8_trace", []byte(strings.Join(result.Trace, "\n")+"\n"))
}
