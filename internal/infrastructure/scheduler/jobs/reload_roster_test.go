package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edscope/edscope/internal/domain/roster"
	"github.com/edscope/edscope/internal/domain/shared"
)

type fakeReloader struct {
	results []reloadOutcome
	calls   int
}

type reloadOutcome struct {
	result *roster.LoadResult
	err    error
}

func (f *fakeReloader) Reload(ctx context.Context) (*roster.LoadResult, error) {
	outcome := f.results[f.calls]
	if f.calls < len(f.results)-1 {
		f.calls++
	}
	return outcome.result, outcome.err
}

func loadResult(t *testing.T, loaded, skipped int) *roster.LoadResult {
	t.Helper()

	records := make([]roster.Record, loaded)
	for i := range records {
		records[i] = roster.Record{
			StudentName: "Student",
			Grade:       8,
			Class:       "8A",
			Region:      shared.RegionEast,
		}
	}
	table, err := roster.NewTable(records, "test.csv", time.Now())
	require.NoError(t, err)

	warnings := make([]roster.RowWarning, skipped)
	for i := range warnings {
		warnings[i] = roster.RowWarning{Row: i + 1, Reason: "bad grade"}
	}
	return &roster.LoadResult{Table: table, Warnings: warnings}
}

func testConfig() ReloadRosterConfig {
	config := DefaultReloadRosterConfig()
	config.Timeout = 5 * time.Second
	return config
}

func TestReloadRosterJob_Success(t *testing.T) {
	reloader := &fakeReloader{results: []reloadOutcome{
		{result: loadResult(t, 10, 1)},
	}}
	job := NewReloadRosterJob(reloader, nil, testConfig())

	err := job.Run(context.Background())
	require.NoError(t, err)

	stats := job.LastStats()
	require.NotNil(t, stats)
	assert.Equal(t, 10, stats.RowsLoaded)
	assert.Equal(t, 1, stats.RowsSkipped)
	assert.NoError(t, stats.Err)
}

func TestReloadRosterJob_RetriesTransientFailure(t *testing.T) {
	reloader := &fakeReloader{results: []reloadOutcome{
		{err: errors.New("file busy")},
		{result: loadResult(t, 5, 0)},
	}}
	job := NewReloadRosterJob(reloader, nil, testConfig())

	err := job.Run(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, reloader.calls, 1)

	stats := job.LastStats()
	require.NotNil(t, stats)
	assert.Equal(t, 5, stats.RowsLoaded)
}

func TestReloadRosterJob_FailureKeepsError(t *testing.T) {
	reloader := &fakeReloader{results: []reloadOutcome{
		{err: shared.ErrNoUsableRows},
	}}
	job := NewReloadRosterJob(reloader, nil, testConfig())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNoUsableRows)

	stats := job.LastStats()
	require.NotNil(t, stats)
	assert.Error(t, stats.Err)
}

func TestReloadRosterJob_TooManySkippedRows(t *testing.T) {
	reloader := &fakeReloader{results: []reloadOutcome{
		{result: loadResult(t, 2, 8)},
	}}
	job := NewReloadRosterJob(reloader, nil, testConfig())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected 8 of 10 rows")

	// The stats still record what the source produced.
	stats := job.LastStats()
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.RowsLoaded)
	assert.Equal(t, 8, stats.RowsSkipped)
}

func TestReloadRosterJob_Metadata(t *testing.T) {
	job := NewReloadRosterJob(&fakeReloader{}, nil, DefaultReloadRosterConfig())
	assert.Equal(t, "reload_roster", job.Name())
	assert.NotEmpty(t, job.Description())
	assert.Nil(t, job.LastStats())
}
