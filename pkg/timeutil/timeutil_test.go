package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-04-16 is a Tuesday; the surrounding Monday is 2024-04-15.
var refTuesday = time.Date(2024, 4, 16, 14, 30, 0, 0, time.UTC)

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"tuesday", refTuesday, Date(2024, 4, 15)},
		{"monday itself", Date(2024, 4, 15), Date(2024, 4, 15)},
		{"sunday belongs to the same week", Date(2024, 4, 21), Date(2024, 4, 15)},
		{"across month boundary", Date(2024, 5, 1), Date(2024, 4, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StartOfWeek(tt.in)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
			assert.Equal(t, time.Monday, got.Weekday())
		})
	}
}

func TestWeekWindows(t *testing.T) {
	start, end := WeekWindow(refTuesday)
	assert.True(t, start.Equal(Date(2024, 4, 15)))
	assert.True(t, end.Equal(Date(2024, 4, 21)))
	assert.True(t, WithinInclusive(refTuesday, start, end), "this week must contain now")

	prevStart, prevEnd := PreviousWeekWindow(refTuesday)
	assert.True(t, prevStart.Equal(Date(2024, 4, 8)))
	assert.True(t, prevEnd.Equal(Date(2024, 4, 14)), "last week ends the previous Sunday")

	nextStart, nextEnd := NextWeekWindow(refTuesday)
	assert.True(t, nextStart.Equal(Date(2024, 4, 22)), "next week starts the following Monday")
	assert.True(t, nextEnd.Equal(Date(2024, 4, 28)))

	// Adjacent windows never overlap and never leave gaps.
	assert.True(t, prevEnd.AddDate(0, 0, 1).Equal(start))
	assert.True(t, end.AddDate(0, 0, 1).Equal(nextStart))
}

func TestCivilDateUsesOwnLocation(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*60*60)
	lateEvening := time.Date(2024, 4, 16, 23, 30, 0, 0, zone)

	got := CivilDate(lateEvening)
	assert.True(t, got.Equal(Date(2024, 4, 16)), "civil date follows the wall clock, not UTC")
}

func TestWithinInclusive(t *testing.T) {
	start, end := Date(2024, 4, 8), Date(2024, 4, 14)

	assert.True(t, WithinInclusive(Date(2024, 4, 8), start, end))
	assert.True(t, WithinInclusive(Date(2024, 4, 14), start, end))
	assert.True(t, WithinInclusive(time.Date(2024, 4, 14, 18, 0, 0, 0, time.UTC), start, end))
	assert.False(t, WithinInclusive(Date(2024, 4, 7), start, end))
	assert.False(t, WithinInclusive(Date(2024, 4, 15), start, end))
}

func TestParseDateLenient(t *testing.T) {
	for _, raw := range []string{"2024-04-16", "2024/04/16", "16.04.2024"} {
		got, err := ParseDateLenient(raw)
		require.NoError(t, err, raw)
		assert.True(t, got.Equal(Date(2024, 4, 16)), raw)
	}

	_, err := ParseDateLenient("not a date")
	require.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 6, DaysBetween(Date(2024, 4, 15), Date(2024, 4, 21)))
	assert.Equal(t, 6, DaysBetween(Date(2024, 4, 21), Date(2024, 4, 15)))
	assert.Equal(t, 0, DaysBetween(refTuesday, Date(2024, 4, 16)))
}
