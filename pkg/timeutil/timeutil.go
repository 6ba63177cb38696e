// Package timeutil provides calendar helpers for roster queries.
// Roster dates are civil dates (day precision); week windows are
// Monday-anchored and inclusive on both ends. No external dependencies -
// uses only standard library.
package timeutil

import (
	"time"
)

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
	// FormatHumanDate is a human-readable format.
	FormatHumanDate = "2 January 2006"
)

// CivilDate reduces a time to its civil date: midnight UTC of the
// year/month/day the time reads in its own location. All roster date
// comparisons happen on civil dates so that wall-clock zones never shift
// a record across a day boundary.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date creates a civil date (midnight UTC).
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// StartOfDay returns the start of the day (00:00:00) in the time's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the end of the day (23:59:59.999999999) in the time's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999999999, t.Location())
}

// StartOfWeek returns the Monday of the week containing t, as a civil date.
func StartOfWeek(t time.Time) time.Time {
	day := CivilDate(t)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return day.AddDate(0, 0, -(weekday - 1)) // Monday = 1
}

// EndOfWeek returns the Sunday of the week containing t, as a civil date.
func EndOfWeek(t time.Time) time.Time {
	return StartOfWeek(t).AddDate(0, 0, 6)
}

// WeekWindow returns the inclusive [Monday, Sunday] civil-date window of
// the week containing t.
func WeekWindow(t time.Time) (start, end time.Time) {
	start = StartOfWeek(t)
	return start, start.AddDate(0, 0, 6)
}

// PreviousWeekWindow returns the inclusive window of the week before the
// one containing t.
func PreviousWeekWindow(t time.Time) (start, end time.Time) {
	start = StartOfWeek(t).AddDate(0, 0, -7)
	return start, start.AddDate(0, 0, 6)
}

// NextWeekWindow returns the inclusive window of the week after the one
// containing t.
func NextWeekWindow(t time.Time) (start, end time.Time) {
	start = StartOfWeek(t).AddDate(0, 0, 7)
	return start, start.AddDate(0, 0, 6)
}

// StartOfMonth returns the first civil date of the month containing t.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns the last civil date of the month containing t.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, -1)
}

// IsSameDay checks if two times fall on the same civil date.
func IsSameDay(t1, t2 time.Time) bool {
	return CivilDate(t1).Equal(CivilDate(t2))
}

// DaysBetween calculates the number of civil days between two times.
func DaysBetween(t1, t2 time.Time) int {
	d1 := CivilDate(t1)
	d2 := CivilDate(t2)
	days := int(d2.Sub(d1).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// WithinInclusive reports whether day falls inside the inclusive civil-date
// window [start, end]. All three are reduced to civil dates first.
func WithinInclusive(day, start, end time.Time) bool {
	d := CivilDate(day)
	return !d.Before(CivilDate(start)) && !d.After(CivilDate(end))
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD).
func FormatDateStr(t time.Time) string {
	return t.Format(FormatDate)
}

// ParseDate parses a date string (YYYY-MM-DD) into a civil date.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, time.UTC)
}

// ParseDateLenient parses a date in any of the accepted dataset layouts
// (YYYY-MM-DD, YYYY/MM/DD, DD.MM.YYYY) into a civil date.
func ParseDateLenient(value string) (time.Time, error) {
	layouts := []string{FormatDate, "2006/01/02", "02.01.2006"}
	var firstErr error
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, value, time.UTC)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
