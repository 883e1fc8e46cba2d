// Package timeutil holds the date-key and duration arithmetic shared by the
// attendance ledger, the clock controller and the history views.
package timeutil

import (
	"fmt"
	"time"
)

// DateKey returns the calendar date of t in t's own location as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// ParseDateKey validates a YYYY-MM-DD key and returns midnight of that date in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(time.DateOnly, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date key %q: %w", key, err)
	}
	return t, nil
}

// Elapsed returns to-from, clamped at zero. Zero timestamps yield zero.
func Elapsed(from, to time.Time) time.Duration {
	if from.IsZero() || to.IsZero() {
		return 0
	}
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return d
}

// ElapsedSeconds is Elapsed floored to whole seconds. Persisted totals use it.
func ElapsedSeconds(from, to time.Time) int64 {
	return int64(Elapsed(from, to) / time.Second)
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// LastNDays returns the date keys of the n days ending at end, oldest first.
func LastNDays(end time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	day := StartOfDay(end)
	keys := make([]string, n)
	for i := n - 1; i >= 0; i-- {
		keys[i] = DateKey(day)
		day = day.AddDate(0, 0, -1)
	}
	return keys
}
