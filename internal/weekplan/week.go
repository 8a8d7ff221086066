// Package weekplan lays out one week of content: the Monday-aligned window,
// the facet assigned to each day and the (day, platform, post type) slots.
package weekplan

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWeekStart is returned when an explicit week start cannot be parsed.
var ErrInvalidWeekStart = errors.New("invalid week start")

const daysPerWeek = 7

// Week is a Monday..Sunday window in UTC.
type Week struct {
	Start time.Time
	End   time.Time
}

// ResolveWeek computes the window for a request. An explicit weekStart
// (YYYY-MM-DD) is aligned back to its Monday. Without one, currentWeek
// selects the week containing now, otherwise the week after it.
func ResolveWeek(weekStart string, currentWeek bool, now time.Time) (Week, error) {
	var anchor time.Time
	switch {
	case weekStart != "":
		t, err := time.Parse(time.DateOnly, weekStart)
		if err != nil {
			return Week{}, fmt.Errorf("%w: %q", ErrInvalidWeekStart, weekStart)
		}
		anchor = t
	case currentWeek:
		anchor = now
	default:
		anchor = now.AddDate(0, 0, daysPerWeek)
	}
	start := Monday(anchor)
	return Week{Start: start, End: start.AddDate(0, 0, daysPerWeek-1)}, nil
}

// Offset is the ISO weekday offset of t: Monday is 0, Sunday is 6.
func Offset(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 6
	}
	return wd - 1
}

// Monday returns midnight UTC of the Monday on or before t.
func Monday(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -Offset(day))
}

// StartKey is the week start as YYYY-MM-DD.
func (w Week) StartKey() string { return w.Start.Format(time.DateOnly) }

// EndKey is the week end as YYYY-MM-DD.
func (w Week) EndKey() string { return w.End.Format(time.DateOnly) }

// Range renders the window for summaries.
func (w Week) Range() string { return w.StartKey() + " to " + w.EndKey() }

// Days returns the seven dates of the week.
func (w Week) Days() []time.Time {
	out := make([]time.Time, daysPerWeek)
	for i := range out {
		out[i] = w.Start.AddDate(0, 0, i)
	}
	return out
}

// Contains reports whether date falls inside the window.
func (w Week) Contains(date time.Time) bool {
	d := Monday(date)
	return d.Equal(w.Start)
}
