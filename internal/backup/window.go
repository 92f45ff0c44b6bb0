package backup

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format accepted for window bounds.
const DateLayout = "2006-01-02"

// boundLayout renders window bounds for the Drive query with microsecond precision.
const boundLayout = "2006-01-02T15:04:05.000000Z"

// Window is an inclusive modification-time range in UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow covers whole calendar days: start at 00:00:00.000000 and end at
// 23:59:59.999999, both in the location of the given times, converted to UTC.
func NewWindow(start, end time.Time) (Window, error) {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	e := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 999999000, end.Location())
	if e.Before(s) {
		return Window{}, fmt.Errorf("end date %s is before start date %s",
			end.Format(DateLayout), start.Format(DateLayout))
	}
	return Window{Start: s.UTC(), End: e.UTC()}, nil
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// StartBound is the lower bound formatted for a Drive query.
func (w Window) StartBound() string { return w.Start.Format(boundLayout) }

// EndBound is the upper bound formatted for a Drive query.
func (w Window) EndBound() string { return w.End.Format(boundLayout) }

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.StartBound(), w.EndBound())
}
