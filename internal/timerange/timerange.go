// Package timerange resolves named windows such as "today" or "overdue"
// into date bounds relative to a reference time.
package timerange

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/gtasks-mcp/internal/apperr"
	"github.com/teemow/gtasks-mcp/internal/dates"
)

// Range names a window.
type Range string

const (
	Today    Range = "today"
	Tomorrow Range = "tomorrow"
	Week     Range = "week"
	Overdue  Range = "overdue"
	All      Range = "all"
)

var ranges = []Range{Today, Tomorrow, Week, Overdue, All}

// Names returns the accepted range names in display order.
func Names() []string {
	out := make([]string, len(ranges))
	for i, r := range ranges {
		out[i] = string(r)
	}
	return out
}

// InvalidRangeError is returned for an unknown range name.
type InvalidRangeError struct {
	Value string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid time_range %q: must be one of %s", e.Value, strings.Join(Names(), ", "))
}

func (e *InvalidRangeError) Is(target error) bool { return target == apperr.ErrValidation }

// Window is a half-open date interval. A zero bound is unbounded.
type Window struct {
	Range Range
	Lower time.Time // inclusive
	Upper time.Time // exclusive
}

// Resolve maps name to a window anchored at the calendar date of now.
func Resolve(name string, now time.Time) (Window, error) {
	d := dates.Day(now)
	switch Range(name) {
	case Today:
		return Window{Range: Today, Lower: d, Upper: dates.AddDays(d, 1)}, nil
	case Tomorrow:
		return Window{Range: Tomorrow, Lower: dates.AddDays(d, 1), Upper: dates.AddDays(d, 2)}, nil
	case Week:
		return Window{Range: Week, Lower: d, Upper: dates.AddDays(d, 7)}, nil
	case Overdue:
		return Window{Range: Overdue, Upper: d}, nil
	case All:
		return Window{Range: All}, nil
	default:
		return Window{}, &InvalidRangeError{Value: name}
	}
}

// Contains reports whether a task due on due falls inside the window.
// A zero due means the task has no due date; only "all" accepts it.
func (w Window) Contains(due time.Time) bool {
	if w.Range == All {
		return true
	}
	if due.IsZero() {
		return false
	}
	due = dates.Day(due)
	if !w.Lower.IsZero() && due.Before(w.Lower) {
		return false
	}
	if !w.Upper.IsZero() && !due.Before(w.Upper) {
		return false
	}
	return true
}

// Title is the heading used when rendering the window.
func (w Window) Title() string {
	switch w.Range {
	case Today:
		return "Today's Tasks"
	case Tomorrow:
		return "Tomorrow's Tasks"
	case Week:
		return "This Week's Tasks"
	case Overdue:
		return "Overdue Tasks"
	default:
		return "All Tasks"
	}
}
