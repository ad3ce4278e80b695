// Package dates holds the date-only helpers used across the server.
//
// A date is represented as a time.Time at 00:00 UTC of the calendar day.
// Time-of-day is never modeled, so two values for the same day always
// compare equal regardless of where they came from.
package dates

import (
	"fmt"
	"time"
)

// Layout is the only accepted textual date format.
const Layout = "2006-01-02"

// HumanLayout is the fixed human-readable format used in markdown output.
const HumanLayout = "Mon Jan 2, 2006"

// wireLayout is the timestamp form the Tasks API expects for due dates.
const wireLayout = "2006-01-02T15:04:05.000Z"

// Day returns the calendar date of t, as observed in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Parse parses a strict YYYY-MM-DD string.
func Parse(s string) (time.Time, error) {
	if len(s) != len(Layout) {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Valid reports whether s is a real YYYY-MM-DD date.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Format renders a date as YYYY-MM-DD. The zero time renders as "".
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(Layout)
}

// Human renders a date in HumanLayout. The zero time renders as "".
func Human(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(HumanLayout)
}

// AddDays moves a date by n calendar days.
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// ToRFC3339 renders a date as the midnight UTC timestamp used on the wire.
func ToRFC3339(d time.Time) string {
	return Day(d).Format(wireLayout)
}

// EndOfDayRFC3339 renders the last millisecond of the date, for inclusive
// upper bounds on API filters.
func EndOfDayRFC3339(d time.Time) string {
	return Day(d).Add(24*time.Hour - time.Millisecond).Format(wireLayout)
}

// FromRFC3339 parses a store timestamp and keeps only its UTC date.
func FromRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t.UTC()), nil
}
