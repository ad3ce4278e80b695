package timerange

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gtasks-mcp/internal/apperr"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestResolve(t *testing.T) {
	now := time.Date(2024, 2, 15, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		wantLower string
		wantUpper string
	}{
		{name: "today", wantLower: "2024-02-15", wantUpper: "2024-02-16"},
		{name: "tomorrow", wantLower: "2024-02-16", wantUpper: "2024-02-17"},
		{name: "week", wantLower: "2024-02-15", wantUpper: "2024-02-22"},
		{name: "overdue", wantUpper: "2024-02-15"},
		{name: "all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Resolve(tt.name, now)
			require.NoError(t, err)
			assert.Equal(t, Range(tt.name), w.Range)
			if tt.wantLower == "" {
				assert.True(t, w.Lower.IsZero())
			} else {
				assert.True(t, w.Lower.Equal(day(tt.wantLower)), "lower = %s", w.Lower)
			}
			if tt.wantUpper == "" {
				assert.True(t, w.Upper.IsZero())
			} else {
				assert.True(t, w.Upper.Equal(day(tt.wantUpper)), "upper = %s", w.Upper)
			}
		})
	}
}

func TestOverdueContains(t *testing.T) {
	w, err := Resolve("overdue", time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, w.Contains(day("2024-02-14")))
	assert.True(t, w.Contains(day("2023-12-01")))
	assert.False(t, w.Contains(day("2024-02-15")))
	assert.False(t, w.Contains(time.Time{}), "tasks without a due date are never overdue")
}

func TestWeekBounds(t *testing.T) {
	w, err := Resolve("week", time.Date(2024, 2, 15, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, w.Contains(day("2024-02-15")))
	assert.True(t, w.Contains(day("2024-02-21")))
	assert.False(t, w.Contains(day("2024-02-22")))
	assert.False(t, w.Contains(day("2024-02-14")))
}

func TestAllAcceptsMissingDue(t *testing.T) {
	w, err := Resolve("all", time.Now())
	require.NoError(t, err)
	assert.True(t, w.Contains(time.Time{}))
	assert.True(t, w.Contains(day("1999-01-01")))
}

func TestResolveUsesLocalCalendarDate(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// 07:00 on the 16th in UTC+10 is still the 15th in UTC.
	w, err := Resolve("today", time.Date(2024, 2, 16, 7, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.True(t, w.Lower.Equal(day("2024-02-16")))
}

func TestResolveUnknown(t *testing.T) {
	_, err := Resolve("yesterday", time.Now())
	require.Error(t, err)

	var rangeErr *InvalidRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, "yesterday", rangeErr.Value)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	for _, name := range Names() {
		assert.Contains(t, err.Error(), name)
	}
}

func TestTitles(t *testing.T) {
	want := map[string]string{
		"today":    "Today's Tasks",
		"tomorrow": "Tomorrow's Tasks",
		"week":     "This Week's Tasks",
		"overdue":  "Overdue Tasks",
		"all":      "All Tasks",
	}
	for name, title := range want {
		w, err := Resolve(name, time.Now())
		require.NoError(t, err)
		assert.Equal(t, title, w.Title())
	}
}
