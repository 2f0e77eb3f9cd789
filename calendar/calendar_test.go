package calendar

import (
	"testing"
	"time"

	"email_sla/config"
)

func testHours() config.BusinessHours {
	return config.BusinessHours{
		StartHour:    7,
		EndHour:      21,
		BusinessDays: []int{0, 1, 2, 3, 4, 5, 6},
	}
}

func weekdayHours() config.BusinessHours {
	return config.BusinessHours{
		StartHour:    7,
		EndHour:      21,
		BusinessDays: []int{0, 1, 2, 3, 4},
	}
}

func mustMinutes(t *testing.T, c *Calendar, start, end time.Time) float64 {
	t.Helper()
	got := c.Minutes(start, end)
	if got == nil {
		t.Fatalf("Minutes(%v, %v) = nil, want value", start, end)
	}
	return *got
}

func TestMinutesSameDayInsideWindow(t *testing.T) {
	c := New(testHours())
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 2, 10, 45, 0, 0, time.UTC)
	if got := mustMinutes(t, c, start, end); got != 45 {
		t.Fatalf("got %v, want 45", got)
	}
}

func TestMinutesClampsToWindow(t *testing.T) {
	c := New(testHours())
	// Received at 5:30, replied at 8:00. Only 7:00..8:00 counts.
	start := time.Date(2025, 6, 2, 5, 30, 0, 0, time.UTC)
	end := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	if got := mustMinutes(t, c, start, end); got != 60 {
		t.Fatalf("got %v, want 60", got)
	}
}

func TestMinutesAfterHoursIsZero(t *testing.T) {
	c := New(testHours())
	start := time.Date(2025, 6, 2, 21, 30, 0, 0, time.UTC)
	end := time.Date(2025, 6, 2, 23, 0, 0, 0, time.UTC)
	if got := mustMinutes(t, c, start, end); got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestMinutesSpansOvernight(t *testing.T) {
	c := New(testHours())
	// 20:00 to 8:00 next day: 60 min tonight + 60 min tomorrow morning.
	start := time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)
	if got := mustMinutes(t, c, start, end); got != 120 {
		t.Fatalf("got %v, want 120", got)
	}
}

func TestMinutesSkipsNonBusinessDays(t *testing.T) {
	c := New(weekdayHours())
	// Friday 20:00 to Monday 8:00: 60 min Friday + 60 min Monday.
	start := time.Date(2025, 6, 6, 20, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC)
	if got := mustMinutes(t, c, start, end); got != 120 {
		t.Fatalf("got %v, want 120", got)
	}
}

func TestMinutesFullDaysBetween(t *testing.T) {
	c := New(testHours())
	// Monday 10:00 to Wednesday 10:00. Remaining Monday 11h, full Tuesday
	// 14h, Wednesday 3h. Total 28h = 1680 minutes.
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)
	if got := mustMinutes(t, c, start, end); got != 1680 {
		t.Fatalf("got %v, want 1680", got)
	}
}

func TestMinutesAdditivity(t *testing.T) {
	configs := []config.BusinessHours{testHours(), weekdayHours()}
	// Monday morning to a Thursday two and a half weeks later, with split
	// points mid-window, after hours and on a weekend.
	a := time.Date(2025, 6, 2, 9, 17, 0, 0, time.UTC)
	c := time.Date(2025, 6, 19, 15, 41, 0, 0, time.UTC)
	splits := []time.Time{
		time.Date(2025, 6, 3, 13, 5, 0, 0, time.UTC),
		time.Date(2025, 6, 6, 22, 30, 0, 0, time.UTC),
		time.Date(2025, 6, 8, 11, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 16, 7, 0, 0, 0, time.UTC),
	}
	for _, hours := range configs {
		cal := New(hours)
		whole := mustMinutes(t, cal, a, c)
		for _, b := range splits {
			left := mustMinutes(t, cal, a, b)
			right := mustMinutes(t, cal, b, c)
			if diff := whole - (left + right); diff > 0.02 || diff < -0.02 {
				t.Fatalf("split at %v: %v + %v != %v", b, left, right, whole)
			}
		}
	}
}

func TestMinutesMultiWeekSpan(t *testing.T) {
	c := New(weekdayHours())
	// Monday 2025-06-02 10:00 to Monday 2025-06-16 10:00: two full weeks.
	// 10 business days of 14h, minus 3h before the start cut on the first
	// Monday, plus 3h into the final Monday: (10*14)*60 = 8400.
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC)
	if got := mustMinutes(t, c, start, end); got != 8400 {
		t.Fatalf("got %v, want 8400", got)
	}
}

func TestMinutesZeroInputs(t *testing.T) {
	c := New(testHours())
	end := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	if got := c.Minutes(time.Time{}, end); got != nil {
		t.Fatalf("zero start: got %v, want nil", *got)
	}
	if got := c.Minutes(end, time.Time{}); got != nil {
		t.Fatalf("zero end: got %v, want nil", *got)
	}
}

func TestMinutesEndBeforeStart(t *testing.T) {
	c := New(testHours())
	start := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	if got := mustMinutes(t, c, start, end); got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestMinutesRoundsToTwoDecimals(t *testing.T) {
	c := New(testHours())
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(90*time.Second + 400*time.Millisecond)
	if got := mustMinutes(t, c, start, end); got != 1.51 {
		t.Fatalf("got %v, want 1.51", got)
	}
}
