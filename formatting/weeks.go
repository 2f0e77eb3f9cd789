package formatting

import (
	"fmt"
	"time"
)

// WeekStart returns the Monday that opens the given ISO week.
func WeekStart(year, week int) time.Time {
	// Jan 4 always falls in ISO week 1.
	anchor := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekOne := anchor.AddDate(0, 0, -((int(anchor.Weekday())+6)%7))
	return weekOne.AddDate(0, 0, (week-1)*7)
}

// WeekOf returns the Monday of the ISO week containing t.
func WeekOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -((int(day.Weekday())+6)%7))
}

// WeekTitle labels an ISO week, e.g. "Week 23, 2025 (Jun 2 - Jun 8, 2025)".
func WeekTitle(weekStart time.Time) string {
	year, week := weekStart.ISOWeek()
	return fmt.Sprintf("Week %d, %d (%s)", week, year, DateRange(weekStart, weekStart.AddDate(0, 0, 6)))
}

// ParseISOWeek parses a "2025-W23" style week designator.
func ParseISOWeek(s string) (time.Time, error) {
	var year, week int
	if _, err := fmt.Sscanf(s, "%d-W%d", &year, &week); err != nil {
		return time.Time{}, fmt.Errorf("invalid week designator %q (want e.g. 2025-W23): %w", s, err)
	}
	if week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("week number out of range: %d", week)
	}
	return WeekStart(year, week), nil
}

// LastSevenDays returns the start of the seven-day window ending yesterday.
func LastSevenDays(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -7)
}
