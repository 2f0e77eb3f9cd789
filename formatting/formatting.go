// Package formatting holds the label helpers shared by the daily and
// weekly dashboards.
package formatting

import (
	"fmt"
	"time"
)

// HourLabel renders an hour of day as a 12-hour clock label, e.g. "9 AM".
func HourLabel(hour int) string {
	h := ((hour % 24) + 24) % 24
	switch {
	case h == 0:
		return "12 AM"
	case h < 12:
		return fmt.Sprintf("%d AM", h)
	case h == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", h-12)
	}
}

// HourLabel24 renders an hour as a zero-padded 24-hour label, e.g. "09:00".
func HourLabel24(hour int) string {
	h := ((hour % 24) + 24) % 24
	return fmt.Sprintf("%02d:00", h)
}

// BusinessHoursLabel describes a business window, e.g. "7 AM - 9 PM".
func BusinessHoursLabel(startHour, endHour int) string {
	return fmt.Sprintf("%s - %s", HourLabel(startHour), HourLabel(endHour))
}

// DisplayDate renders a date key as a readable date, e.g.
// "Monday, June 2, 2025". Unparseable keys pass through unchanged.
func DisplayDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2, 2006")
}

// DateRange renders an inclusive date span, e.g. "Jun 2 - Jun 8, 2025".
func DateRange(start, end time.Time) string {
	if start.Year() != end.Year() {
		return fmt.Sprintf("%s - %s", start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006"))
	}
	return fmt.Sprintf("%s - %s, %d", start.Format("Jan 2"), end.Format("Jan 2"), end.Year())
}
