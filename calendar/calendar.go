// Package calendar computes elapsed business minutes between timestamps,
// honouring the configured business window and business days.
package calendar

import (
	"math"
	"time"

	"email_sla/config"
)

// Calendar walks calendar days between two instants and sums the minutes
// that fall inside the business window.
type Calendar struct {
	hours config.BusinessHours
}

// New returns a calendar for the given business hours.
func New(hours config.BusinessHours) *Calendar {
	return &Calendar{hours: hours}
}

// Minutes returns the business minutes elapsed between start and end,
// rounded to two decimals. It returns nil when either timestamp is the
// zero value, and zero when end is not after start.
func (c *Calendar) Minutes(start, end time.Time) *float64 {
	if start.IsZero() || end.IsZero() {
		return nil
	}
	zero := 0.0
	if !end.After(start) {
		return &zero
	}

	total := 0.0
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	lastDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())

	for !day.After(lastDay) {
		if c.hours.IsBusinessDay(day) {
			windowStart := day.Add(time.Duration(c.hours.StartHour) * time.Hour)
			windowEnd := day.Add(time.Duration(c.hours.EndHour) * time.Hour)

			from := windowStart
			if start.After(from) {
				from = start
			}
			to := windowEnd
			if end.Before(to) {
				to = end
			}
			if to.After(from) {
				total += to.Sub(from).Minutes()
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	rounded := round2(total)
	return &rounded
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
