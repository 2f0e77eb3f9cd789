package rollups

import (
	"time"

	"email_sla/config"
	"email_sla/store"
)

// DayProvider looks up one day of merged data by date key.
type DayProvider interface {
	Day(date string) (*store.DayRecord, bool)
}

// ProviderChain asks providers in order and returns the first record that
// carries both email and SLA data, falling back to the first hit at all.
type ProviderChain []DayProvider

// Day implements DayProvider over the chain.
func (c ProviderChain) Day(date string) (*store.DayRecord, bool) {
	var first *store.DayRecord
	for _, p := range c {
		rec, ok := p.Day(date)
		if !ok || rec == nil {
			continue
		}
		if rec.HasEmailData && rec.HasSLAData {
			return rec, true
		}
		if first == nil {
			first = rec
		}
	}
	if first != nil {
		return first, true
	}
	return nil, false
}

const minFullWeekDays = 3

// ComputeWeekly aggregates the seven days starting at weekStart. Every day
// with a record contributes to the sums; only days carrying both email and
// SLA data count toward the per-day average, and fewer than three such
// days marks the summary partial.
func ComputeWeekly(provider DayProvider, weekStart time.Time, hours config.BusinessHours) WeeklySummary {
	weekEnd := weekStart.AddDate(0, 0, 6)
	summary := WeeklySummary{
		WeekStart: weekStart.Format("2006-01-02"),
		WeekEnd:   weekEnd.Format("2006-01-02"),
	}

	var present []*store.DayRecord
	complete := 0
	for i := 0; i < 7; i++ {
		date := weekStart.AddDate(0, 0, i).Format("2006-01-02")
		rec, ok := provider.Day(date)
		if !ok || rec == nil {
			continue
		}
		present = append(present, rec)
		if rec.HasEmailData && rec.HasSLAData {
			complete++
		}
	}

	summary.DaysWithData = complete
	summary.Partial = complete < minFullWeekDays
	if len(present) == 0 {
		return summary
	}

	for _, rec := range present {
		total := rec.DailySummary.TotalEmails
		if total == 0 {
			for _, slot := range rec.HourlyData {
				total += slot.EmailsReceived
			}
		}
		summary.TotalEmails += total
	}
	if complete > 0 {
		perDay := round2(float64(summary.TotalEmails) / float64(complete))
		summary.AvgEmailsPerDay = &perDay
	}

	summary.AvgUnreadCount = meanOfDailyUnread(present)
	summary.AvgResponseTime = weeklyResponseTime(present, hours)
	summary.SLACompliancePct = weeklyCompliance(present)
	return summary
}

// weeklyResponseTime weights each business-hour slot's average by its
// reply count across business days. With no weighted observations it
// falls back to the plain mean of the daily averages.
func weeklyResponseTime(days []*store.DayRecord, hours config.BusinessHours) *float64 {
	weighted := 0.0
	weight := 0
	for _, rec := range days {
		day, err := time.Parse("2006-01-02", rec.Date)
		if err != nil || !hours.IsBusinessDay(day) {
			continue
		}
		for h := hours.StartHour; h < hours.EndHour && h < 24; h++ {
			slot := rec.HourlyData[h]
			if slot.AvgResponseTime != nil && slot.EmailsReplied > 0 {
				weighted += *slot.AvgResponseTime * float64(slot.EmailsReplied)
				weight += slot.EmailsReplied
			}
		}
	}
	if weight > 0 {
		avg := round2(weighted / float64(weight))
		return &avg
	}

	sum := 0.0
	n := 0
	for _, rec := range days {
		if rec.DailySummary.AvgResponseTimeMinutes != nil {
			sum += *rec.DailySummary.AvgResponseTimeMinutes
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := round2(sum / float64(n))
	return &avg
}

// weeklyCompliance weights each day's compliance rate by its email volume,
// falling back to an unweighted mean when no used day saw email.
func weeklyCompliance(days []*store.DayRecord) *float64 {
	weighted := 0.0
	weight := 0
	sum := 0.0
	n := 0
	for _, rec := range days {
		if rec.DailySummary.SLAComplianceRate == nil {
			continue
		}
		rate := *rec.DailySummary.SLAComplianceRate
		sum += rate
		n++
		if rec.DailySummary.TotalEmails > 0 {
			weighted += rate * float64(rec.DailySummary.TotalEmails)
			weight += rec.DailySummary.TotalEmails
		}
	}
	if weight > 0 {
		avg := round2(weighted / float64(weight))
		return &avg
	}
	if n == 0 {
		return nil
	}
	avg := round2(sum / float64(n))
	return &avg
}

func meanOfDailyUnread(days []*store.DayRecord) *float64 {
	sum := 0.0
	n := 0
	for _, rec := range days {
		if rec.DailySummary.AvgUnreadCount != nil {
			sum += *rec.DailySummary.AvgUnreadCount
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := round2(sum / float64(n))
	return &avg
}
