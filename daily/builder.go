// Package daily assembles per-day records from classified conversations
// and hourly unread snapshots.
package daily

import (
	"math"
	"sort"
	"time"

	"email_sla/classifier"
	"email_sla/config"
	"email_sla/store"
)

// Snapshot is one hourly unread-count reading.
type Snapshot struct {
	Date        string
	Hour        int
	UnreadCount int
	SLAMet      bool
}

// Builder produces store.DayRecord values for merging.
type Builder struct {
	hours config.BusinessHours
}

// New returns a builder scoped to the given business hours.
func New(hours config.BusinessHours) *Builder {
	return &Builder{hours: hours}
}

// Build assembles the record for one date from the conversations whose
// inbox arrival falls on that date and the snapshots taken that day.
func (b *Builder) Build(date string, records []classifier.Record, snaps []Snapshot) *store.DayRecord {
	rec := store.NewDayRecord(date)
	b.applyEmailData(rec, records)
	b.applySnapshots(rec, date, snaps)
	return rec
}

func (b *Builder) applyEmailData(rec *store.DayRecord, records []classifier.Record) {
	if len(records) == 0 {
		return
	}
	rec.HasEmailData = true

	var responseTimes []float64
	hourlyTimes := make(map[int][]float64)

	for _, r := range records {
		hour := r.Inbox.Timestamp.Hour()
		rec.DailySummary.TotalEmails++
		rec.HourlyData[hour].EmailsReceived++

		switch r.Status {
		case classifier.StatusReplied:
			rec.DailySummary.EmailsReplied++
		case classifier.StatusCompleted:
			rec.DailySummary.EmailsCompleted++
		default:
			rec.DailySummary.EmailsPending++
		}

		if r.ResponseMinutes != nil {
			responseTimes = append(responseTimes, *r.ResponseMinutes)
			rec.HourlyData[hour].EmailsReplied++
			hourlyTimes[hour] = append(hourlyTimes[hour], *r.ResponseMinutes)
		}
	}

	total := rec.DailySummary.TotalEmails
	resolved := rec.DailySummary.EmailsReplied + rec.DailySummary.EmailsCompleted
	rec.DailySummary.ReplyRatePercent = percent(rec.DailySummary.EmailsReplied, total)
	rec.DailySummary.ResolutionRatePercent = percent(resolved, total)

	if len(responseTimes) > 0 {
		avg := round2(mean(responseTimes))
		med := round2(median(responseTimes))
		rec.DailySummary.AvgResponseTimeMinutes = &avg
		rec.DailySummary.MedianResponseTimeMinutes = &med
	}
	for hour, times := range hourlyTimes {
		avg := round2(mean(times))
		rec.HourlyData[hour].AvgResponseTime = &avg
	}
}

func (b *Builder) applySnapshots(rec *store.DayRecord, date string, snaps []Snapshot) {
	if len(snaps) == 0 {
		return
	}
	rec.HasSLAData = true

	for _, s := range snaps {
		if s.Hour < 0 || s.Hour > 23 {
			continue
		}
		count := s.UnreadCount
		met := s.SLAMet
		rec.HourlyData[s.Hour].UnreadCount = &count
		rec.HourlyData[s.Hour].SLAMet = &met
	}

	day, err := time.Parse("2006-01-02", date)
	if err != nil || !b.hours.IsBusinessDay(day) {
		return
	}

	var unreadTotal, met, qualifying int
	for h := 0; h < 24; h++ {
		slot := rec.HourlyData[h]
		if slot.UnreadCount == nil || !b.hours.ContainsHour(h) {
			continue
		}
		qualifying++
		unreadTotal += *slot.UnreadCount
		if slot.SLAMet != nil && *slot.SLAMet {
			met++
		}
	}
	if qualifying == 0 {
		return
	}
	avgUnread := round2(float64(unreadTotal) / float64(qualifying))
	compliance := round2(float64(met) / float64(qualifying) * 100)
	rec.DailySummary.AvgUnreadCount = &avgUnread
	rec.DailySummary.SLAComplianceRate = &compliance
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
