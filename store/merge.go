package store

import "sort"

// MergeDays folds incoming day records into the database. Merging the same
// input twice leaves the database unchanged. Returns the number of day
// records that were created or updated.
//
// Email-side fields travel as a group: when an incoming day carries email
// data its counters, rates and response-time stats all replace the stored
// ones, including clearing a stored average when the new day genuinely had
// no replies. SLA-side fields replace stored values only where present, so
// an email-only re-run never wipes snapshot data.
func MergeDays(db *Database, incoming map[string]*DayRecord, sources ...string) int {
	merged := 0
	for date, in := range incoming {
		if in == nil || !ValidDateKey(date) {
			continue
		}
		normalizeHours(in)
		existing, ok := db.Days[date]
		if !ok {
			rec := NewDayRecord(date)
			mergeInto(rec, in)
			db.Days[date] = rec
			merged++
			continue
		}
		mergeInto(existing, in)
		merged++
	}
	if merged > 0 {
		addSources(&db.Metadata, sources)
	}
	return merged
}

func mergeInto(dst, src *DayRecord) {
	if src.HasEmailData {
		dst.HasEmailData = true
		dst.DailySummary.TotalEmails = src.DailySummary.TotalEmails
		dst.DailySummary.EmailsReplied = src.DailySummary.EmailsReplied
		dst.DailySummary.EmailsCompleted = src.DailySummary.EmailsCompleted
		dst.DailySummary.EmailsPending = src.DailySummary.EmailsPending
		dst.DailySummary.ReplyRatePercent = src.DailySummary.ReplyRatePercent
		dst.DailySummary.ResolutionRatePercent = src.DailySummary.ResolutionRatePercent
		dst.DailySummary.AvgResponseTimeMinutes = src.DailySummary.AvgResponseTimeMinutes
		dst.DailySummary.MedianResponseTimeMinutes = src.DailySummary.MedianResponseTimeMinutes
	}
	if src.HasSLAData {
		dst.HasSLAData = true
		if src.DailySummary.SLAComplianceRate != nil {
			dst.DailySummary.SLAComplianceRate = src.DailySummary.SLAComplianceRate
		}
		if src.DailySummary.AvgUnreadCount != nil {
			dst.DailySummary.AvgUnreadCount = src.DailySummary.AvgUnreadCount
		}
	}
	for h := 0; h < 24; h++ {
		mergeSlot(&dst.HourlyData[h], &src.HourlyData[h], src.HasEmailData)
	}
}

func mergeSlot(dst, src *HourSlot, hasEmail bool) {
	if hasEmail {
		dst.EmailsReceived = src.EmailsReceived
		dst.EmailsReplied = src.EmailsReplied
		dst.AvgResponseTime = src.AvgResponseTime
	}
	if src.UnreadCount != nil {
		dst.UnreadCount = src.UnreadCount
	}
	if src.SLAMet != nil {
		dst.SLAMet = src.SLAMet
	}
}

// normalizeHours rebuilds the hourly array so every record carries exactly
// 24 slots with hours 0..23, regardless of what was loaded or handed in.
func normalizeHours(rec *DayRecord) {
	if len(rec.HourlyData) == 24 {
		valid := true
		for h := 0; h < 24; h++ {
			if rec.HourlyData[h].Hour != h {
				valid = false
				break
			}
		}
		if valid {
			return
		}
	}
	slots := make([]HourSlot, 24)
	for h := 0; h < 24; h++ {
		slots[h] = HourSlot{Hour: h}
	}
	for _, s := range rec.HourlyData {
		if s.Hour >= 0 && s.Hour < 24 {
			hour := s.Hour
			slots[hour] = s
			slots[hour].Hour = hour
		}
	}
	rec.HourlyData = slots
}

func addSources(meta *Metadata, sources []string) {
	if len(sources) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(meta.DataSources)+len(sources))
	for _, s := range meta.DataSources {
		seen[s] = struct{}{}
	}
	for _, s := range sources {
		if s == "" {
			continue
		}
		seen[s] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	meta.DataSources = out
}
