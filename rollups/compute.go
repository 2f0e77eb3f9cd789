package rollups

import (
	"fmt"
	"math"
	"sort"

	"email_sla/config"
	"email_sla/formatting"
	"email_sla/store"
)

type periodBand struct {
	label string
	start int
	end   int
}

var periodBands = []periodBand{
	{"Early Morning", 6, 8},
	{"Morning", 9, 12},
	{"Afternoon", 13, 16},
	{"Evening", 17, 21},
}

// ComputePeriods returns volume-weighted response-time averages for the
// fixed day-part bands. Bands with no measured replies carry a nil average.
func ComputePeriods(rec *store.DayRecord) []PeriodStat {
	stats := make([]PeriodStat, 0, len(periodBands))
	for _, band := range periodBands {
		stat := PeriodStat{Label: band.label, StartHour: band.start, EndHour: band.end}
		weighted := 0.0
		weight := 0
		for h := band.start; h <= band.end; h++ {
			slot := rec.HourlyData[h]
			stat.EmailCount += slot.EmailsReceived
			if slot.AvgResponseTime != nil && slot.EmailsReplied > 0 {
				weighted += *slot.AvgResponseTime * float64(slot.EmailsReplied)
				weight += slot.EmailsReplied
			}
		}
		if weight > 0 {
			avg := round2(weighted / float64(weight))
			stat.AvgResponseTime = &avg
		}
		stats = append(stats, stat)
	}
	return stats
}

type distBand struct {
	label string
	min   float64
	max   float64
}

var distBands = []distBand{
	{"< 30 min", 0, 30},
	{"30-60 min", 30, 60},
	{"1-2 hrs", 60, 120},
	{"2-3 hrs", 120, 180},
	{"3-5 hrs", 180, 300},
	{"> 5 hrs", 300, math.MaxFloat64},
}

// ComputeDistribution buckets the day's reply times into fixed bands.
// Percentages are shares of total replies rounded to whole numbers.
func ComputeDistribution(rec *store.DayRecord) []DistributionBucket {
	times := expandResponseTimes(rec)
	buckets := make([]DistributionBucket, len(distBands))
	for i, band := range distBands {
		buckets[i] = DistributionBucket{Label: band.label}
	}
	for _, t := range times {
		for i, band := range distBands {
			if t >= band.min && t < band.max {
				buckets[i].Count++
				break
			}
		}
	}
	if len(times) > 0 {
		for i := range buckets {
			buckets[i].Percent = int(math.Round(float64(buckets[i].Count) / float64(len(times)) * 100))
		}
	}
	return buckets
}

var percentileLevels = []int{25, 50, 75, 90, 95}

// ComputePercentiles summarises the reply-time shape of a day. With no
// measured replies the report's HasData is false.
func ComputePercentiles(rec *store.DayRecord) PercentileReport {
	times := expandResponseTimes(rec)
	if len(times) == 0 {
		return PercentileReport{Percentiles: map[int]float64{}}
	}
	sort.Float64s(times)

	report := PercentileReport{Percentiles: make(map[int]float64, len(percentileLevels)), HasData: true}
	for _, p := range percentileLevels {
		report.Percentiles[p] = round2(quantile(times, p))
	}

	p25 := report.Percentiles[25]
	p50 := report.Percentiles[50]
	p75 := report.Percentiles[75]
	for _, t := range times {
		switch {
		case t <= p25:
			report.Quartiles.Q1++
		case t <= p50:
			report.Quartiles.Q2++
		case t <= p75:
			report.Quartiles.Q3++
		default:
			report.Quartiles.Q4++
		}
	}
	return report
}

// quantile interpolates linearly on a sorted slice using the inclusive
// rank p/100*(n-1), so the 50th percentile equals the exact median.
func quantile(sorted []float64, p int) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	rank := float64(p) / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// ComputeTwoHourBlocks pairs adjacent hours across the business window.
// The SLA flag is true only when every reading in the block met the
// threshold, false when any missed, and nil when the block has no readings.
func ComputeTwoHourBlocks(rec *store.DayRecord, hours config.BusinessHours) []TwoHourBlock {
	var blocks []TwoHourBlock
	for start := hours.StartHour; start < hours.EndHour; start += 2 {
		end := start + 1
		block := TwoHourBlock{
			Label:     fmt.Sprintf("%s-%s", formatting.HourLabel(start), formatting.HourLabel(end+1)),
			StartHour: start,
		}

		var unreadSum, unreadReadings int
		allMet := true
		anyReading := false
		weighted := 0.0
		weight := 0
		var expanded []float64

		for h := start; h <= end && h < 24; h++ {
			slot := rec.HourlyData[h]
			block.EmailsReceived += slot.EmailsReceived
			if slot.UnreadCount != nil {
				unreadSum += *slot.UnreadCount
				unreadReadings++
			}
			if slot.SLAMet != nil {
				anyReading = true
				if !*slot.SLAMet {
					allMet = false
				}
			}
			if slot.AvgResponseTime != nil && slot.EmailsReplied > 0 {
				weighted += *slot.AvgResponseTime * float64(slot.EmailsReplied)
				weight += slot.EmailsReplied
				for i := 0; i < slot.EmailsReplied; i++ {
					expanded = append(expanded, *slot.AvgResponseTime)
				}
			}
		}

		if unreadReadings > 0 {
			avg := round1(float64(unreadSum) / float64(unreadReadings))
			block.AvgUnreadCount = &avg
		}
		if anyReading {
			met := allMet
			block.SLAMet = &met
		}
		if weight > 0 {
			avg := round2(weighted / float64(weight))
			block.AvgResponseTime = &avg
			sort.Float64s(expanded)
			med := round2(medianSorted(expanded))
			block.MedianResponseTime = &med
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// expandResponseTimes approximates the day's reply-time sample by
// repeating each hourly average once per reply in that hour.
func expandResponseTimes(rec *store.DayRecord) []float64 {
	var times []float64
	for _, slot := range rec.HourlyData {
		if slot.AvgResponseTime == nil || slot.EmailsReplied <= 0 {
			continue
		}
		for i := 0; i < slot.EmailsReplied; i++ {
			times = append(times, *slot.AvgResponseTime)
		}
	}
	return times
}

func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
