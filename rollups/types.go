// Package rollups aggregates stored day records into the period,
// distribution, percentile and weekly views the dashboards render.
package rollups

// PeriodStat is a volume-weighted response-time average over a labelled
// band of hours.
type PeriodStat struct {
	Label           string
	StartHour       int
	EndHour         int
	EmailCount      int
	AvgResponseTime *float64
}

// DistributionBucket counts replies falling into one response-time band.
type DistributionBucket struct {
	Label   string
	Count   int
	Percent int
}

// PercentileReport summarises the shape of a day's response times.
type PercentileReport struct {
	Percentiles map[int]float64
	Quartiles   QuartileCounts
	HasData     bool
}

// QuartileCounts buckets replies relative to the day's own quartiles.
type QuartileCounts struct {
	Q1 int // at or below P25
	Q2 int // above P25, at or below P50
	Q3 int // above P50, at or below P75
	Q4 int // above P75
}

// TwoHourBlock aggregates a pair of adjacent hours.
type TwoHourBlock struct {
	Label              string
	StartHour          int
	EmailsReceived     int
	AvgUnreadCount     *float64
	SLAMet             *bool
	AvgResponseTime    *float64
	MedianResponseTime *float64
}

// WeeklySummary covers one ISO week of merged days.
type WeeklySummary struct {
	WeekStart        string
	WeekEnd          string
	DaysWithData     int
	TotalEmails      int
	AvgEmailsPerDay  *float64
	AvgResponseTime  *float64
	AvgUnreadCount   *float64
	SLACompliancePct *float64
	Partial          bool
}
