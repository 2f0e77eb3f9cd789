// Package store holds the unified per-day email database: load, merge and
// atomic save of the JSON document that daily and weekly reports read.
package store

import (
	"sort"
	"time"
)

// Metadata describes the database document as a whole.
type Metadata struct {
	LastUpdated   string   `json:"last_updated"`
	TotalDays     int      `json:"total_days_processed"`
	FirstDate     string   `json:"earliest_date,omitempty"`
	LastDate      string   `json:"latest_date,omitempty"`
	DataSources   []string `json:"data_sources,omitempty"`
	SchemaVersion int      `json:"schema_version"`
}

// Database is the unified store keyed by YYYY-MM-DD date strings.
type Database struct {
	Metadata Metadata              `json:"metadata"`
	Days     map[string]*DayRecord `json:"days"`
}

// DayRecord carries one calendar day of merged email and SLA data.
type DayRecord struct {
	Date         string       `json:"date"`
	HasEmailData bool         `json:"has_email_data"`
	HasSLAData   bool         `json:"has_sla_data"`
	DailySummary DailySummary `json:"daily_summary"`
	HourlyData   []HourSlot   `json:"hourly_data"`
}

// DailySummary aggregates a day. Email-side and SLA-side fields are
// populated by different sources, so absence is a nil pointer.
type DailySummary struct {
	TotalEmails               int      `json:"total_emails"`
	EmailsReplied             int      `json:"emails_replied"`
	EmailsCompleted           int      `json:"emails_completed"`
	EmailsPending             int      `json:"emails_pending"`
	ReplyRatePercent          float64  `json:"reply_rate_percent"`
	ResolutionRatePercent     float64  `json:"resolution_rate_percent"`
	AvgResponseTimeMinutes    *float64 `json:"avg_response_time_minutes"`
	MedianResponseTimeMinutes *float64 `json:"median_response_time_minutes"`
	SLAComplianceRate         *float64 `json:"sla_compliance_rate"`
	AvgUnreadCount            *float64 `json:"avg_unread_count"`
}

// HourSlot is one hour bucket of a day. Unread count and SLA flag come
// from snapshots; the email counters come from classified conversations.
type HourSlot struct {
	Hour            int      `json:"hour"`
	UnreadCount     *int     `json:"unread_count"`
	SLAMet          *bool    `json:"sla_met"`
	EmailsReceived  int      `json:"emails_received"`
	EmailsReplied   int      `json:"emails_replied"`
	AvgResponseTime *float64 `json:"avg_response_time"`
}

const schemaVersion = 1

// NewDatabase returns an empty database document.
func NewDatabase() *Database {
	return &Database{
		Metadata: Metadata{
			LastUpdated:   time.Now().UTC().Format(time.RFC3339),
			SchemaVersion: schemaVersion,
		},
		Days: make(map[string]*DayRecord),
	}
}

// NewDayRecord returns a day with all 24 hour slots initialized to
// no-data values.
func NewDayRecord(date string) *DayRecord {
	rec := &DayRecord{Date: date, HourlyData: make([]HourSlot, 24)}
	for h := 0; h < 24; h++ {
		rec.HourlyData[h] = HourSlot{Hour: h}
	}
	return rec
}

// Day returns the record for a date key, if present.
func (db *Database) Day(date string) (*DayRecord, bool) {
	rec, ok := db.Days[date]
	return rec, ok
}

// SortedDates returns the day keys in ascending order.
func (db *Database) SortedDates() []string {
	dates := make([]string, 0, len(db.Days))
	for d := range db.Days {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
