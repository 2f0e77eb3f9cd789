package dashboard

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"email_sla/store"
)

// HTMLRecovery recovers minimal day records from previously rendered daily
// dashboards when the store has lost a date. It implements
// rollups.DayProvider and is meant to sit behind the store in a provider
// chain.
type HTMLRecovery struct {
	dir string
}

// NewHTMLRecovery scrapes dashboards under dir.
func NewHTMLRecovery(dir string) *HTMLRecovery {
	return &HTMLRecovery{dir: dir}
}

var kpiCardRe = regexp.MustCompile(
	`(?s)<div class="kpi-value">([^<]*)</div>\s*<div class="kpi-label">([^<]*)</div>`)

// Day reads email_dashboard_<date>.html and rebuilds what the KPI cards
// preserve. Missing or unscrapable files simply miss.
func (h *HTMLRecovery) Day(date string) (*store.DayRecord, bool) {
	path := filepath.Join(h.dir, fmt.Sprintf("email_dashboard_%s.html", date))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	rec := store.NewDayRecord(date)
	found := false
	for _, m := range kpiCardRe.FindAllStringSubmatch(string(data), -1) {
		value := strings.TrimSpace(m[1])
		label := strings.TrimSpace(m[2])
		switch label {
		case "Total Emails":
			if n, err := strconv.Atoi(value); err == nil {
				rec.DailySummary.TotalEmails = n
				rec.HasEmailData = true
				found = true
			}
		case "Avg Response Time":
			if v, ok := parseMinutes(value); ok {
				rec.DailySummary.AvgResponseTimeMinutes = &v
				rec.HasEmailData = true
				found = true
			}
		case "Median Response Time":
			if v, ok := parseMinutes(value); ok {
				rec.DailySummary.MedianResponseTimeMinutes = &v
				found = true
			}
		case "SLA Compliance":
			if v, ok := parsePercent(value); ok {
				rec.DailySummary.SLAComplianceRate = &v
				rec.HasSLAData = true
				found = true
			}
		case "Avg Unread":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				rec.DailySummary.AvgUnreadCount = &v
				rec.HasSLAData = true
				found = true
			}
		}
	}
	if !found {
		return nil, false
	}
	return rec, true
}

func parseMinutes(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(s, "min"))
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

func parsePercent(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	return v, err == nil
}
