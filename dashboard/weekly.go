package dashboard

import (
	"bytes"
	"fmt"
	"time"

	"email_sla/formatting"
	"email_sla/rollups"
)

// WeeklyPage is the template payload for one week's dashboard.
type WeeklyPage struct {
	Title       string
	RangeLabel  string
	GeneratedAt string
	Partial     bool
	KPIs        []KPI
	Days        []weeklyDayRow
}

type weeklyDayRow struct {
	Date       string
	Display    string
	Emails     int
	Avg        string
	Compliance string
	Unread     string
	HasData    bool
}

// RenderWeekly renders the dashboard for the week opening at weekStart.
func (r *Renderer) RenderWeekly(provider rollups.DayProvider, weekStart time.Time, title string) ([]byte, error) {
	summary := rollups.ComputeWeekly(provider, weekStart, r.cfg.Hours)
	page := WeeklyPage{
		Title:       title,
		RangeLabel:  formatting.DateRange(weekStart, weekStart.AddDate(0, 0, 6)),
		GeneratedAt: time.Now().Format("2006-01-02 15:04"),
		Partial:     summary.Partial,
	}

	page.KPIs = []KPI{
		{Label: "Total Emails", Value: fmt.Sprintf("%d", summary.TotalEmails), Sub: fmt.Sprintf("%d days with data", summary.DaysWithData)},
		{Label: "Avg Emails / Day", Value: fmtFloat(summary.AvgEmailsPerDay)},
		{Label: "Avg Response Time", Value: fmtMinutes(summary.AvgResponseTime), Sub: fmt.Sprintf("target %.0f min", r.cfg.Targets.ResponseTimeTargetMinutes)},
		{Label: "SLA Compliance", Value: fmtPercent(summary.SLACompliancePct), Sub: fmt.Sprintf("target %.0f%%", r.cfg.Targets.SLAComplianceTargetPercent)},
		{Label: "Avg Unread", Value: fmtFloat(summary.AvgUnreadCount), Sub: fmt.Sprintf("threshold %d", r.cfg.UnreadThreshold)},
	}

	for i := 0; i < 7; i++ {
		date := weekStart.AddDate(0, 0, i).Format("2006-01-02")
		row := weeklyDayRow{
			Date:       date,
			Display:    weekStart.AddDate(0, 0, i).Format("Mon Jan 2"),
			Avg:        "no data",
			Compliance: "no data",
			Unread:     "no data",
		}
		if rec, ok := provider.Day(date); ok && rec != nil {
			row.HasData = rec.HasEmailData || rec.HasSLAData
			row.Emails = rec.DailySummary.TotalEmails
			row.Avg = fmtMinutes(rec.DailySummary.AvgResponseTimeMinutes)
			row.Compliance = fmtPercent(rec.DailySummary.SLAComplianceRate)
			row.Unread = fmtFloat(rec.DailySummary.AvgUnreadCount)
		}
		page.Days = append(page.Days, row)
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "weekly.html", page); err != nil {
		return nil, fmt.Errorf("render weekly dashboard: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveWeekly renders the week and writes weekly_dashboard_<start>.html
// plus latest.html into the weekly output dir. Returns the written path.
func (r *Renderer) SaveWeekly(provider rollups.DayProvider, weekStart time.Time, title string) (string, error) {
	content, err := r.RenderWeekly(provider, weekStart, title)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("weekly_dashboard_%s.html", weekStart.Format("2006-01-02"))
	return writePage(r.cfg.WeeklyOutputDir, name, content)
}
