package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"email_sla/config"
	"email_sla/formatting"
	"email_sla/rollups"
	"email_sla/store"
)

// DailyPage is the template payload for one day's dashboard.
type DailyPage struct {
	Title       string
	DateDisplay string
	HoursLabel  string
	GeneratedAt string
	KPIs        []KPI
	Chart       template.HTML
	Periods     []periodRow
	Buckets     []bucketRow
	Percentiles []percentileRow
	Blocks      []blockRow
}

type periodRow struct {
	Label  string
	Hours  string
	Emails int
	Avg    string
}

type bucketRow struct {
	Label   string
	Count   int
	Percent int
}

type percentileRow struct {
	Label string
	Value string
}

type blockRow struct {
	Label  string
	Emails int
	Unread string
	SLA    string
	Avg    string
	Median string
}

// RenderDaily renders the dashboard HTML for one day.
func (r *Renderer) RenderDaily(rec *store.DayRecord) ([]byte, error) {
	page := r.buildDailyPage(rec)
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "daily.html", page); err != nil {
		return nil, fmt.Errorf("render daily dashboard for %s: %w", rec.Date, err)
	}
	return buf.Bytes(), nil
}

// SaveDaily renders the day and writes email_dashboard_<date>.html plus
// latest.html into the daily output dir. Returns the written path.
func (r *Renderer) SaveDaily(rec *store.DayRecord) (string, error) {
	content, err := r.RenderDaily(rec)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("email_dashboard_%s.html", rec.Date)
	return writePage(r.cfg.DailyOutputDir, name, content)
}

func (r *Renderer) buildDailyPage(rec *store.DayRecord) DailyPage {
	hours := r.cfg.Hours
	page := DailyPage{
		Title:       fmt.Sprintf("Email SLA Dashboard - %s", rec.Date),
		DateDisplay: formatting.DisplayDate(rec.Date),
		HoursLabel:  formatting.BusinessHoursLabel(hours.StartHour, hours.EndHour),
		GeneratedAt: time.Now().Format("2006-01-02 15:04"),
	}

	page.KPIs = r.dailyKPIs(rec)
	page.Chart = r.unreadChart(rec)

	for _, p := range rollups.ComputePeriods(rec) {
		page.Periods = append(page.Periods, periodRow{
			Label:  p.Label,
			Hours:  formatting.BusinessHoursLabel(p.StartHour, p.EndHour),
			Emails: p.EmailCount,
			Avg:    fmtMinutes(p.AvgResponseTime),
		})
	}
	for _, b := range rollups.ComputeDistribution(rec) {
		page.Buckets = append(page.Buckets, bucketRow{Label: b.Label, Count: b.Count, Percent: b.Percent})
	}

	report := rollups.ComputePercentiles(rec)
	if report.HasData {
		for _, p := range []int{25, 50, 75, 90, 95} {
			v := report.Percentiles[p]
			page.Percentiles = append(page.Percentiles, percentileRow{
				Label: fmt.Sprintf("P%d", p),
				Value: fmtMinutes(&v),
			})
		}
	}

	for _, b := range rollups.ComputeTwoHourBlocks(rec, hours) {
		row := blockRow{
			Label:  b.Label,
			Emails: b.EmailsReceived,
			Unread: fmtFloat(b.AvgUnreadCount),
			Avg:    fmtMinutes(b.AvgResponseTime),
			Median: fmtMinutes(b.MedianResponseTime),
			SLA:    "no data",
		}
		if b.SLAMet != nil {
			if *b.SLAMet {
				row.SLA = "met"
			} else {
				row.SLA = "missed"
			}
		}
		page.Blocks = append(page.Blocks, row)
	}
	return page
}

func (r *Renderer) dailyKPIs(rec *store.DayRecord) []KPI {
	s := rec.DailySummary
	replyRate := s.ReplyRatePercent
	kpis := []KPI{
		{Label: "Total Emails", Value: fmt.Sprintf("%d", s.TotalEmails), Sub: fmt.Sprintf("%d replied, %d pending", s.EmailsReplied, s.EmailsPending)},
		{Label: "Reply Rate", Value: fmtPercent(&replyRate)},
		{Label: "Avg Response Time", Value: fmtMinutes(businessHoursAvg(rec, r.cfg.Hours)), Sub: "business hours, volume weighted"},
		{Label: "Median Response Time", Value: fmtMinutes(s.MedianResponseTimeMinutes)},
		{Label: "SLA Compliance", Value: fmtPercent(s.SLAComplianceRate), Sub: fmt.Sprintf("target %.0f%%", r.cfg.Targets.SLAComplianceTargetPercent)},
		{Label: "Avg Unread", Value: fmtFloat(s.AvgUnreadCount), Sub: fmt.Sprintf("threshold %d", r.cfg.UnreadThreshold)},
	}
	return kpis
}

// businessHoursAvg weights each business-hour slot's average by its reply
// count, falling back to the stored daily average.
func businessHoursAvg(rec *store.DayRecord, hours config.BusinessHours) *float64 {
	weighted := 0.0
	weight := 0
	for h := 0; h < 24; h++ {
		slot := rec.HourlyData[h]
		if !hours.ContainsHour(h) || slot.AvgResponseTime == nil || slot.EmailsReplied <= 0 {
			continue
		}
		weighted += *slot.AvgResponseTime * float64(slot.EmailsReplied)
		weight += slot.EmailsReplied
	}
	if weight == 0 {
		return rec.DailySummary.AvgResponseTimeMinutes
	}
	avg := weighted / float64(weight)
	return &avg
}

// unreadChart plots the unread counts across the business window with the
// SLA threshold as a horizontal line.
func (r *Renderer) unreadChart(rec *store.DayRecord) template.HTML {
	hours := r.cfg.Hours
	chart := NewChart()

	var values []float64
	var ticks []string
	for h := hours.StartHour; h <= hours.EndHour && h < 24; h++ {
		v := 0.0
		if rec.HourlyData[h].UnreadCount != nil {
			v = float64(*rec.HourlyData[h].UnreadCount)
		}
		values = append(values, v)
		if (h-hours.StartHour)%2 == 0 {
			ticks = append(ticks, formatting.HourLabel(h))
		} else {
			ticks = append(ticks, "")
		}
	}

	max := float64(r.cfg.UnreadThreshold)
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	max *= 1.1

	pts := chart.Points(values, max)
	thresholdY := chart.Y(float64(r.cfg.UnreadThreshold), max)

	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`, chart.Width, chart.Height)
	fmt.Fprintf(&b, `<path d="%s" class="area"/>`, AreaPath(pts, chart.BaselineY()))
	fmt.Fprintf(&b, `<path d="%s" class="line"/>`, SmoothPath(pts))
	fmt.Fprintf(&b, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" class="threshold"/>`,
		chart.MarginLeft, thresholdY, chart.Width-chart.MarginRight, thresholdY)
	for _, p := range pts {
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="3" class="dot"/>`, p.X, p.Y)
	}
	for _, l := range chart.YLabels(max, 4) {
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" class="ylabel">%s</text>`, l.X, l.Y, l.Text)
	}
	for _, l := range chart.XLabels(ticks) {
		if l.Text == "" {
			continue
		}
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" class="xlabel">%s</text>`, l.X, l.Y, l.Text)
	}
	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}
