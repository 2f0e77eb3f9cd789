package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"email_sla/config"
	"email_sla/dashboard"
	"email_sla/formatting"
	"email_sla/ingest"
	"email_sla/internal/app"
	"email_sla/metrics"
	"email_sla/rollups"
	"email_sla/runlog"
	"email_sla/store"
)

func main() {
	var (
		watchMode    = flag.Bool("watch", false, "run the ingest daemon with file watcher and status API")
		ingestOnce   = flag.Bool("ingest", false, "run one ingest pass and exit")
		daily        = flag.Bool("daily", false, "render the daily dashboard")
		date         = flag.String("date", "", "date for -daily (YYYY-MM-DD, default yesterday)")
		weekly       = flag.Bool("weekly", false, "render the weekly dashboard")
		week         = flag.String("week", "", "ISO week for -weekly (e.g. 2025-W34, default current week)")
		lastSeven    = flag.Bool("last-7-days", false, "render the rolling seven day dashboard")
		listDates    = flag.Bool("list-dates", false, "list dates present in the database")
		validateOnly = flag.Bool("validate-only", false, "load and validate config, then exit")
		fillMissing  = flag.Bool("fill-missing-days", false, "render daily dashboards for stored days with no page on disk")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if *validateOnly {
		fmt.Printf("config ok: ingest=%s database=%s hours=%s\n",
			cfg.IngestDir, cfg.DatabasePath, formatting.BusinessHoursLabel(cfg.Hours.StartHour, cfg.Hours.EndHour))
		return
	}

	switch {
	case *watchMode:
		runWatch(cfg)
	case *ingestOnce:
		runIngest(cfg)
	case *listDates:
		runListDates(cfg)
	case *daily:
		runDaily(cfg, *date)
	case *weekly:
		runWeekly(cfg, *week)
	case *lastSeven:
		runLastSeven(cfg)
	case *fillMissing:
		runFillMissing(cfg)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runWatch(cfg config.Config) {
	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	if err := application.Run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}
}

func runIngest(cfg config.Config) {
	ledger, err := runlog.Open(cfg.LedgerPath)
	if err != nil {
		log.Fatalf("ledger: %v", err)
	}
	defer ledger.Close()

	svc := ingest.NewService(cfg, ledger, metrics.New())
	summary, err := svc.Run(context.Background(), "cli")
	if errors.Is(err, ingest.ErrNoInput) {
		log.Printf("nothing to ingest in %s", cfg.IngestDir)
		return
	}
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}
	fmt.Printf("ingested %d files: %d events, %d snapshots, %d days merged (%d rows skipped)\n",
		summary.FilesProcessed, summary.EventsParsed, summary.SnapshotsParsed, summary.DaysMerged, summary.RowsSkipped)
}

func runListDates(cfg config.Config) {
	db, err := store.Load(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	for _, date := range db.SortedDates() {
		rec, _ := db.Day(date)
		marks := ""
		if rec.HasEmailData {
			marks += " email"
		}
		if rec.HasSLAData {
			marks += " sla"
		}
		fmt.Printf("%s%s\n", date, marks)
	}
}

func runDaily(cfg config.Config, date string) {
	if date == "" {
		date = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	}
	if !store.ValidDateKey(date) {
		log.Fatalf("bad date %q, want YYYY-MM-DD", date)
	}
	db, err := store.Load(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	rec, ok := db.Day(date)
	if !ok {
		log.Fatalf("no data for %s", date)
	}
	renderer := mustRenderer(cfg)
	path, err := renderer.SaveDaily(rec)
	if err != nil {
		log.Fatalf("render: %v", err)
	}
	fmt.Printf("wrote %s\n", path)
}

func runWeekly(cfg config.Config, week string) {
	weekStart := formatting.WeekOf(time.Now())
	if week != "" {
		var err error
		weekStart, err = formatting.ParseISOWeek(week)
		if err != nil {
			log.Fatalf("bad week %q: %v", week, err)
		}
	}
	renderWeekRange(cfg, weekStart, formatting.WeekTitle(weekStart))
}

func runLastSeven(cfg config.Config) {
	start := formatting.LastSevenDays(time.Now())
	title := "Last 7 Days (" + formatting.DateRange(start, start.AddDate(0, 0, 6)) + ")"
	renderWeekRange(cfg, start, title)
}

func renderWeekRange(cfg config.Config, weekStart time.Time, title string) {
	db, err := store.Load(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	provider := rollups.ProviderChain{db, dashboard.NewHTMLRecovery(cfg.DailyOutputDir)}
	renderer := mustRenderer(cfg)
	path, err := renderer.SaveWeekly(provider, weekStart, title)
	if err != nil {
		log.Fatalf("render: %v", err)
	}
	fmt.Printf("wrote %s\n", path)
}

func runFillMissing(cfg config.Config) {
	db, err := store.Load(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	renderer := mustRenderer(cfg)
	recovery := dashboard.NewHTMLRecovery(cfg.DailyOutputDir)
	rendered := 0
	for _, date := range db.SortedDates() {
		if _, ok := recovery.Day(date); ok {
			continue
		}
		rec, _ := db.Day(date)
		if _, err := renderer.SaveDaily(rec); err != nil {
			log.Printf("render %s: %v", date, err)
			continue
		}
		rendered++
	}
	fmt.Printf("rendered %d missing daily dashboards\n", rendered)
}

func mustRenderer(cfg config.Config) *dashboard.Renderer {
	renderer, err := dashboard.NewRenderer(cfg)
	if err != nil {
		log.Fatalf("templates: %v", err)
	}
	return renderer
}
