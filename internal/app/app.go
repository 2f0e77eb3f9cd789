// Package app wires the watch-mode daemon: queue, watcher, ledger,
// backfill and the status API.
package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"email_sla/backfill"
	"email_sla/config"
	"email_sla/dashboard"
	"email_sla/formatting"
	"email_sla/ingest"
	"email_sla/internal/httpapi"
	"email_sla/internal/watch"
	"email_sla/metrics"
	"email_sla/queue"
	"email_sla/rollups"
	"email_sla/runlog"
	"email_sla/store"
)

// App wires the pipeline components together.
type App struct {
	cfg      config.Config
	ledger   *runlog.Ledger
	service  *ingest.Service
	queue    *queue.Queue
	watcher  *watch.Watcher
	mx       *metrics.Metrics
	renderer *dashboard.Renderer
	mux      *http.ServeMux
}

// New builds the daemon from configuration.
func New(cfg config.Config) (*App, error) {
	ledger, err := runlog.Open(cfg.LedgerPath)
	if err != nil {
		return nil, err
	}
	mx := metrics.New()
	service := ingest.NewService(cfg, ledger, mx)
	q := queue.New(cfg.QueueSize, time.Duration(cfg.RunTimeoutSec)*time.Second)
	renderer, err := dashboard.NewRenderer(cfg)
	if err != nil {
		ledger.Close()
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		ledger:   ledger,
		service:  service,
		queue:    q,
		mx:       mx,
		renderer: renderer,
		mux:      http.NewServeMux(),
	}
	a.watcher = watch.New(cfg, a)
	router := httpapi.NewRouter(cfg, ledger, q, mx)
	router.Register(a.mux)
	return a, nil
}

// EnqueueRun queues one ingest run. Implements watch.Enqueuer.
func (a *App) EnqueueRun(trigger string) bool {
	ok := a.queue.Enqueue(queue.Run{
		ID:      uuid.NewString(),
		Trigger: trigger,
		Work: func(ctx context.Context) error {
			summary, err := a.service.Run(ctx, trigger)
			if err != nil {
				return err
			}
			a.renderDashboards(summary.Dates)
			return nil
		},
	})
	stats := a.queue.Stats()
	a.mx.UpdateQueue(stats.Length, stats.Capacity)
	return ok
}

// renderDashboards refreshes the daily pages for the dates an ingest run
// touched, plus the weekly page covering the newest date.
func (a *App) renderDashboards(dates []string) {
	if len(dates) == 0 {
		return
	}
	db, err := store.Load(a.cfg.DatabasePath)
	if err != nil {
		log.Printf("dashboard refresh: load database: %v", err)
		return
	}
	var newest time.Time
	for _, date := range dates {
		rec, ok := db.Day(date)
		if !ok {
			continue
		}
		if _, err := a.renderer.SaveDaily(rec); err != nil {
			log.Printf("dashboard refresh: daily %s: %v", date, err)
			continue
		}
		if t, err := time.Parse("2006-01-02", date); err == nil && t.After(newest) {
			newest = t
		}
	}
	if newest.IsZero() {
		return
	}
	weekStart := formatting.WeekOf(newest)
	provider := rollups.ProviderChain{db, dashboard.NewHTMLRecovery(a.cfg.DailyOutputDir)}
	if _, err := a.renderer.SaveWeekly(provider, weekStart, formatting.WeekTitle(weekStart)); err != nil {
		log.Printf("dashboard refresh: weekly %s: %v", weekStart.Format("2006-01-02"), err)
	}
}

// Run starts the queue, watcher, startup backfill and HTTP server, and
// blocks until the context is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	defer a.ledger.Close()

	a.queue.Start(ctx)
	if err := a.watcher.Start(ctx); err != nil {
		return err
	}
	backfill.Run(ctx, a, a.cfg.BackfillLimit)

	srv := &http.Server{Addr: a.cfg.HTTPPort, Handler: a.mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Printf("http listening on %s", a.cfg.HTTPPort)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ListCandidates reports ingest CSVs and their ledger state. Implements
// backfill.Repository.
func (a *App) ListCandidates(ctx context.Context) ([]backfill.Candidate, error) {
	paths := ingest.DiscoverEventFiles(a.cfg.IngestDir, a.cfg.EventsFile)
	unread := filepath.Join(a.cfg.IngestDir, a.cfg.UnreadFile)
	if _, err := os.Stat(unread); err == nil {
		paths = append(paths, unread)
	}

	candidates := make([]backfill.Candidate, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		processed, err := a.ledger.IsFileProcessed(ctx, path)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, backfill.Candidate{
			Path:      path,
			ModTime:   info.ModTime(),
			SizeBytes: info.Size(),
			Processed: processed,
		})
	}
	return candidates, nil
}

// QueueCandidate enqueues a run for an unprocessed file. Implements
// backfill.Repository.
func (a *App) QueueCandidate(ctx context.Context, c backfill.Candidate) bool {
	return a.EnqueueRun("backfill:" + filepath.Base(c.Path))
}

// OnBackfillComplete implements backfill.Repository.
func (a *App) OnBackfillComplete(summary backfill.Summary) {
	log.Printf("startup backfill done: %d candidates, %d enqueued", summary.TotalCandidates, summary.Enqueued)
}

// Mux exposes the HTTP handler for tests.
func (a *App) Mux() *http.ServeMux { return a.mux }
