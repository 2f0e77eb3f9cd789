// Package httpapi exposes the read-only status API served in watch mode.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"email_sla/config"
	"email_sla/formatting"
	"email_sla/metrics"
	"email_sla/queue"
	"email_sla/rollups"
	"email_sla/runlog"
	"email_sla/store"
)

// Router builds the HTTP handlers for /healthz and /api.
type Router struct {
	cfg    config.Config
	ledger *runlog.Ledger
	queue  *queue.Queue
	mx     *metrics.Metrics
}

// NewRouter wires the status API. Ledger may be nil.
func NewRouter(cfg config.Config, ledger *runlog.Ledger, q *queue.Queue, mx *metrics.Metrics) *Router {
	return &Router{cfg: cfg, ledger: ledger, queue: q, mx: mx}
}

// Register installs the handlers on mux.
func (r *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", r.health)
	mux.HandleFunc("/api/status", r.status)
	mux.HandleFunc("/api/days", r.days)
	mux.HandleFunc("/api/days/", r.dayDetail)
	mux.HandleFunc("/api/weekly", r.weekly)
	mux.Handle("/dashboards/", http.StripPrefix("/dashboards/",
		http.FileServer(http.Dir(r.cfg.DailyOutputDir))))
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	if !r.queue.Healthy() {
		http.Error(w, "queue not running", http.StatusServiceUnavailable)
		return
	}
	if r.ledger != nil {
		if err := r.ledger.Health(req.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) status(w http.ResponseWriter, req *http.Request) {
	payload := map[string]any{
		"queue":    r.queue.Stats(),
		"counters": r.mx.Snapshot(),
	}
	if r.ledger != nil {
		runs, err := r.ledger.ListRuns(req.Context(), 5)
		if err != nil {
			log.Printf("list runs: %v", err)
		} else {
			payload["recent_runs"] = runs
		}
	}
	respondJSON(w, payload)
}

func (r *Router) days(w http.ResponseWriter, req *http.Request) {
	db, err := store.Load(r.cfg.DatabasePath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]any{
		"dates":    db.SortedDates(),
		"metadata": db.Metadata,
	})
}

func (r *Router) dayDetail(w http.ResponseWriter, req *http.Request) {
	date := strings.TrimPrefix(req.URL.Path, "/api/days/")
	if !store.ValidDateKey(date) {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	db, err := store.Load(r.cfg.DatabasePath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rec, ok := db.Day(date)
	if !ok {
		http.NotFound(w, req)
		return
	}
	respondJSON(w, rec)
}

func (r *Router) weekly(w http.ResponseWriter, req *http.Request) {
	db, err := store.Load(r.cfg.DatabasePath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	weekStart := formatting.WeekOf(time.Now().UTC())
	if raw := req.URL.Query().Get("week"); raw != "" {
		parsed, err := formatting.ParseISOWeek(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		weekStart = parsed
	}
	summary := rollups.ComputeWeekly(db, weekStart, r.cfg.Hours)
	respondJSON(w, summary)
}

func respondJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write json: %v", err)
	}
}
