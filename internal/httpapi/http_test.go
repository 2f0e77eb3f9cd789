package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"email_sla/config"
	"email_sla/metrics"
	"email_sla/queue"
	"email_sla/store"
)

func setupTest(t *testing.T) (*http.ServeMux, config.Config) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Config{
		DatabasePath:   filepath.Join(root, "db.json"),
		DailyOutputDir: filepath.Join(root, "daily"),
		Hours: config.BusinessHours{
			StartHour:    7,
			EndHour:      21,
			BusinessDays: []int{0, 1, 2, 3, 4, 5, 6},
		},
	}

	q := queue.New(4, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	q.Start(ctx)

	router := NewRouter(cfg, nil, q, metrics.New())
	mux := http.NewServeMux()
	router.Register(mux)
	return mux, cfg
}

func seedDatabase(t *testing.T, cfg config.Config) {
	t.Helper()
	db := store.NewDatabase()
	rec := store.NewDayRecord("2025-06-02")
	rec.HasEmailData = true
	rec.HasSLAData = true
	rec.DailySummary.TotalEmails = 7
	store.MergeDays(db, map[string]*store.DayRecord{"2025-06-02": rec}, "events.csv")
	if err := store.Save(db, cfg.DatabasePath); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := setupTest(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	mux, _ := setupTest(t)
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := payload["queue"]; !ok {
		t.Fatal("status payload missing queue stats")
	}
	if _, ok := payload["counters"]; !ok {
		t.Fatal("status payload missing counters")
	}
}

func TestDaysEndpoints(t *testing.T) {
	mux, cfg := setupTest(t)
	seedDatabase(t, cfg)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/days", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("days status %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "2025-06-02") {
		t.Fatalf("days payload missing date: %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/days/2025-06-02", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("day detail status %d", rr.Code)
	}
	var rec store.DayRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode day: %v", err)
	}
	if rec.DailySummary.TotalEmails != 7 {
		t.Fatalf("total emails = %d, want 7", rec.DailySummary.TotalEmails)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/days/2025-01-01", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing day status %d, want 404", rr.Code)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/days/garbage", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad date status %d, want 400", rr.Code)
	}
}

func TestWeeklyEndpoint(t *testing.T) {
	mux, cfg := setupTest(t)
	seedDatabase(t, cfg)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/weekly?week=2025-W23", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("weekly status %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode weekly: %v", err)
	}
	if payload["WeekStart"] != "2025-06-02" {
		t.Fatalf("week start = %v", payload["WeekStart"])
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/weekly?week=bogus", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad week status %d, want 400", rr.Code)
	}
}
