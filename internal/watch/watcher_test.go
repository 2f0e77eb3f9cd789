package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"email_sla/config"
)

type countingEnqueuer struct {
	runs int32
}

func (c *countingEnqueuer) EnqueueRun(trigger string) bool {
	atomic.AddInt32(&c.runs, 1)
	return true
}

func (c *countingEnqueuer) count() int32 {
	return atomic.LoadInt32(&c.runs)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWatcherEnqueuesOnCSVCreate(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{IngestDir: dir, EnableWatcher: true}
	enq := &countingEnqueuer{}

	w := New(cfg, enq)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "25-06-02.csv"), []byte("a,b\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return enq.count() == 1 })
}

func TestWatcherIgnoresNonCSV(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{IngestDir: dir, EnableWatcher: true}
	enq := &countingEnqueuer{}

	w := New(cfg, enq)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if enq.count() != 0 {
		t.Fatalf("runs = %d, want 0 for non-CSV files", enq.count())
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{IngestDir: dir, EnableWatcher: true}
	enq := &countingEnqueuer{}

	w := New(cfg, enq)
	w.debounce = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "Complete_List_Raw.csv")
		if err := os.WriteFile(name, []byte("a,b\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	waitFor(t, 2*time.Second, func() bool { return enq.count() >= 1 })
	time.Sleep(300 * time.Millisecond)
	if enq.count() != 1 {
		t.Fatalf("runs = %d, want a single debounced run", enq.count())
	}
}

func TestWatcherDisabled(t *testing.T) {
	cfg := config.Config{IngestDir: t.TempDir(), EnableWatcher: false}
	w := New(cfg, &countingEnqueuer{})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
}
