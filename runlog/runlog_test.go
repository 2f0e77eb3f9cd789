package runlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	id, err := l.StartRun(ctx, "manual")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if id == "" {
		t.Fatal("empty run id")
	}
	if err := l.FinishRun(ctx, id, "succeeded", "2 files"); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := l.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	r := runs[0]
	if r.ID != id || r.Trigger != "manual" || r.Status != "succeeded" || r.Note != "2 files" {
		t.Fatalf("run = %+v", r)
	}
	if r.FinishedAt == nil {
		t.Fatal("finished run should carry a finish time")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	first, _ := l.StartRun(ctx, "manual")
	l.FinishRun(ctx, first, "succeeded", "")
	second, _ := l.StartRun(ctx, "watcher")

	runs, err := l.ListRuns(ctx, 1)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != second {
		t.Fatalf("runs = %+v, want only the newest", runs)
	}
}

func TestFileProcessingTracksContent(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "25-06-02.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	done, err := l.IsFileProcessed(ctx, path)
	if err != nil {
		t.Fatalf("IsFileProcessed: %v", err)
	}
	if done {
		t.Fatal("fresh file should be unprocessed")
	}

	id, _ := l.StartRun(ctx, "manual")
	if err := l.MarkFileProcessed(ctx, id, path); err != nil {
		t.Fatalf("MarkFileProcessed: %v", err)
	}
	done, err = l.IsFileProcessed(ctx, path)
	if err != nil {
		t.Fatalf("IsFileProcessed: %v", err)
	}
	if !done {
		t.Fatal("recorded file should be processed")
	}

	// Changing the content makes the same name unprocessed again.
	if err := os.WriteFile(path, []byte("a,b\n3,4\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	done, err = l.IsFileProcessed(ctx, path)
	if err != nil {
		t.Fatalf("IsFileProcessed: %v", err)
	}
	if done {
		t.Fatal("changed content should count as unprocessed")
	}
}

func TestHealth(t *testing.T) {
	l := openTestLedger(t)
	if err := l.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
