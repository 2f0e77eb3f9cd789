// Package watch monitors the ingest dir for new CSV exports and enqueues
// ingest runs.
package watch

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"email_sla/config"
)

// Enqueuer accepts an ingest run request triggered by a file event.
type Enqueuer interface {
	EnqueueRun(trigger string) bool
}

// Watcher monitors the ingest dir and debounces bursts of file events into
// single runs.
type Watcher struct {
	cfg      config.Config
	enqueue  Enqueuer
	debounce time.Duration

	mu      sync.Mutex
	pending *time.Timer
}

// New returns a watcher over cfg.IngestDir.
func New(cfg config.Config, enqueue Enqueuer) *Watcher {
	return &Watcher{cfg: cfg, enqueue: enqueue, debounce: 2 * time.Second}
}

// Start begins watching. It returns immediately; events are handled on a
// background goroutine until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.cfg.EnableWatcher {
		log.Println("watcher disabled")
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-watcher.Events:
				if evt.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) != 0 && isCSV(evt.Name) {
					w.schedule(filepath.Base(evt.Name))
				}
			case err := <-watcher.Errors:
				log.Printf("watcher error: %v", err)
			}
		}
	}()
	return watcher.Add(w.cfg.IngestDir)
}

// schedule coalesces rapid event bursts so one export drop triggers one
// run.
func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounce, func() {
		trigger := "watcher:" + name
		if !w.enqueue.EnqueueRun(trigger) {
			log.Printf("watcher run for %s was not queued", name)
		}
	})
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}
