// Package queue serializes ingest runs: a bounded queue drained by a
// single worker, so two runs never touch the database concurrently.
package queue

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Run encapsulates one queued ingest run.
type Run struct {
	ID       string
	Trigger  string
	Work     func(context.Context) error
	OnFinish func(error)
}

// Stats exposes current queue metrics.
type Stats struct {
	Length    int
	Capacity  int
	Processed uint64
	Failed    uint64
	Dropped   uint64
}

// Queue is a bounded run queue with a single draining worker.
type Queue struct {
	runs      chan Run
	timeout   time.Duration
	started   bool
	mu        sync.RWMutex
	wg        sync.WaitGroup
	processed uint64
	failed    uint64
	dropped   uint64
}

// New creates a Queue with the provided capacity and per-run timeout.
func New(capacity int, timeout time.Duration) *Queue {
	return &Queue{
		runs:    make(chan Run, capacity),
		timeout: timeout,
	}
}

// Start launches the worker.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()
	q.wg.Add(1)
	go q.worker(ctx)
}

// Enqueue attempts to queue a run without blocking. Returns false when the
// queue is full or not started; full-queue drops are counted.
func (q *Queue) Enqueue(r Run) bool {
	q.mu.RLock()
	started := q.started
	q.mu.RUnlock()
	if !started {
		log.Printf("enqueue called before queue started for run %s", r.ID)
		return false
	}
	select {
	case q.runs <- r:
		return true
	default:
		atomic.AddUint64(&q.dropped, 1)
		log.Printf("run queue full, dropping run %s (trigger=%s)", r.ID, r.Trigger)
		return false
	}
}

// Stop stops accepting new runs and waits for the worker to drain until
// the context is done.
func (q *Queue) Stop(ctx context.Context) {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	if q.runs != nil {
		close(q.runs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Stats returns current queue metrics.
func (q *Queue) Stats() Stats {
	q.mu.RLock()
	defer q.mu.RUnlock()
	length := 0
	if q.runs != nil {
		length = len(q.runs)
	}
	return Stats{
		Length:    length,
		Capacity:  cap(q.runs),
		Processed: atomic.LoadUint64(&q.processed),
		Failed:    atomic.LoadUint64(&q.failed),
		Dropped:   atomic.LoadUint64(&q.dropped),
	}
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-q.runs:
			if !ok {
				return
			}
			q.handle(ctx, r)
		}
	}
}

func (q *Queue) handle(ctx context.Context, r Run) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("run %s panic recovered: %v", r.ID, rec)
			atomic.AddUint64(&q.processed, 1)
			atomic.AddUint64(&q.failed, 1)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, q.timeout)
	err := r.Work(runCtx)
	cancel()
	atomic.AddUint64(&q.processed, 1)
	if err != nil {
		atomic.AddUint64(&q.failed, 1)
	}
	if r.OnFinish != nil {
		r.OnFinish(err)
	}
	status := "success"
	if err != nil {
		status = err.Error()
	}
	log.Printf("run_trigger=%s run=%s duration_ms=%d status=%s", r.Trigger, r.ID, time.Since(start).Milliseconds(), status)
}

// Healthy returns true if the queue has been started.
func (q *Queue) Healthy() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.started
}
