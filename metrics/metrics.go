// Package metrics tracks operational counters shared by the queue, the
// ingest service and the status API.
package metrics

import "sync/atomic"

// Metrics captures shared operational stats for the ingest pipeline.
type Metrics struct {
	queueLength   int64
	queueCapacity int64

	runsSucceeded int64
	runsFailed    int64
	rowsParsed    int64
	rowsSkipped   int64
	daysMerged    int64
	filesIngested int64
}

// Snapshot provides a consistent view of the current metrics.
type Snapshot struct {
	QueueLength   int
	QueueCapacity int
	RunsSucceeded int64
	RunsFailed    int64
	RowsParsed    int64
	RowsSkipped   int64
	DaysMerged    int64
	FilesIngested int64
}

// New creates a zeroed Metrics instance.
func New() *Metrics {
	return &Metrics{}
}

// UpdateQueue records the current queue stats.
func (m *Metrics) UpdateQueue(length, capacity int) {
	atomic.StoreInt64(&m.queueLength, int64(length))
	atomic.StoreInt64(&m.queueCapacity, int64(capacity))
}

// RecordRun increments the run counters based on outcome.
func (m *Metrics) RecordRun(err error) {
	if err != nil {
		atomic.AddInt64(&m.runsFailed, 1)
		return
	}
	atomic.AddInt64(&m.runsSucceeded, 1)
}

// RecordRows accumulates parse totals from one file.
func (m *Metrics) RecordRows(parsed, skipped int) {
	atomic.AddInt64(&m.rowsParsed, int64(parsed))
	atomic.AddInt64(&m.rowsSkipped, int64(skipped))
}

// RecordMerge accumulates merged-day and processed-file counts.
func (m *Metrics) RecordMerge(days, files int) {
	atomic.AddInt64(&m.daysMerged, int64(days))
	atomic.AddInt64(&m.filesIngested, int64(files))
}

// Snapshot returns a read-only view of metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		QueueLength:   int(atomic.LoadInt64(&m.queueLength)),
		QueueCapacity: int(atomic.LoadInt64(&m.queueCapacity)),
		RunsSucceeded: atomic.LoadInt64(&m.runsSucceeded),
		RunsFailed:    atomic.LoadInt64(&m.runsFailed),
		RowsParsed:    atomic.LoadInt64(&m.rowsParsed),
		RowsSkipped:   atomic.LoadInt64(&m.rowsSkipped),
		DaysMerged:    atomic.LoadInt64(&m.daysMerged),
		FilesIngested: atomic.LoadInt64(&m.filesIngested),
	}
}
