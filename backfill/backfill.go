// Package backfill finds ingest files the run ledger has not seen yet and
// queues them for processing on startup.
package backfill

import (
	"context"
	"log"
	"sort"
	"time"
)

// Candidate is one ingest file and its ledger state.
type Candidate struct {
	Path      string
	ModTime   time.Time
	SizeBytes int64
	Processed bool
}

// Summary captures backfill execution metrics.
type Summary struct {
	TotalCandidates  int `json:"total"`
	AlreadyProcessed int `json:"already_processed"`
	Unprocessed      int `json:"unprocessed"`
	Selected         int `json:"selected"`
	Enqueued         int `json:"enqueued"`
	Dropped          int `json:"dropped"`
}

// Repository describes the data source and sink needed for backfill.
type Repository interface {
	ListCandidates(ctx context.Context) ([]Candidate, error)
	QueueCandidate(ctx context.Context, c Candidate) bool
	OnBackfillComplete(summary Summary)
}

// SelectPending returns up to limit unprocessed candidates, newest first,
// along with a summary of the candidate set.
func SelectPending(candidates []Candidate, limit int) ([]Candidate, Summary) {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ModTime.After(candidates[j].ModTime)
	})

	summary := Summary{TotalCandidates: len(candidates)}
	pending := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Processed {
			summary.AlreadyProcessed++
			continue
		}
		pending = append(pending, c)
	}

	summary.Unprocessed = len(pending)
	if limit >= 0 && limit < summary.Unprocessed {
		pending = pending[:limit]
	}
	summary.Selected = len(pending)
	return pending, summary
}

// Run executes the backfill asynchronously.
func Run(ctx context.Context, repo Repository, limit int) {
	go func() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		candidates, err := repo.ListCandidates(ctx)
		if err != nil {
			log.Printf("backfill list failed: %v", err)
			return
		}

		selected, summary := SelectPending(candidates, limit)
		for _, c := range selected {
			if repo.QueueCandidate(ctx, c) {
				summary.Enqueued++
			} else {
				summary.Dropped++
			}
		}

		log.Printf("backfill summary: total=%d unprocessed=%d selected=%d enqueued=%d dropped=%d already_processed=%d",
			summary.TotalCandidates, summary.Unprocessed, summary.Selected, summary.Enqueued, summary.Dropped, summary.AlreadyProcessed)
		repo.OnBackfillComplete(summary)
	}()
}
