package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"email_sla/calendar"
	"email_sla/classifier"
	"email_sla/config"
	"email_sla/daily"
	"email_sla/metrics"
	"email_sla/store"
)

// Ledger records ingest runs and the files they consumed. Implemented by
// the sqlite run ledger; a nil ledger disables recording.
type Ledger interface {
	StartRun(ctx context.Context, trigger string) (string, error)
	FinishRun(ctx context.Context, runID, status, note string) error
	MarkFileProcessed(ctx context.Context, runID, path string) error
}

// RunSummary reports what one ingest run accomplished.
type RunSummary struct {
	RunID           string
	FilesProcessed  int
	EventsParsed    int
	SnapshotsParsed int
	RowsSkipped     int
	DaysMerged      int
	Dates           []string
}

// Service runs the classify-build-merge pipeline over the ingest dir.
type Service struct {
	cfg     config.Config
	cls     *classifier.Classifier
	builder *daily.Builder
	ledger  Ledger
	metrics *metrics.Metrics
}

// NewService wires a pipeline from configuration. Ledger and metrics may
// be nil.
func NewService(cfg config.Config, ledger Ledger, m *metrics.Metrics) *Service {
	cal := calendar.New(cfg.Hours)
	return &Service{
		cfg:     cfg,
		cls:     classifier.New(cal),
		builder: daily.New(cfg.Hours),
		ledger:  ledger,
		metrics: m,
	}
}

// ErrNoInput is returned when neither an events export nor a snapshot
// export is present in the ingest dir.
var ErrNoInput = errors.New("no input files in ingest dir")

// Run executes one full ingest pass: discover, parse, classify, build,
// merge, save, back up. The trigger names what started the run.
func (s *Service) Run(ctx context.Context, trigger string) (RunSummary, error) {
	summary, err := s.run(ctx, trigger)
	if s.metrics != nil {
		s.metrics.RecordRun(err)
	}
	return summary, err
}

func (s *Service) run(ctx context.Context, trigger string) (RunSummary, error) {
	var summary RunSummary

	eventFiles := DiscoverEventFiles(s.cfg.IngestDir, s.cfg.EventsFile)
	snapshotPath := filepath.Join(s.cfg.IngestDir, s.cfg.UnreadFile)
	haveSnapshots := fileExists(snapshotPath)
	if len(eventFiles) == 0 && !haveSnapshots {
		return summary, fmt.Errorf("%w: %s", ErrNoInput, s.cfg.IngestDir)
	}

	runID := ""
	if s.ledger != nil {
		id, err := s.ledger.StartRun(ctx, trigger)
		if err != nil {
			return summary, fmt.Errorf("start ledger run: %w", err)
		}
		runID = id
		summary.RunID = id
	}
	finish := func(status, note string) {
		if s.ledger == nil {
			return
		}
		if err := s.ledger.FinishRun(ctx, runID, status, note); err != nil {
			log.Printf("finish ledger run %s: %v", runID, err)
		}
	}

	var events []classifier.Event
	var processed []string
	for _, path := range eventFiles {
		if err := ctx.Err(); err != nil {
			finish("cancelled", err.Error())
			return summary, err
		}
		evs, stats, err := ParseEventsFile(path)
		if err != nil {
			finish("failed", err.Error())
			return summary, err
		}
		events = append(events, evs...)
		summary.EventsParsed += stats.Rows - stats.Skipped
		summary.RowsSkipped += stats.Skipped
		processed = append(processed, path)
		if s.metrics != nil {
			s.metrics.RecordRows(stats.Rows, stats.Skipped)
		}
	}

	var snaps []daily.Snapshot
	if haveSnapshots {
		parsed, stats, err := ParseSnapshotsFile(snapshotPath, s.cfg.UnreadThreshold)
		if err != nil {
			finish("failed", err.Error())
			return summary, err
		}
		snaps = parsed
		summary.SnapshotsParsed = stats.Rows - stats.Skipped
		summary.RowsSkipped += stats.Skipped
		processed = append(processed, snapshotPath)
		if s.metrics != nil {
			s.metrics.RecordRows(stats.Rows, stats.Skipped)
		}
	}

	days := s.buildDays(events, snaps)
	for date := range days {
		summary.Dates = append(summary.Dates, date)
	}

	db, err := store.LoadOrRecover(s.cfg.DatabasePath, s.cfg.BackupDir)
	if err != nil {
		finish("failed", err.Error())
		return summary, fmt.Errorf("load database: %w", err)
	}
	sources := make([]string, 0, len(processed))
	for _, p := range processed {
		sources = append(sources, filepath.Base(p))
	}
	summary.DaysMerged = store.MergeDays(db, days, sources...)
	if err := store.Save(db, s.cfg.DatabasePath); err != nil {
		finish("failed", err.Error())
		return summary, fmt.Errorf("save database: %w", err)
	}

	if err := s.backupInputs(processed); err != nil {
		log.Printf("backup inputs: %v", err)
	}
	for _, path := range processed {
		if s.ledger != nil {
			if err := s.ledger.MarkFileProcessed(ctx, runID, path); err != nil {
				log.Printf("mark file processed %s: %v", path, err)
			}
		}
	}
	summary.FilesProcessed = len(processed)
	if s.metrics != nil {
		s.metrics.RecordMerge(summary.DaysMerged, summary.FilesProcessed)
	}

	finish("succeeded", fmt.Sprintf("%d files, %d days", summary.FilesProcessed, summary.DaysMerged))
	log.Printf("ingest run complete: %d files, %d events, %d snapshots, %d skipped rows, %d days merged",
		summary.FilesProcessed, summary.EventsParsed, summary.SnapshotsParsed, summary.RowsSkipped, summary.DaysMerged)
	return summary, nil
}

// buildDays groups classified records and snapshots by date and assembles
// one record per date seen in either source.
func (s *Service) buildDays(events []classifier.Event, snaps []daily.Snapshot) map[string]*store.DayRecord {
	records := s.cls.Classify(events)

	recordsByDate := make(map[string][]classifier.Record)
	for _, rec := range records {
		date := rec.Inbox.Timestamp.Format("2006-01-02")
		recordsByDate[date] = append(recordsByDate[date], rec)
	}
	snapsByDate := make(map[string][]daily.Snapshot)
	for _, snap := range snaps {
		snapsByDate[snap.Date] = append(snapsByDate[snap.Date], snap)
	}

	days := make(map[string]*store.DayRecord)
	for date, recs := range recordsByDate {
		days[date] = s.builder.Build(date, recs, snapsByDate[date])
	}
	for date, daySnaps := range snapsByDate {
		if _, done := days[date]; done {
			continue
		}
		days[date] = s.builder.Build(date, nil, daySnaps)
	}
	return days
}

// backupInputs copies the processed files into a timestamped subdirectory
// of the backup dir.
func (s *Service) backupInputs(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	dir := filepath.Join(s.cfg.BackupDir, time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, path := range paths {
		if err := copyFile(path, filepath.Join(dir, filepath.Base(path))); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
