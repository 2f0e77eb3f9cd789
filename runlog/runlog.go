// Package runlog persists the ingest run ledger: which runs happened and
// which source files each one consumed.
package runlog

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Ledger wraps SQLite access for run records.
type Ledger struct {
	db *sql.DB
}

// Open opens (and migrates) the ledger at path.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("prepare ledger dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	l := &Ledger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

func (l *Ledger) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_by TEXT,
			status TEXT,
			note TEXT,
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS source_files (
			run_id TEXT,
			name TEXT,
			sha256 TEXT,
			mod_time TIMESTAMP,
			recorded_at TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_source_files_name ON source_files(name);`,
	}
	for _, stmt := range stmts {
		if _, err := l.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Run is one recorded ingest run.
type Run struct {
	ID         string     `json:"id"`
	Trigger    string     `json:"trigger"`
	Status     string     `json:"status"`
	Note       string     `json:"note"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// StartRun records a new run and returns its id.
func (l *Ledger) StartRun(ctx context.Context, trigger string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs(id, started_by, status, started_at) VALUES(?, ?, 'running', ?)`,
		id, trigger, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun closes out a run with its final status and note.
func (l *Ledger) FinishRun(ctx context.Context, runID, status, note string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, note = ?, finished_at = ? WHERE id = ?`,
		status, note, time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}

// MarkFileProcessed records a consumed source file with its content hash
// and modification time.
func (l *Ledger) MarkFileProcessed(ctx context.Context, runID, path string) error {
	sum, modTime, err := hashFile(path)
	if err != nil {
		return fmt.Errorf("hash %s: %w", path, err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO source_files(run_id, name, sha256, mod_time, recorded_at) VALUES(?, ?, ?, ?, ?)`,
		runID, filepath.Base(path), sum, modTime.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record source file %s: %w", path, err)
	}
	return nil
}

// IsFileProcessed reports whether this exact file content has been
// consumed before. A file whose content changed counts as unprocessed.
func (l *Ledger) IsFileProcessed(ctx context.Context, path string) (bool, error) {
	sum, _, err := hashFile(path)
	if err != nil {
		return false, fmt.Errorf("hash %s: %w", path, err)
	}
	var n int
	err = l.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM source_files WHERE name = ? AND sha256 = ?`,
		filepath.Base(path), sum).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListRuns returns the most recent runs, newest first.
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, started_by, status, COALESCE(note, ''), started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Trigger, &r.Status, &r.Note, &r.StartedAt, &finished); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Health pings the underlying database.
func (l *Ledger) Health(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

func hashFile(path string) (string, time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", time.Time{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", time.Time{}, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", time.Time{}, err
	}
	return hex.EncodeToString(h.Sum(nil)), info.ModTime(), nil
}
