package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var dateKeyRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDateKey reports whether s is an acceptable day key.
func ValidDateKey(s string) bool {
	if !dateKeyRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// Load reads the database from path. A missing file yields a fresh empty
// database; malformed content is an error.
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDatabase(), nil
		}
		return nil, fmt.Errorf("read database %s: %w", path, err)
	}
	db := NewDatabase()
	if err := json.Unmarshal(data, db); err != nil {
		return nil, fmt.Errorf("parse database %s: %w", path, err)
	}
	if db.Days == nil {
		db.Days = make(map[string]*DayRecord)
	}
	for date, rec := range db.Days {
		if rec == nil || !ValidDateKey(date) {
			delete(db.Days, date)
			continue
		}
		normalizeHours(rec)
	}
	return db, nil
}

// LoadOrRecover loads the database, and on parse failure moves the corrupt
// file aside into backupDir and starts over with an empty database. Only a
// parse error triggers recovery; read errors still fail.
func LoadOrRecover(path, backupDir string) (*Database, error) {
	db, err := Load(path)
	if err == nil {
		return db, nil
	}
	var jsonErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &jsonErr) && !errors.As(err, &typeErr) {
		return nil, err
	}

	stamp := time.Now().Format("20060102_150405")
	corruptPath := filepath.Join(backupDir, fmt.Sprintf("email_database_corrupted_%s.json", stamp))
	if mkErr := os.MkdirAll(backupDir, 0o755); mkErr != nil {
		return nil, fmt.Errorf("prepare backup dir for corrupt database: %w", mkErr)
	}
	if mvErr := os.Rename(path, corruptPath); mvErr != nil {
		return nil, fmt.Errorf("move corrupt database aside: %w", mvErr)
	}
	log.Printf("corrupt database moved to %s, starting fresh", corruptPath)
	return NewDatabase(), nil
}

// Save writes the database atomically: marshal to a temp file in the same
// directory, then rename into place.
func Save(db *Database, path string) error {
	refreshMetadata(db)

	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal database: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prepare database dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".email_database-*.json")
	if err != nil {
		return fmt.Errorf("create temp database file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp database file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp database file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace database file: %w", err)
	}
	return nil
}

func refreshMetadata(db *Database) {
	db.Metadata.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	db.Metadata.SchemaVersion = schemaVersion
	db.Metadata.TotalDays = len(db.Days)
	dates := db.SortedDates()
	if len(dates) > 0 {
		db.Metadata.FirstDate = dates[0]
		db.Metadata.LastDate = dates[len(dates)-1]
	} else {
		db.Metadata.FirstDate = ""
		db.Metadata.LastDate = ""
	}
}
