// Package ingest discovers and parses the raw CSV exports and drives the
// classify-build-merge pipeline over them.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"email_sla/classifier"
	"email_sla/daily"
)

// ParseStats counts what a file yielded.
type ParseStats struct {
	Rows    int
	Skipped int
}

// dated export siblings look like 25-06-02.csv
var datedExportRe = regexp.MustCompile(`^\d{2}-\d{2}-\d{2}\.csv$`)

// DiscoverEventFiles returns the configured events file plus any dated
// export siblings in the same directory, sorted by name. Missing files are
// simply absent from the result.
func DiscoverEventFiles(dir, eventsFile string) []string {
	var files []string
	primary := filepath.Join(dir, eventsFile)
	if _, err := os.Stat(primary); err == nil {
		files = append(files, primary)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return files
	}
	for _, e := range entries {
		if e.IsDir() || !datedExportRe.MatchString(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	time.RFC3339,
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func parseDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", raw)
}

// header aliases map raw column names to canonical keys.
var eventHeaderAliases = map[string]string{
	"conversation-id": "conversation_id",
	"conversation id": "conversation_id",
	"conversationid":  "conversation_id",
	"eventtype":       "event_type",
	"event type":      "event_type",
	"timestamp":       "timestamp",
	"time stamp":      "timestamp",
	"subject":         "subject",
	"emails":          "participants",
	"participants":    "participants",
	"messageid":       "message_id",
	"message id":      "message_id",
}

var snapshotHeaderAliases = map[string]string{
	"date":            "date",
	"hour of the day": "hour",
	"hour":            "hour",
	"totalunread":     "unread",
	"total unread":    "unread",
	"unread count":    "unread",
	"title":           "title",
}

func indexHeader(header []string, aliases map[string]string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		key, ok := aliases[strings.ToLower(strings.TrimSpace(col))]
		if !ok {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

func field(row []string, idx map[string]int, key string) string {
	i, ok := idx[key]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseEventsFile reads one conversation export. Rows with a missing id,
// unknown event type or unparseable timestamp are counted and skipped.
func ParseEventsFile(path string) ([]classifier.Event, ParseStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ParseStats{}, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, ParseStats{}, fmt.Errorf("read header of %s: %w", path, err)
	}
	idx := indexHeader(header, eventHeaderAliases)
	for _, key := range []string{"conversation_id", "event_type", "timestamp"} {
		if _, ok := idx[key]; !ok {
			return nil, ParseStats{}, fmt.Errorf("%s: missing required column %q", path, key)
		}
	}

	var events []classifier.Event
	var stats ParseStats
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.Skipped++
			continue
		}
		stats.Rows++

		id := field(row, idx, "conversation_id")
		evType := normalizeEventType(field(row, idx, "event_type"))
		if id == "" || evType == "" {
			stats.Skipped++
			continue
		}
		ts, err := parseTimestamp(field(row, idx, "timestamp"))
		if err != nil {
			stats.Skipped++
			continue
		}
		events = append(events, classifier.Event{
			ConversationID: id,
			Type:           evType,
			Timestamp:      ts,
			Subject:        field(row, idx, "subject"),
			Participants:   field(row, idx, "participants"),
			MessageID:      field(row, idx, "message_id"),
		})
	}
	return events, stats, nil
}

func normalizeEventType(raw string) string {
	switch strings.ToLower(raw) {
	case "inbox":
		return classifier.TypeInbox
	case "replied":
		return classifier.TypeReplied
	case "completed":
		return classifier.TypeCompleted
	}
	return ""
}

// ParseSnapshotsFile reads the hourly unread-count export. The SLA flag is
// derived from the configured threshold. Bad rows are counted and skipped.
func ParseSnapshotsFile(path string, threshold int) ([]daily.Snapshot, ParseStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ParseStats{}, fmt.Errorf("open snapshots file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, ParseStats{}, fmt.Errorf("read header of %s: %w", path, err)
	}
	idx := indexHeader(header, snapshotHeaderAliases)
	for _, key := range []string{"date", "hour", "unread"} {
		if _, ok := idx[key]; !ok {
			return nil, ParseStats{}, fmt.Errorf("%s: missing required column %q", path, key)
		}
	}

	var snaps []daily.Snapshot
	var stats ParseStats
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.Skipped++
			continue
		}
		stats.Rows++

		date, err := parseDate(field(row, idx, "date"))
		if err != nil {
			stats.Skipped++
			continue
		}
		hour, err := strconv.Atoi(field(row, idx, "hour"))
		if err != nil || hour < 0 || hour > 23 {
			stats.Skipped++
			continue
		}
		unread, err := strconv.Atoi(field(row, idx, "unread"))
		if err != nil || unread < 0 {
			stats.Skipped++
			continue
		}
		snaps = append(snaps, daily.Snapshot{
			Date:        date,
			Hour:        hour,
			UnreadCount: unread,
			SLAMet:      unread <= threshold,
		})
	}
	return snaps, stats, nil
}
