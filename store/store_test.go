package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }

func emailDay(date string) *DayRecord {
	rec := NewDayRecord(date)
	rec.HasEmailData = true
	rec.DailySummary.TotalEmails = 10
	rec.DailySummary.EmailsReplied = 8
	rec.DailySummary.EmailsCompleted = 1
	rec.DailySummary.EmailsPending = 1
	rec.DailySummary.ReplyRatePercent = 80
	rec.DailySummary.ResolutionRatePercent = 90
	rec.DailySummary.AvgResponseTimeMinutes = floatPtr(42.5)
	rec.DailySummary.MedianResponseTimeMinutes = floatPtr(30)
	rec.HourlyData[9].EmailsReceived = 4
	rec.HourlyData[9].EmailsReplied = 3
	rec.HourlyData[9].AvgResponseTime = floatPtr(35)
	return rec
}

func slaDay(date string) *DayRecord {
	rec := NewDayRecord(date)
	rec.HasSLAData = true
	rec.DailySummary.SLAComplianceRate = floatPtr(92.3)
	rec.DailySummary.AvgUnreadCount = floatPtr(12.1)
	rec.HourlyData[9].UnreadCount = intPtr(14)
	rec.HourlyData[9].SLAMet = boolPtr(true)
	return rec
}

func TestNewDayRecordHas24Slots(t *testing.T) {
	rec := NewDayRecord("2025-06-02")
	if len(rec.HourlyData) != 24 {
		t.Fatalf("got %d slots, want 24", len(rec.HourlyData))
	}
	for h, slot := range rec.HourlyData {
		if slot.Hour != h {
			t.Fatalf("slot %d carries hour %d", h, slot.Hour)
		}
		if slot.UnreadCount != nil || slot.SLAMet != nil || slot.AvgResponseTime != nil {
			t.Fatalf("slot %d should start empty", h)
		}
	}
}

func TestMergeCreatesFullyInitializedDay(t *testing.T) {
	db := NewDatabase()
	in := emailDay("2025-06-02")
	if n := MergeDays(db, map[string]*DayRecord{"2025-06-02": in}, "events.csv"); n != 1 {
		t.Fatalf("merged %d, want 1", n)
	}
	rec, ok := db.Day("2025-06-02")
	if !ok {
		t.Fatal("day missing after merge")
	}
	if len(rec.HourlyData) != 24 {
		t.Fatalf("got %d slots, want 24", len(rec.HourlyData))
	}
	if !rec.HasEmailData || rec.HasSLAData {
		t.Fatalf("flags = email:%v sla:%v, want email only", rec.HasEmailData, rec.HasSLAData)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	db := NewDatabase()
	in := map[string]*DayRecord{"2025-06-02": emailDay("2025-06-02")}
	MergeDays(db, in, "events.csv")
	first, err := json.Marshal(db.Days)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	MergeDays(db, in, "events.csv")
	second, err := json.Marshal(db.Days)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Fatal("merging the same input twice changed the database")
	}
}

func TestMergeSLAOnlyDoesNotTouchEmailFields(t *testing.T) {
	db := NewDatabase()
	MergeDays(db, map[string]*DayRecord{"2025-06-02": emailDay("2025-06-02")})
	MergeDays(db, map[string]*DayRecord{"2025-06-02": slaDay("2025-06-02")})

	rec, _ := db.Day("2025-06-02")
	if !rec.HasEmailData || !rec.HasSLAData {
		t.Fatalf("flags = email:%v sla:%v, want both", rec.HasEmailData, rec.HasSLAData)
	}
	if rec.DailySummary.TotalEmails != 10 {
		t.Fatalf("total emails = %d, want 10 untouched", rec.DailySummary.TotalEmails)
	}
	if rec.DailySummary.AvgResponseTimeMinutes == nil || *rec.DailySummary.AvgResponseTimeMinutes != 42.5 {
		t.Fatal("avg response time should survive an SLA-only merge")
	}
	if rec.DailySummary.SLAComplianceRate == nil || *rec.DailySummary.SLAComplianceRate != 92.3 {
		t.Fatal("sla compliance rate missing after merge")
	}
	if rec.HourlyData[9].EmailsReceived != 4 {
		t.Fatal("hourly email counters should survive an SLA-only merge")
	}
	if rec.HourlyData[9].UnreadCount == nil || *rec.HourlyData[9].UnreadCount != 14 {
		t.Fatal("hourly unread count missing after merge")
	}
}

func TestMergeEmailGroupOverwritesIncludingNilAvg(t *testing.T) {
	db := NewDatabase()
	MergeDays(db, map[string]*DayRecord{"2025-06-02": emailDay("2025-06-02")})

	// Re-run with corrected data: no replies that day.
	rerun := NewDayRecord("2025-06-02")
	rerun.HasEmailData = true
	rerun.DailySummary.TotalEmails = 3
	rerun.DailySummary.EmailsPending = 3
	MergeDays(db, map[string]*DayRecord{"2025-06-02": rerun})

	rec, _ := db.Day("2025-06-02")
	if rec.DailySummary.TotalEmails != 3 {
		t.Fatalf("total emails = %d, want 3", rec.DailySummary.TotalEmails)
	}
	if rec.DailySummary.AvgResponseTimeMinutes != nil {
		t.Fatal("avg response time should be cleared by an email re-run with no replies")
	}
}

func TestMergeFlagsAreMonotonic(t *testing.T) {
	db := NewDatabase()
	MergeDays(db, map[string]*DayRecord{"2025-06-02": slaDay("2025-06-02")})
	// An email-only merge must not clear the SLA flag.
	MergeDays(db, map[string]*DayRecord{"2025-06-02": emailDay("2025-06-02")})

	rec, _ := db.Day("2025-06-02")
	if !rec.HasSLAData || !rec.HasEmailData {
		t.Fatalf("flags = email:%v sla:%v, want both set", rec.HasEmailData, rec.HasSLAData)
	}
}

func TestMergeRejectsBadDateKeys(t *testing.T) {
	db := NewDatabase()
	in := map[string]*DayRecord{
		"06/02/2025": NewDayRecord("06/02/2025"),
		"2025-13-40": NewDayRecord("2025-13-40"),
	}
	if n := MergeDays(db, in); n != 0 {
		t.Fatalf("merged %d, want 0", n)
	}
	if len(db.Days) != 0 {
		t.Fatalf("database has %d days, want 0", len(db.Days))
	}
}

func TestMergeNormalizesShortHourly(t *testing.T) {
	db := NewDatabase()
	in := &DayRecord{
		Date:       "2025-06-02",
		HasSLAData: true,
		HourlyData: []HourSlot{{Hour: 9, UnreadCount: intPtr(5)}},
	}
	MergeDays(db, map[string]*DayRecord{"2025-06-02": in})
	rec, _ := db.Day("2025-06-02")
	if len(rec.HourlyData) != 24 {
		t.Fatalf("got %d slots, want 24", len(rec.HourlyData))
	}
	if rec.HourlyData[9].UnreadCount == nil || *rec.HourlyData[9].UnreadCount != 5 {
		t.Fatal("normalization lost the hour 9 reading")
	}
}

func TestMetadataTracksDateRangeAndSources(t *testing.T) {
	db := NewDatabase()
	MergeDays(db, map[string]*DayRecord{
		"2025-06-04": emailDay("2025-06-04"),
		"2025-06-02": emailDay("2025-06-02"),
	}, "events.csv", "unread.csv")
	MergeDays(db, map[string]*DayRecord{"2025-06-03": emailDay("2025-06-03")}, "events.csv")

	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	if err := Save(db, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if db.Metadata.TotalDays != 3 {
		t.Fatalf("total days = %d, want 3", db.Metadata.TotalDays)
	}
	if db.Metadata.FirstDate != "2025-06-02" || db.Metadata.LastDate != "2025-06-04" {
		t.Fatalf("range = %s..%s", db.Metadata.FirstDate, db.Metadata.LastDate)
	}
	want := []string{"events.csv", "unread.csv"}
	if len(db.Metadata.DataSources) != 2 || db.Metadata.DataSources[0] != want[0] || db.Metadata.DataSources[1] != want[1] {
		t.Fatalf("sources = %v, want %v", db.Metadata.DataSources, want)
	}
}

func TestSaveWritesDocumentedMetadataKeys(t *testing.T) {
	db := NewDatabase()
	MergeDays(db, map[string]*DayRecord{
		"2025-06-02": emailDay("2025-06-02"),
		"2025-06-04": emailDay("2025-06-04"),
	}, "events.csv")

	path := filepath.Join(t.TempDir(), "db.json")
	if err := Save(db, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	for _, key := range []string{`"total_days_processed"`, `"earliest_date"`, `"latest_date"`, `"last_updated"`, `"data_sources"`} {
		if !strings.Contains(string(raw), key) {
			t.Fatalf("saved document missing metadata key %s", key)
		}
	}
}

func TestLoadReadsMetadataFromOlderStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	doc := `{
		"metadata": {
			"last_updated": "2025-06-05T08:00:00",
			"total_days_processed": 2,
			"earliest_date": "2025-06-02",
			"latest_date": "2025-06-04",
			"data_sources": ["events.csv"],
			"schema_version": 1
		},
		"days": {}
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write store: %v", err)
	}
	db, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if db.Metadata.TotalDays != 2 {
		t.Fatalf("total days = %d, want 2", db.Metadata.TotalDays)
	}
	if db.Metadata.FirstDate != "2025-06-02" || db.Metadata.LastDate != "2025-06-04" {
		t.Fatalf("range = %s..%s", db.Metadata.FirstDate, db.Metadata.LastDate)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	db := NewDatabase()
	MergeDays(db, map[string]*DayRecord{"2025-06-02": emailDay("2025-06-02")})
	MergeDays(db, map[string]*DayRecord{"2025-06-02": slaDay("2025-06-02")})

	path := filepath.Join(t.TempDir(), "db.json")
	if err := Save(db, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rec, ok := loaded.Day("2025-06-02")
	if !ok {
		t.Fatal("day missing after roundtrip")
	}
	if rec.DailySummary.TotalEmails != 10 {
		t.Fatalf("total emails = %d, want 10", rec.DailySummary.TotalEmails)
	}
	if rec.HourlyData[9].UnreadCount == nil || *rec.HourlyData[9].UnreadCount != 14 {
		t.Fatal("hourly unread count lost in roundtrip")
	}
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	db, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(db.Days) != 0 {
		t.Fatalf("got %d days, want empty database", len(db.Days))
	}
}

func TestLoadOrRecoverMovesCorruptFileAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	backups := filepath.Join(dir, "backup")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	db, err := LoadOrRecover(path, backups)
	if err != nil {
		t.Fatalf("LoadOrRecover: %v", err)
	}
	if len(db.Days) != 0 {
		t.Fatal("recovered database should be empty")
	}
	entries, err := os.ReadDir(backups)
	if err != nil {
		t.Fatalf("read backup dir: %v", err)
	}
	found := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "email_database_corrupted_") {
			found = true
		}
	}
	if !found {
		t.Fatal("corrupt file was not moved into the backup dir")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("corrupt file should be gone from the database path")
	}
}

func TestValidDateKey(t *testing.T) {
	good := []string{"2025-06-02", "1999-12-31"}
	bad := []string{"2025-6-2", "2025-13-01", "2025-06-32", "junk", ""}
	for _, k := range good {
		if !ValidDateKey(k) {
			t.Fatalf("%q should be valid", k)
		}
	}
	for _, k := range bad {
		if ValidDateKey(k) {
			t.Fatalf("%q should be invalid", k)
		}
	}
}
