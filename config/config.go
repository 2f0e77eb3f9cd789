package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds pipeline configuration from the SLA config file and environment.
type Config struct {
	IngestDir       string
	BackupDir       string
	DatabasePath    string
	LedgerPath      string
	DailyOutputDir  string
	WeeklyOutputDir string
	EventsFile      string
	UnreadFile      string
	HTTPPort        string
	QueueSize       int
	RunTimeoutSec   int
	BackfillLimit   int
	EnableWatcher   bool
	StrictConfig    bool

	UnreadThreshold int
	Hours           BusinessHours
	Targets         KPITargets
}

// BusinessHours describes the configured business window.
// Weekday indices follow the SLA config convention: 0=Monday .. 6=Sunday.
type BusinessHours struct {
	StartHour    int
	EndHour      int
	BusinessDays []int
}

// KPITargets carries dashboard target lines.
type KPITargets struct {
	ResponseTimeTargetMinutes  float64
	SLAComplianceTargetPercent float64
}

type fileConfig struct {
	SLAThresholds struct {
		UnreadEmailThreshold *int `json:"unread_email_threshold" yaml:"unread_email_threshold"`
		BusinessHours        struct {
			StartHour    *int  `json:"start_hour" yaml:"start_hour"`
			EndHour      *int  `json:"end_hour" yaml:"end_hour"`
			BusinessDays []int `json:"business_days" yaml:"business_days"`
		} `json:"business_hours" yaml:"business_hours"`
	} `json:"sla_thresholds" yaml:"sla_thresholds"`
	KPITargets struct {
		ResponseTimeTargetMinutes  *float64 `json:"response_time_target_minutes" yaml:"response_time_target_minutes"`
		SLAComplianceTargetPercent *float64 `json:"sla_compliance_target_percent" yaml:"sla_compliance_target_percent"`
	} `json:"kpi_targets" yaml:"kpi_targets"`
	Paths struct {
		IngestDir       string `json:"ingest_dir" yaml:"ingest_dir"`
		BackupDir       string `json:"backup_dir" yaml:"backup_dir"`
		DatabasePath    string `json:"database_path" yaml:"database_path"`
		LedgerPath      string `json:"ledger_path" yaml:"ledger_path"`
		DailyOutputDir  string `json:"daily_output_dir" yaml:"daily_output_dir"`
		WeeklyOutputDir string `json:"weekly_output_dir" yaml:"weekly_output_dir"`
	} `json:"paths" yaml:"paths"`
}

const (
	defaultThreshold     = 30
	defaultStartHour     = 7
	defaultEndHour       = 21
	defaultIngestDir     = "data/ingest"
	defaultBackupDir     = "data/backup"
	defaultDatabaseFile  = "database/email_database.json"
	defaultLedgerFile    = "database/ingest_ledger.db"
	defaultDailyOutput   = "dashboard/output"
	defaultWeeklyOutput  = "dashboard/weekly"
	defaultEventsFile    = "Complete_List_Raw.csv"
	defaultUnreadFile    = "UnreadCount.csv"
	defaultPort          = ":8085"
	defaultQueueSize     = 32
	defaultRunTimeoutSec = 300
	defaultBackfillLimit = 50
)

func defaultBusinessDays() []int { return []int{0, 1, 2, 3, 4, 5, 6} }

// Load reads the SLA config file (yaml or json) and applies environment
// overrides. When the file is missing or malformed the documented fallback
// configuration is used unless STRICT_CONFIG is set.
func Load() (Config, error) {
	loadDotEnv()

	cfg := Config{
		IngestDir:       defaultIngestDir,
		BackupDir:       defaultBackupDir,
		DatabasePath:    defaultDatabaseFile,
		LedgerPath:      defaultLedgerFile,
		DailyOutputDir:  defaultDailyOutput,
		WeeklyOutputDir: defaultWeeklyOutput,
		EventsFile:      defaultEventsFile,
		UnreadFile:      defaultUnreadFile,
		HTTPPort:        defaultPort,
		QueueSize:       defaultQueueSize,
		RunTimeoutSec:   defaultRunTimeoutSec,
		BackfillLimit:   defaultBackfillLimit,
		EnableWatcher:   parseBoolEnvDefault("ENABLE_WATCHER", true),
		StrictConfig:    parseBoolEnv("STRICT_CONFIG"),
		UnreadThreshold: defaultThreshold,
		Hours: BusinessHours{
			StartHour:    defaultStartHour,
			EndHour:      defaultEndHour,
			BusinessDays: defaultBusinessDays(),
		},
		Targets: KPITargets{
			ResponseTimeTargetMinutes:  60,
			SLAComplianceTargetPercent: 85,
		},
	}

	configPath := getEnv("SLA_CONFIG_PATH", filepath.Join("config", "sla_config.yaml"))
	fileCfg, fileErr := loadFileConfig(configPath)
	if fileErr != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("config load failed (%s): %w", configPath, fileErr)
		}
		log.Printf("config load failed (%s): %v (using fallback SLA configuration)", configPath, fileErr)
	} else {
		applyFileConfig(&cfg, fileCfg)
	}

	cfg.IngestDir = firstNonEmpty(os.Getenv("INGEST_DIR"), cfg.IngestDir)
	cfg.BackupDir = firstNonEmpty(os.Getenv("BACKUP_DIR"), cfg.BackupDir)
	cfg.DatabasePath = firstNonEmpty(os.Getenv("DATABASE_PATH"), cfg.DatabasePath)
	cfg.LedgerPath = firstNonEmpty(os.Getenv("LEDGER_PATH"), cfg.LedgerPath)
	cfg.DailyOutputDir = firstNonEmpty(os.Getenv("DAILY_OUTPUT_DIR"), cfg.DailyOutputDir)
	cfg.WeeklyOutputDir = firstNonEmpty(os.Getenv("WEEKLY_OUTPUT_DIR"), cfg.WeeklyOutputDir)
	cfg.EventsFile = firstNonEmpty(os.Getenv("EVENTS_FILE"), cfg.EventsFile)
	cfg.UnreadFile = firstNonEmpty(os.Getenv("UNREAD_FILE"), cfg.UnreadFile)

	cfg.HTTPPort = firstNonEmpty(os.Getenv("HTTP_PORT"), cfg.HTTPPort)
	if !strings.HasPrefix(cfg.HTTPPort, ":") {
		cfg.HTTPPort = ":" + cfg.HTTPPort
	}

	if v, ok, err := parseIntEnv("UNREAD_THRESHOLD"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid UNREAD_THRESHOLD: %w", err)
		}
		log.Printf("invalid UNREAD_THRESHOLD: %v (using %d)", err, cfg.UnreadThreshold)
	} else if ok && v >= 0 {
		cfg.UnreadThreshold = v
	}
	if v, ok, err := parseIntEnv("QUEUE_SIZE"); err == nil && ok && v > 0 {
		cfg.QueueSize = v
	}
	if v, ok, err := parseIntEnv("RUN_TIMEOUT_SEC"); err == nil && ok && v > 0 {
		cfg.RunTimeoutSec = v
	}
	if v, ok, err := parseIntEnv("BACKFILL_LIMIT"); err == nil && ok && v > 0 {
		cfg.BackfillLimit = v
	}

	if err := validate(cfg); err != nil {
		if cfg.StrictConfig {
			return cfg, err
		}
		log.Printf("config validation failed: %v (continuing)", err)
	}
	return cfg, nil
}

func applyFileConfig(cfg *Config, file fileConfig) {
	if file.SLAThresholds.UnreadEmailThreshold != nil && *file.SLAThresholds.UnreadEmailThreshold >= 0 {
		cfg.UnreadThreshold = *file.SLAThresholds.UnreadEmailThreshold
	}
	bh := file.SLAThresholds.BusinessHours
	if bh.StartHour != nil {
		cfg.Hours.StartHour = clampHour(*bh.StartHour)
	}
	if bh.EndHour != nil {
		cfg.Hours.EndHour = clampHour(*bh.EndHour)
	}
	if len(bh.BusinessDays) > 0 {
		days := make([]int, 0, len(bh.BusinessDays))
		for _, d := range bh.BusinessDays {
			if d >= 0 && d <= 6 {
				days = append(days, d)
			}
		}
		if len(days) > 0 {
			cfg.Hours.BusinessDays = days
		}
	}
	if file.KPITargets.ResponseTimeTargetMinutes != nil && *file.KPITargets.ResponseTimeTargetMinutes > 0 {
		cfg.Targets.ResponseTimeTargetMinutes = *file.KPITargets.ResponseTimeTargetMinutes
	}
	if file.KPITargets.SLAComplianceTargetPercent != nil && *file.KPITargets.SLAComplianceTargetPercent > 0 {
		cfg.Targets.SLAComplianceTargetPercent = *file.KPITargets.SLAComplianceTargetPercent
	}
	p := file.Paths
	cfg.IngestDir = firstNonEmpty(p.IngestDir, cfg.IngestDir)
	cfg.BackupDir = firstNonEmpty(p.BackupDir, cfg.BackupDir)
	cfg.DatabasePath = firstNonEmpty(p.DatabasePath, cfg.DatabasePath)
	cfg.LedgerPath = firstNonEmpty(p.LedgerPath, cfg.LedgerPath)
	cfg.DailyOutputDir = firstNonEmpty(p.DailyOutputDir, cfg.DailyOutputDir)
	cfg.WeeklyOutputDir = firstNonEmpty(p.WeeklyOutputDir, cfg.WeeklyOutputDir)
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("empty config file")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	return cfg, err
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.IngestDir) == "" {
		return errors.New("ingest dir is required")
	}
	if strings.TrimSpace(cfg.DatabasePath) == "" {
		return errors.New("database path is required")
	}
	if cfg.Hours.StartHour < 0 || cfg.Hours.StartHour > 23 {
		return fmt.Errorf("start_hour out of range: %d", cfg.Hours.StartHour)
	}
	if cfg.Hours.EndHour < 0 || cfg.Hours.EndHour > 23 {
		return fmt.Errorf("end_hour out of range: %d", cfg.Hours.EndHour)
	}
	if cfg.Hours.EndHour <= cfg.Hours.StartHour {
		return fmt.Errorf("end_hour must be after start_hour (%d..%d)", cfg.Hours.StartHour, cfg.Hours.EndHour)
	}
	if len(cfg.Hours.BusinessDays) == 0 {
		return errors.New("business_days must not be empty")
	}
	if cfg.UnreadThreshold < 0 {
		return fmt.Errorf("unread threshold must not be negative: %d", cfg.UnreadThreshold)
	}
	return nil
}

// WeekdayIndex maps a time to the SLA config weekday convention (0=Monday).
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsBusinessDay reports whether t falls on a configured business day.
func (b BusinessHours) IsBusinessDay(t time.Time) bool {
	idx := WeekdayIndex(t)
	for _, d := range b.BusinessDays {
		if d == idx {
			return true
		}
	}
	return false
}

// ContainsHour reports whether an hour-of-day reading falls inside the
// business window. The end hour is inclusive, matching how hourly unread
// snapshots are scoped.
func (b BusinessHours) ContainsHour(hour int) bool {
	return hour >= b.StartHour && hour <= b.EndHour
}

func clampHour(h int) int {
	if h < 0 {
		return 0
	}
	if h > 23 {
		return 23
	}
	return h
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return defaultVal
	}
	return parseBoolEnv(key)
}

func parseIntEnv(key string) (int, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	val, err := strconv.Atoi(raw)
	return val, true, err
}
