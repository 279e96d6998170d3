// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage backends selectable through STORAGE_BACKEND.
const (
	BackendS3     = "s3"
	BackendGCS    = "gcs"
	BackendAzure  = "azure"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Defaults applied by LoadFromEnv.
const (
	DefaultListenAddr        = ":8080"
	DefaultBucket            = "orders"
	DefaultFileRoot          = "data"
	DefaultQueryDatabase     = "orders_db"
	DefaultSourceTable       = "filtered_orders"
	DefaultJobDBPath         = "orders_jobs.sqlite"
	DefaultRetentionWindow   = 30 * 24 * time.Hour
	DefaultPollInterval      = 1 * time.Second
	DefaultPollTimeout       = 5 * time.Minute
	DefaultReportConcurrency = 4
	DefaultRawPrefix         = "raw/"
	DefaultProcessedPrefix   = "processed/"
	DefaultResultPrefix      = "enriched/"
)

// Config holds the configuration for the server and CLI.
type Config struct {
	Env        string // "development" (default) or "production"
	LogLevel   string // debug, info, warn, error (default "info")
	ListenAddr string // HTTP listen address (default ":8080")

	// StorageBackend selects the object store: s3, gcs, azure, file, or memory.
	StorageBackend string
	Bucket         string // bucket (or container) holding raw, processed, and result objects

	// S3 fields are nil when not configured.
	S3KeyID    *string
	S3Secret   *string
	S3Endpoint *string
	S3Region   *string
	S3URLStyle string // "path" (default) or "vhost"

	GCSKeyFile       string
	AzureAccountName string
	AzureAccountKey  string
	AzureServiceURL  string
	FileRoot         string // root directory for the file backend

	// Query engine
	QueryDatabase  string // schema the report queries run in
	SourceTable    string // view over the processed order files
	ResultLocation string // URI prefix where query results are written
	JobDBPath      string // SQLite file holding the engine job registry

	// Ingestion and report behaviour
	RetentionWindow   time.Duration
	PollInterval      time.Duration
	PollTimeout       time.Duration
	ReportConcurrency int
	ReportSchedule    string // optional cron expression
	QueriesFile       string // optional YAML query set

	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// CORS
	CORSAllowedOrigins []string

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// HasS3Config returns true if all required S3 fields are set.
func (c *Config) HasS3Config() bool {
	return c.S3KeyID != nil && c.S3Secret != nil && c.S3Region != nil
}

// StorageScheme returns the URI scheme used for locations in the configured backend.
func (c *Config) StorageScheme() string {
	switch c.StorageBackend {
	case BackendS3:
		return "s3"
	case BackendGCS:
		return "gs"
	case BackendAzure:
		return "az"
	case BackendMemory:
		return "mem"
	default:
		return "file"
	}
}

// ProcessedGlob returns a path the query engine can read the filtered order files from.
// The memory backend has no such path and returns "".
func (c *Config) ProcessedGlob() string {
	switch c.StorageBackend {
	case BackendMemory:
		return ""
	case BackendFile:
		return filepath.Join(c.FileRoot, c.Bucket, filepath.FromSlash(DefaultProcessedPrefix), "filtered_*")
	default:
		return fmt.Sprintf("%s://%s/%sfiltered_*", c.StorageScheme(), c.Bucket, DefaultProcessedPrefix)
	}
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Env:                os.Getenv("ENV"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		ListenAddr:         os.Getenv("LISTEN_ADDR"),
		StorageBackend:     strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_BACKEND"))),
		Bucket:             os.Getenv("BUCKET"),
		S3URLStyle:         os.Getenv("S3_URL_STYLE"),
		GCSKeyFile:         os.Getenv("GCS_KEY_FILE"),
		AzureAccountName:   os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:    os.Getenv("AZURE_ACCOUNT_KEY"),
		AzureServiceURL:    os.Getenv("AZURE_SERVICE_URL"),
		FileRoot:           os.Getenv("FILE_ROOT"),
		QueryDatabase:      os.Getenv("QUERY_DATABASE"),
		SourceTable:        os.Getenv("SOURCE_TABLE"),
		ResultLocation:     os.Getenv("RESULT_LOCATION"),
		JobDBPath:          os.Getenv("JOB_DB_PATH"),
		ReportSchedule:     strings.TrimSpace(os.Getenv("REPORT_SCHEDULE")),
		QueriesFile:        os.Getenv("QUERIES_FILE"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	// S3 fields are only set when present
	if v := os.Getenv("KEY_ID"); v != "" {
		cfg.S3KeyID = &v
	}
	if v := os.Getenv("SECRET"); v != "" {
		cfg.S3Secret = &v
	}
	if v := os.Getenv("ENDPOINT"); v != "" {
		cfg.S3Endpoint = &v
	}
	if v := os.Getenv("REGION"); v != "" {
		cfg.S3Region = &v
	}

	cfg.RetentionWindow = cfg.durationEnv("RETENTION_WINDOW", DefaultRetentionWindow)
	cfg.PollInterval = cfg.durationEnv("POLL_INTERVAL", DefaultPollInterval)
	cfg.PollTimeout = cfg.durationEnv("POLL_TIMEOUT", DefaultPollTimeout)
	cfg.ReportConcurrency = cfg.intEnv("REPORT_CONCURRENCY", DefaultReportConcurrency)
	cfg.RateLimitBurst = cfg.intEnv("RATE_LIMIT_BURST", 20)
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.RateLimitRPS = f
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid RATE_LIMIT_RPS %q", v))
		}
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.StorageBackend == "" {
		if cfg.HasS3Config() {
			cfg.StorageBackend = BackendS3
		} else {
			cfg.StorageBackend = BackendFile
		}
	}
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.FileRoot == "" {
		cfg.FileRoot = DefaultFileRoot
	}
	if cfg.QueryDatabase == "" {
		cfg.QueryDatabase = DefaultQueryDatabase
	}
	if cfg.SourceTable == "" {
		cfg.SourceTable = DefaultSourceTable
	}
	if cfg.JobDBPath == "" {
		cfg.JobDBPath = DefaultJobDBPath
	}
	if cfg.ResultLocation == "" {
		cfg.ResultLocation = fmt.Sprintf("%s://%s/%s", cfg.StorageScheme(), cfg.Bucket, DefaultResultPrefix)
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 10
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case BackendS3:
		if !c.HasS3Config() {
			return fmt.Errorf("STORAGE_BACKEND=s3 requires KEY_ID, SECRET, and REGION")
		}
	case BackendAzure:
		if c.AzureAccountName == "" || c.AzureAccountKey == "" {
			return fmt.Errorf("STORAGE_BACKEND=azure requires AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY")
		}
	case BackendGCS, BackendFile, BackendMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.PollTimeout < c.PollInterval {
		return fmt.Errorf("POLL_TIMEOUT (%s) must be at least POLL_INTERVAL (%s)", c.PollTimeout, c.PollInterval)
	}
	if c.ReportConcurrency < 1 {
		return fmt.Errorf("REPORT_CONCURRENCY must be at least 1")
	}

	// Production mode: insecure or ephemeral defaults are fatal errors.
	if c.IsProduction() {
		if c.StorageBackend == BackendMemory {
			return fmt.Errorf("memory storage is not allowed in production (ENV=production)")
		}
		if len(c.CORSAllowedOrigins) == 1 && c.CORSAllowedOrigins[0] == "*" {
			return fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}
	return nil
}

func (c *Config) durationEnv(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("ignoring invalid %s %q, using %s", key, v, def))
		return def
	}
	return d
}

func (c *Config) intEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("ignoring invalid %s %q, using %d", key, v, def))
		return def
	}
	return n
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Env vars take precedence
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
