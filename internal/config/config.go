// Package config centralizes pipeline configuration. All tunables are
// sourced from command-line flags with environment-variable fallbacks
// (12-factor friendly), so the same binary drives local runs, containers
// and CI without code changes.
//
// Typical usage:
//
//	cfg := config.Load() // reads os.Args and os.Environ
//
// For tests, prefer LoadFromArgs to keep them hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	getenv := func(k string) string { return testEnv[k] }
//	cfg := config.LoadFromArgs(fs, getenv, []string{"-page_size=1000"})
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Stage names accepted by -stage. StageRun executes the whole pipeline in
// order.
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageLoad      = "load"
	StageDerive    = "derive"
	StageRun       = "run"
)

// Config holds all process configuration derived from flags and environment
// variables. All fields are plain values, so the struct can be copied and
// read across goroutines after construction.
type Config struct {
	// Stage selects which part of the pipeline to execute.
	Stage string

	// Source describes the Socrata export feeding the extract stage.
	SourceURL   string        // CSV resource URL of the dataset.
	AppToken    string        // Optional Socrata app token for higher rate limits.
	StartDate   string        // Inclusive window start, YYYY-MM-DD.
	EndDate     string        // Inclusive window end, YYYY-MM-DD.
	PageSize    int           // Rows requested per page and stored per chunk.
	HTTPTimeout time.Duration // Per-request timeout against the source API.
	MaxRetries  int           // Retries per page on transient fetch failures.

	// StartOffset resumes an interrupted extraction at the given row offset.
	StartOffset int64

	// Chunk spool location and retention.
	WorkDir    string // Root directory for raw/clean chunk stages.
	KeepChunks bool   // Keep chunk files after the next stage consumed them.

	TransformWorkers int // Parallel chunk conversions during transform.

	// Target database. DSN wins when set; for Postgres it can also be
	// assembled from the discrete parts below.
	StorageKind string // Storage backend: "postgres" or "sqlite".
	DSN         string // Full connection string (or SQLite file path).
	DBUser      string
	DBPassword  string
	DBHost      string
	DBPort      string
	DBName      string

	StagingTable string // Flat landing table filled by the load stage.
	BatchSize    int    // Rows per insert batch during load.

	// Metrics selects the metrics sink: "none", "pushgateway" or "datadog".
	MetricsBackend string
	PushgatewayURL string
	DogstatsdAddr  string

	ValidateOnly bool // Print validation results and exit.
	Verbose      bool // Chattier logging.
}

// RawDir is the directory the extract stage spools raw chunks into.
func (c *Config) RawDir() string { return filepath.Join(c.WorkDir, "raw") }

// CleanDir is the directory the transform stage writes clean chunks into.
func (c *Config) CleanDir() string { return filepath.Join(c.WorkDir, "clean") }

// RejectPath is the CSV file null-key rows are diverted to during load.
func (c *Config) RejectPath() string { return filepath.Join(c.WorkDir, "rejected_rows.csv") }

// ResolveDSN returns the connection string for the selected backend. An
// explicit DSN always wins; otherwise Postgres assembles one from the
// discrete parts and SQLite defaults to a database file under WorkDir.
func (c *Config) ResolveDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.StorageKind == "sqlite" {
		return filepath.Join(c.WorkDir, "etl.db")
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// LoadFromArgs builds a Config by defining flags on fs, wiring each flag to
// an environment-variable fallback via getenv, and then parsing args.
//
// Precedence:
//  1. Environment values seed each flag's default.
//  2. Explicit CLI flags (in args) override the seeded defaults.
//
// The returned Config is fully populated; no further mutation occurs.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) *Config {
	cfg := &Config{}

	// Inline helpers use the provided getenv so tests never touch the
	// process environment.
	envOrDefaultFn := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	intEnvOrDefaultFn := func(k string, d int) int {
		if v := getenv(k); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
		return d
	}
	boolEnvOrDefaultFn := func(k string, d bool) bool {
		if v := strings.ToLower(getenv(k)); v != "" {
			switch v {
			case "1", "true", "yes", "on":
				return true
			case "0", "false", "no", "off":
				return false
			}
		}
		return d
	}
	durationEnvOrDefaultFn := func(k string, d time.Duration) time.Duration {
		if v := getenv(k); v != "" {
			if dur, err := time.ParseDuration(v); err == nil {
				return dur
			}
		}
		return d
	}

	fs.StringVar(&cfg.Stage, "stage", envOrDefaultFn("ETL_STAGE", StageRun),
		"Pipeline stage to execute: extract, transform, load, derive or run")

	// Source window
	fs.StringVar(&cfg.SourceURL, "source_url",
		envOrDefaultFn("IOWA_LIQUOR_API", "https://data.iowa.gov/resource/m3tr-qhgy.csv"),
		"CSV resource URL of the Socrata dataset")
	fs.StringVar(&cfg.AppToken, "app_token", getenv("SOCRATA_APP_TOKEN"),
		"Socrata app token (optional, raises rate limits)")
	fs.StringVar(&cfg.StartDate, "start_date", envOrDefaultFn("START_DATE", "2020-01-01"),
		"Inclusive window start, YYYY-MM-DD")
	fs.StringVar(&cfg.EndDate, "end_date", envOrDefaultFn("END_DATE", "2025-06-30"),
		"Inclusive window end, YYYY-MM-DD")
	fs.IntVar(&cfg.PageSize, "page_size", intEnvOrDefaultFn("CHUNK_ROWS", 50000),
		"Rows per page request; one page becomes one chunk")
	fs.DurationVar(&cfg.HTTPTimeout, "http_timeout", durationEnvOrDefaultFn("HTTP_TIMEOUT", 60*time.Second),
		"Per-request timeout against the source API")
	fs.IntVar(&cfg.MaxRetries, "max_retries", intEnvOrDefaultFn("MAX_RETRIES", 3),
		"Retries per page on transient fetch failures")
	fs.Int64Var(&cfg.StartOffset, "start_offset", 0,
		"Resume an interrupted extraction at this row offset")

	// Chunk spool
	fs.StringVar(&cfg.WorkDir, "work_dir", envOrDefaultFn("TMP_DIR", "/tmp/iowa_liquor_etl"),
		"Root directory for chunk stages and the reject file")
	fs.BoolVar(&cfg.KeepChunks, "keep_chunks", boolEnvOrDefaultFn("KEEP_CHUNKS", true),
		"Keep chunk files after the next stage consumed them")
	fs.IntVar(&cfg.TransformWorkers, "transform_workers", intEnvOrDefaultFn("TRANSFORM_WORKERS", 4),
		"Parallel chunk conversions during transform")

	// DB connectivity
	fs.StringVar(&cfg.StorageKind, "storage", envOrDefaultFn("ETL_STORAGE", "postgres"),
		"Storage backend: 'postgres' or 'sqlite'")
	fs.StringVar(&cfg.DSN, "dsn", getenv("DATABASE_URL"),
		"Full connection string; overrides the discrete db_* parts")
	fs.StringVar(&cfg.DBUser, "db_user", envOrDefaultFn("POSTGRES_USER", "postgres"), "DB user")
	fs.StringVar(&cfg.DBPassword, "db_password", envOrDefaultFn("POSTGRES_PASSWORD", "postgres"), "DB password")
	fs.StringVar(&cfg.DBHost, "db_host", envOrDefaultFn("POSTGRES_HOST", "localhost"), "DB host")
	fs.StringVar(&cfg.DBPort, "db_port", envOrDefaultFn("POSTGRES_PORT", "5432"), "DB port")
	fs.StringVar(&cfg.DBName, "db_name", envOrDefaultFn("POSTGRES_DB", "iowa"), "DB name")
	fs.StringVar(&cfg.StagingTable, "staging_table", envOrDefaultFn("STAGING_TABLE", "iowa_liquor_sales"),
		"Flat landing table filled by the load stage")
	fs.IntVar(&cfg.BatchSize, "batch_size", intEnvOrDefaultFn("BATCH_SIZE", 10000),
		"Rows per insert batch during load")

	// Metrics
	fs.StringVar(&cfg.MetricsBackend, "metrics_backend", envOrDefaultFn("METRICS_BACKEND", "none"),
		"Metrics sink: 'none', 'pushgateway' or 'datadog'")
	fs.StringVar(&cfg.PushgatewayURL, "pushgateway_url", getenv("PUSHGATEWAY_URL"),
		"Prometheus Pushgateway base URL (required for -metrics_backend=pushgateway)")
	fs.StringVar(&cfg.DogstatsdAddr, "dogstatsd_addr", envOrDefaultFn("DOGSTATSD_ADDR", "127.0.0.1:8125"),
		"DogStatsD agent address for -metrics_backend=datadog")

	fs.BoolVar(&cfg.ValidateOnly, "validate", false, "Validate the configuration and exit")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")

	if args == nil {
		args = []string{}
	}
	_ = fs.Parse(args)
	return cfg
}

// Load is the production entry point. It wires the loader to the process
// flag set, reads environment variables via os.Getenv, and parses
// os.Args[1:] as the CLI arguments.
func Load() *Config {
	return LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
}
