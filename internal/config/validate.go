// This file adds a lightweight linter for Config values. It performs static
// checks over a loaded Config and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests before any network or
// database work starts.

package config

import (
	"fmt"
	"strings"
	"time"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path names the flag the
// finding is about; Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue carries SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// stages the -stage flag accepts, and which of them touch the source API or
// the database.
var (
	knownStages = map[string]struct{}{
		StageExtract: {}, StageTransform: {}, StageLoad: {}, StageDerive: {}, StageRun: {},
	}
	sourceStages = map[string]struct{}{StageExtract: {}, StageRun: {}}
	dbStages     = map[string]struct{}{StageLoad: {}, StageDerive: {}, StageRun: {}}
)

// Validate performs static validation of a Config. It does not mutate the
// config; callers decide whether warnings are fatal.
func Validate(cfg *Config) []Issue {
	var issues []Issue

	if _, ok := knownStages[cfg.Stage]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "stage",
			Message:  fmt.Sprintf("unknown stage %q; expected extract, transform, load, derive or run", cfg.Stage),
		})
		// The remaining checks still run; they do not depend on the stage
		// being known.
	}

	issues = append(issues, validateSource(cfg)...)
	issues = append(issues, validateSpool(cfg)...)
	issues = append(issues, validateStorage(cfg)...)
	issues = append(issues, validateMetrics(cfg)...)

	return issues
}

// validateSource checks the Socrata window and fetch tunables.
func validateSource(cfg *Config) []Issue {
	var issues []Issue

	if _, needed := sourceStages[cfg.Stage]; needed && strings.TrimSpace(cfg.SourceURL) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source_url",
			Message:  fmt.Sprintf("stage %q fetches from the source API and requires a source URL", cfg.Stage),
		})
	}

	start, startErr := time.Parse("2006-01-02", cfg.StartDate)
	if startErr != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "start_date",
			Message:  fmt.Sprintf("%q is not a YYYY-MM-DD date", cfg.StartDate),
		})
	}
	end, endErr := time.Parse("2006-01-02", cfg.EndDate)
	if endErr != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "end_date",
			Message:  fmt.Sprintf("%q is not a YYYY-MM-DD date", cfg.EndDate),
		})
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "end_date",
			Message:  fmt.Sprintf("window end %s is before window start %s", cfg.EndDate, cfg.StartDate),
		})
	}

	if cfg.PageSize < 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "page_size",
			Message:  fmt.Sprintf("page_size=%d; at least one row per page is required", cfg.PageSize),
		})
	}
	if cfg.StartOffset < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "start_offset",
			Message:  "start_offset must not be negative",
		})
	}
	if cfg.MaxRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "max_retries",
			Message:  "max_retries must not be negative",
		})
	}
	if cfg.HTTPTimeout <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "http_timeout",
			Message:  "non-positive timeout disables the HTTP client timeout entirely",
		})
	}

	return issues
}

// validateSpool checks the chunk spool directory and transform tunables.
func validateSpool(cfg *Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(cfg.WorkDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "work_dir",
			Message:  "work_dir must not be empty; chunks and the reject file live under it",
		})
	}
	if cfg.TransformWorkers < 1 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "transform_workers",
			Message:  fmt.Sprintf("transform_workers=%d; values below 1 run a single worker", cfg.TransformWorkers),
		})
	}

	return issues
}

// validateStorage checks the backend selection and load tunables.
func validateStorage(cfg *Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(cfg.StorageKind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage",
			Message:  "storage must not be empty",
		})
		return issues
	}

	// Unknown kinds are warnings for forward compatibility: the registry in
	// the storage package has the final say at open time.
	known := map[string]struct{}{
		"postgres": {},
		"sqlite":   {},
	}
	if _, ok := known[cfg.StorageKind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", cfg.StorageKind),
		})
	}

	if _, needed := dbStages[cfg.Stage]; needed && strings.TrimSpace(cfg.ResolveDSN()) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "dsn",
			Message:  fmt.Sprintf("stage %q writes to the database and requires a DSN", cfg.Stage),
		})
	}
	if strings.TrimSpace(cfg.StagingTable) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "staging_table",
			Message:  "staging_table must not be empty",
		})
	}
	if cfg.BatchSize < 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "batch_size",
			Message:  fmt.Sprintf("batch_size=%d; at least one row per batch is required", cfg.BatchSize),
		})
	}

	return issues
}

// validateMetrics checks the metrics sink selection.
func validateMetrics(cfg *Config) []Issue {
	var issues []Issue

	switch cfg.MetricsBackend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(cfg.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "pushgateway_url",
				Message:  "metrics_backend=pushgateway requires a gateway URL",
			})
		}
	case "datadog":
		if strings.TrimSpace(cfg.DogstatsdAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "dogstatsd_addr",
				Message:  "metrics_backend=datadog requires an agent address",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics_backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", cfg.MetricsBackend),
		})
	}

	return issues
}
