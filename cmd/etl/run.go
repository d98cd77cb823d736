package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sundar139/IOWA-Liquor-Sales/internal/config"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/datasource/socrata"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/ddl"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/derive"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/extract"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/load"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/metrics"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/schema"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/storage"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/transform"
)

// newFetcherFn is a seam for tests: it lets run() execute against a scripted
// page source instead of the live Socrata API.
var newFetcherFn = func(cfg *config.Config) extract.Fetcher {
	return socrata.NewClient(socrata.Config{
		URL:        cfg.SourceURL,
		AppToken:   cfg.AppToken,
		StartDate:  cfg.StartDate,
		EndDate:    cfg.EndDate,
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.MaxRetries,
	}, schema.Columns)
}

// run dispatches cfg.Stage. StageRun executes extract, transform, load and
// derive in order, sharing one repository connection across the two database
// stages.
func run(ctx context.Context, cfg *config.Config) error {
	switch cfg.Stage {
	case config.StageExtract:
		return runExtract(ctx, cfg)
	case config.StageTransform:
		return runTransform(ctx, cfg)
	case config.StageLoad, config.StageDerive, config.StageRun:
	default:
		return fmt.Errorf("unknown stage %q", cfg.Stage)
	}

	if cfg.Stage == config.StageRun {
		if err := runExtract(ctx, cfg); err != nil {
			return err
		}
		if err := runTransform(ctx, cfg); err != nil {
			return err
		}
	}

	repo, err := openRepo(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	if cfg.Stage == config.StageLoad || cfg.Stage == config.StageRun {
		if err := runLoad(ctx, cfg, repo); err != nil {
			return err
		}
	}
	if cfg.Stage == config.StageDerive || cfg.Stage == config.StageRun {
		if err := runDerive(ctx, cfg, repo); err != nil {
			return err
		}
	}
	return nil
}

// openRepo connects to the configured backend and makes sure the staging
// table and the star schema exist.
func openRepo(ctx context.Context, cfg *config.Config) (storage.Repository, error) {
	repo, err := storage.New(ctx, storage.Config{Kind: cfg.StorageKind, DSN: cfg.ResolveDSN()})
	if err != nil {
		return nil, err
	}
	defs := append([]ddl.TableDef{schema.StagingTable(cfg.StagingTable)}, schema.StarTables()...)
	if err := storage.EnsureSchema(ctx, cfg.StorageKind, repo, defs); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

func runExtract(ctx context.Context, cfg *config.Config) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStage(config.StageExtract, err, time.Since(start)) }()

	if err = os.MkdirAll(cfg.RawDir(), 0o755); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	r := &extract.Runner{
		Fetcher:     newFetcherFn(cfg),
		Dir:         cfg.RawDir(),
		PageSize:    int64(cfg.PageSize),
		StartOffset: cfg.StartOffset,
	}
	sum, err := r.Run(ctx)
	if err != nil {
		return err
	}
	log.Printf("stage extract: pages=%d rows=%d elapsed=%s",
		sum.Pages, sum.Rows, time.Since(start).Truncate(time.Millisecond))
	return nil
}

func runTransform(ctx context.Context, cfg *config.Config) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStage(config.StageTransform, err, time.Since(start)) }()

	if err = os.MkdirAll(cfg.CleanDir(), 0o755); err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	r := &transform.Runner{
		RawDir:     cfg.RawDir(),
		CleanDir:   cfg.CleanDir(),
		Workers:    cfg.TransformWorkers,
		KeepChunks: cfg.KeepChunks,
	}
	sum, err := r.Run(ctx)
	if err != nil {
		return err
	}
	log.Printf("stage transform: chunks=%d rows=%d elapsed=%s",
		sum.Chunks, sum.Rows, time.Since(start).Truncate(time.Millisecond))
	return nil
}

func runLoad(ctx context.Context, cfg *config.Config, repo storage.Repository) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStage(config.StageLoad, err, time.Since(start)) }()

	r := &load.Runner{
		Repo:       repo,
		Dir:        cfg.CleanDir(),
		Table:      cfg.StagingTable,
		BatchSize:  cfg.BatchSize,
		KeepChunks: cfg.KeepChunks,
		RejectPath: cfg.RejectPath(),
	}
	sum, err := r.Run(ctx)
	if err != nil {
		return err
	}
	log.Printf("stage load: read=%d inserted=%d skipped=%d rejected=%d elapsed=%s",
		sum.Read, sum.Inserted, sum.Skipped, sum.Rejected, time.Since(start).Truncate(time.Millisecond))
	return nil
}

func runDerive(ctx context.Context, cfg *config.Config, repo storage.Repository) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStage(config.StageDerive, err, time.Since(start)) }()

	sum, err := derive.Run(ctx, repo, cfg.StorageKind, cfg.StagingTable)
	if err != nil {
		return err
	}
	log.Printf("stage derive: tables=%d added=%d elapsed=%s",
		len(sum.Tables), sum.Added(), time.Since(start).Truncate(time.Millisecond))
	return nil
}
