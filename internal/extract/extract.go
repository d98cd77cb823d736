// Package extract pulls the source dataset page by page and spools every page
// to disk as an immutable chunk before anything downstream runs.
//
// Memory stays bounded by one page: a page is fetched, written, checksummed,
// and released before the next request goes out. Pagination advances by the
// number of rows actually received and stops at the first empty page, so the
// walk is deterministic for a stable source window.
package extract

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/sundar139/IOWA-Liquor-Sales/internal/chunk"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/datasource/socrata"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/metrics"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/schema"
)

// DefaultPageSize is the number of rows requested per page when the caller
// does not set one.
const DefaultPageSize = 50000

// Fetcher retrieves one page of source rows. *socrata.Client is the
// production implementation.
type Fetcher interface {
	FetchPage(ctx context.Context, offset, limit int64) (*socrata.Page, error)
}

// Runner drives the page walk and owns the raw-stage directory.
type Runner struct {
	Fetcher Fetcher

	// Dir receives the chunk files and the raw manifest.
	Dir string

	// PageSize is the row count requested per page.
	PageSize int64

	// StartOffset resumes an interrupted extraction at the given row offset.
	// Zero starts from the beginning with a fresh manifest.
	StartOffset int64
}

// Summary reports the outcome of one extraction run. Rows and Pages count
// only this run's work; LastOffset is the next offset a resumed run would
// fetch.
type Summary struct {
	Pages      int
	Rows       int64
	LastOffset int64
}

// Run walks the source until the first empty page. On a fetch failure the
// manifest written so far is flushed to disk and the error names the offset
// to resume from, so a rerun never refetches committed pages.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	pageSize := r.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	m, page := r.openManifest()
	fields := chunk.StringFields(schema.Columns)

	offset := r.StartOffset
	var sum Summary

	for {
		if err := ctx.Err(); err != nil {
			r.flush(m)
			return sum, fmt.Errorf("extract: page=%d: %w; rerun with -start_offset=%d", page, err, offset)
		}

		p, err := r.Fetcher.FetchPage(ctx, offset, pageSize)
		if err != nil {
			r.flush(m)
			return sum, fmt.Errorf("extract: page=%d: %w; rerun with -start_offset=%d", page, err, offset)
		}
		if len(p.Rows) == 0 {
			break
		}

		name := chunk.FileName(page)
		path := filepath.Join(r.Dir, name)
		if err := chunk.Write(path, fields, p.Rows); err != nil {
			r.flush(m)
			return sum, fmt.Errorf("extract: page=%d: %w; rerun with -start_offset=%d", page, err, offset)
		}
		cs, err := chunk.Checksum(path)
		if err != nil {
			r.flush(m)
			return sum, fmt.Errorf("extract: page=%d: %w; rerun with -start_offset=%d", page, err, offset)
		}

		m.Add(chunk.Entry{File: name, Offset: offset, Rows: len(p.Rows), Checksum: cs})

		offset += int64(len(p.Rows))
		page++
		sum.Pages++
		sum.Rows += int64(len(p.Rows))
		sum.LastOffset = offset

		log.Printf("extract: page=%d offset=%d rows=%d total_rows=%d", page-1, offset-int64(len(p.Rows)), len(p.Rows), m.TotalRows)
		metrics.RecordRows("extract", "raw", int64(len(p.Rows)))
		metrics.RecordChunks("extract", 1)
	}

	sum.LastOffset = offset
	if err := chunk.WriteManifest(r.Dir, m); err != nil {
		return sum, fmt.Errorf("extract: write manifest: %w", err)
	}

	log.Printf("extract: done pages=%d rows=%d next_offset=%d", sum.Pages, sum.Rows, offset)
	return sum, nil
}

// openManifest loads the manifest of an interrupted run when resuming, so the
// final manifest covers every chunk in the directory. Page numbering
// continues where the previous run stopped.
func (r *Runner) openManifest() (*chunk.Manifest, int) {
	if r.StartOffset > 0 {
		if m, err := chunk.ReadManifest(r.Dir); err == nil && m.Stage == "raw" {
			return m, len(m.Entries)
		}
		// No usable manifest: derive the page number from the offset so
		// resumed chunk files do not collide with earlier ones.
		pageSize := r.PageSize
		if pageSize < 1 {
			pageSize = DefaultPageSize
		}
		return &chunk.Manifest{Stage: "raw", CreatedAt: time.Now().UTC()},
			int(r.StartOffset / pageSize)
	}
	return &chunk.Manifest{Stage: "raw", CreatedAt: time.Now().UTC()}, 0
}

// flush persists the manifest for the pages that did complete. Failures are
// logged only; the caller is already returning the primary error.
func (r *Runner) flush(m *chunk.Manifest) {
	if len(m.Entries) == 0 {
		return
	}
	if err := chunk.WriteManifest(r.Dir, m); err != nil {
		log.Printf("extract: flush manifest: %v", err)
	}
}
