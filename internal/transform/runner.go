package transform

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sundar139/IOWA-Liquor-Sales/internal/chunk"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/metrics"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/schema"
)

// Runner walks the raw-stage manifest, coerces each chunk, and writes the
// clean chunks plus their manifest. Chunks are independent, so they are
// processed by a bounded worker group; manifest order is preserved by index.
type Runner struct {
	RawDir   string
	CleanDir string

	// Workers bounds concurrent chunk conversions. Values below 1 mean a
	// single worker.
	Workers int

	// KeepChunks leaves the raw chunk files in place after conversion.
	// When false each raw chunk is removed as soon as its clean twin is
	// written, keeping peak disk usage near one stage's worth of data.
	KeepChunks bool
}

// Summary reports the outcome of a transform run.
type Summary struct {
	Chunks int
	Rows   int64
}

// Run converts every chunk listed in the raw manifest and writes the clean
// manifest. The first failing chunk cancels the remaining work.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	m, err := chunk.ReadManifest(r.RawDir)
	if err != nil {
		return Summary{}, fmt.Errorf("transform: read raw manifest: %w", err)
	}

	plan := NewPlan(schema.Columns)
	entries := make([]chunk.Entry, len(m.Entries))

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, e := range m.Entries {
		i, e := i, e
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			rawPath := filepath.Join(r.RawDir, e.File)
			if err := chunk.VerifyChecksum(rawPath, e.Checksum); err != nil {
				return err
			}

			_, rows, err := chunk.Read(rawPath)
			if err != nil {
				return fmt.Errorf("transform: read %s: %w", e.File, err)
			}
			if len(rows) != e.Rows {
				return fmt.Errorf("transform: chunk %s: manifest says %d rows, file has %d",
					e.File, e.Rows, len(rows))
			}

			plan.Apply(rows)

			cleanPath := filepath.Join(r.CleanDir, e.File)
			if err := chunk.Write(cleanPath, plan.Fields(), rows); err != nil {
				return fmt.Errorf("transform: write %s: %w", e.File, err)
			}
			sum, err := chunk.Checksum(cleanPath)
			if err != nil {
				return err
			}
			entries[i] = chunk.Entry{
				File:     e.File,
				Offset:   e.Offset,
				Rows:     e.Rows,
				Checksum: sum,
			}

			if !r.KeepChunks {
				if err := os.Remove(rawPath); err != nil {
					return fmt.Errorf("transform: remove %s: %w", e.File, err)
				}
			}

			log.Printf("transform: chunk=%s rows=%d", e.File, e.Rows)
			metrics.RecordRows("transform", "clean", int64(e.Rows))
			metrics.RecordChunks("transform", 1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	clean := &chunk.Manifest{
		Stage:     "clean",
		CreatedAt: time.Now().UTC(),
		Entries:   entries,
	}
	var total int64
	for _, e := range entries {
		total += int64(e.Rows)
	}
	clean.TotalRows = total

	if err := chunk.WriteManifest(r.CleanDir, clean); err != nil {
		return Summary{}, fmt.Errorf("transform: write clean manifest: %w", err)
	}

	log.Printf("transform: done chunks=%d rows=%d", len(entries), total)
	return Summary{Chunks: len(entries), Rows: total}, nil
}
