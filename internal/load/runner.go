// Package load drains clean chunks into the staging table with batched
// inserts.
//
// Inserts go through storage.Repository.InsertRows, which skips rows whose
// primary key already exists, so rerunning the stage over the same chunks
// inserts nothing new. Rows without an invoice_line_no can never satisfy the
// staging key; they are diverted to a reject file and counted instead of
// aborting the run.
package load

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sundar139/IOWA-Liquor-Sales/internal/chunk"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/metrics"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/schema"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/storage"
)

// DefaultBatchSize is the number of rows handed to a single insert when the
// caller does not set one.
const DefaultBatchSize = 10000

// Runner walks the clean-stage manifest and feeds the staging table.
type Runner struct {
	Repo storage.Repository

	// Dir is the clean-stage directory holding the chunks and manifest.
	Dir string

	// Table is the staging table receiving the rows.
	Table string

	// BatchSize caps the rows per InsertRows call.
	BatchSize int

	// KeepChunks leaves chunk files in place after their rows are
	// committed. When false each chunk is removed once it is durable.
	KeepChunks bool

	// RejectPath, when set, receives null-key rows as CSV. Empty disables
	// the file; such rows are still counted and dropped.
	RejectPath string
}

// Summary reports the outcome of one load run. When every chunk committed,
// Read equals Inserted + Skipped + Rejected.
type Summary struct {
	Chunks   int
	Read     int64
	Inserted int64

	// Skipped counts rows whose key already existed in the staging table.
	Skipped int64

	// Rejected counts rows dropped for a missing invoice_line_no.
	Rejected int64

	Batches int64
}

// Run loads every chunk in manifest order. Each chunk is flushed before its
// file may be removed, so an interrupted run leaves only whole chunks for the
// next attempt to retry.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if r.Repo == nil {
		return Summary{}, errors.New("load: repository is required")
	}
	table := strings.TrimSpace(r.Table)
	if table == "" {
		return Summary{}, errors.New("load: staging table is required")
	}
	batchSize := r.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	m, err := chunk.ReadManifest(r.Dir)
	if err != nil {
		return Summary{}, fmt.Errorf("load: %w", err)
	}

	var rej *RejectWriter
	if r.RejectPath != "" {
		rej, err = NewRejectWriter(r.RejectPath)
		if err != nil {
			return Summary{}, err
		}
	}
	// closeRejects runs on every exit path; a close failure only surfaces
	// when the run itself succeeded.
	closeRejects := func(runErr error) error {
		if rej == nil {
			return runErr
		}
		if err := rej.Close(); err != nil && runErr == nil {
			return err
		}
		if n := rej.Count(); n > 0 {
			log.Printf("load: rejected=%d rows recorded in %s", n, r.RejectPath)
		}
		return runErr
	}

	keyIdx := schema.ColumnIndex(schema.KeyColumn)

	var (
		sum   Summary
		start = time.Now()
		batch = make([][]any, 0, batchSize)
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := r.Repo.InsertRows(ctx, table, schema.Columns, batch)
		if err != nil {
			log.Printf("load: insert failed rows=%d total_inserted=%d err=%v", len(batch), sum.Inserted, err)
			return err
		}
		sum.Inserted += n
		sum.Skipped += int64(len(batch)) - n
		sum.Batches++
		metrics.RecordRows("load", "inserted", n)
		metrics.RecordRows("load", "skipped", int64(len(batch))-n)

		// Reuse the allocated slice; capacity survives the reset.
		batch = batch[:0]
		return nil
	}

	for _, e := range m.Entries {
		if err := ctx.Err(); err != nil {
			return sum, closeRejects(fmt.Errorf("load: %w", err))
		}

		path := filepath.Join(r.Dir, e.File)
		if err := chunk.VerifyChecksum(path, e.Checksum); err != nil {
			return sum, closeRejects(err)
		}
		_, rows, err := chunk.Read(path)
		if err != nil {
			return sum, closeRejects(fmt.Errorf("load: read %s: %w", e.File, err))
		}
		if len(rows) != e.Rows {
			return sum, closeRejects(fmt.Errorf("load: chunk %s: manifest says %d rows, file has %d",
				e.File, e.Rows, len(rows)))
		}

		rejected := 0
		for i, row := range rows {
			sum.Read++
			if row[keyIdx] == nil {
				sum.Rejected++
				rejected++
				if rej != nil {
					if err := rej.Reject("null "+schema.KeyColumn, e.File, i, row); err != nil {
						return sum, closeRejects(err)
					}
				}
				continue
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return sum, closeRejects(fmt.Errorf("load: chunk %s: %w", e.File, err))
				}
			}
		}
		// Flush the tail so the whole chunk is durable before removal.
		if err := flush(); err != nil {
			return sum, closeRejects(fmt.Errorf("load: chunk %s: %w", e.File, err))
		}

		sum.Chunks++
		if rejected > 0 {
			metrics.RecordRows("load", "rejected", int64(rejected))
		}
		metrics.RecordChunks("load", 1)

		elapsed := time.Since(start)
		rps := float64(0)
		if elapsed > 0 {
			rps = float64(sum.Read) / elapsed.Seconds()
		}
		log.Printf("load: chunk=%s rows=%d rejected=%d total_inserted=%d total_skipped=%d rps=%.0f elapsed=%s",
			e.File, e.Rows, rejected, sum.Inserted, sum.Skipped, rps, elapsed.Truncate(time.Millisecond))

		if !r.KeepChunks {
			if err := os.Remove(path); err != nil {
				return sum, closeRejects(fmt.Errorf("load: remove %s: %w", e.File, err))
			}
		}
	}

	if sum.Read != sum.Inserted+sum.Skipped+sum.Rejected {
		log.Printf("load: WARNING row accounting drifted: read=%d inserted=%d skipped=%d rejected=%d",
			sum.Read, sum.Inserted, sum.Skipped, sum.Rejected)
	}
	log.Printf("load: done chunks=%d read=%d inserted=%d skipped=%d rejected=%d batches=%d elapsed=%s",
		sum.Chunks, sum.Read, sum.Inserted, sum.Skipped, sum.Rejected, sum.Batches,
		time.Since(start).Truncate(time.Millisecond))
	return sum, closeRejects(nil)
}
