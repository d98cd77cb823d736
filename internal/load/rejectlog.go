package load

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var rejectHeader = []string{"reason", "chunk", "row_index", "raw_row"}

// RejectWriter records rows the loader refused, one CSV line per row, so a
// dropped row can always be traced back to the chunk it came from. The file
// is rewritten on every run.
type RejectWriter struct {
	f *os.File
	w *csv.Writer
	n int64
}

// NewRejectWriter creates path, and its parent directory when missing, and
// writes the header line.
func NewRejectWriter(path string) (*RejectWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("load: reject dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("load: reject file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(rejectHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("load: reject header: %w", err)
	}
	return &RejectWriter{f: f, w: w}, nil
}

// Reject appends one refused row.
func (rw *RejectWriter) Reject(reason, chunkName string, rowIndex int, row []any) error {
	rec := []string{reason, chunkName, strconv.Itoa(rowIndex), renderRow(row)}
	if err := rw.w.Write(rec); err != nil {
		return fmt.Errorf("load: reject write: %w", err)
	}
	rw.n++
	return nil
}

// Count returns the number of rows written so far.
func (rw *RejectWriter) Count() int64 { return rw.n }

// Close flushes buffered records and closes the file.
func (rw *RejectWriter) Close() error {
	rw.w.Flush()
	if err := rw.w.Error(); err != nil {
		rw.f.Close()
		return fmt.Errorf("load: reject flush: %w", err)
	}
	if err := rw.f.Close(); err != nil {
		return fmt.Errorf("load: reject close: %w", err)
	}
	return nil
}

// renderRow flattens a row into one pipe-separated field. NULLs render empty
// and dates as the day they fall on, matching how the values would appear in
// the source export.
func renderRow(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		switch x := v.(type) {
		case nil:
			parts[i] = ""
		case string:
			parts[i] = x
		case time.Time:
			parts[i] = x.Format("2006-01-02")
		case float64:
			parts[i] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			parts[i] = fmt.Sprint(x)
		}
	}
	return strings.Join(parts, "|")
}
