package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

/*
Package-level test helpers (TB-aware)
*/

// newRepo opens a repository on a fresh database file under the test's temp
// directory. A file DSN is used instead of ":memory:" so every pooled
// connection sees the same database.
func newRepo(tb testing.TB) *Repository {
	tb.Helper()
	dsn := filepath.Join(tb.TempDir(), "etl.db")
	r, closeFn, err := NewRepository(context.Background(), Config{DSN: dsn})
	if err != nil {
		tb.Fatalf("open sqlite %s: %v", dsn, err)
	}
	tb.Cleanup(closeFn)
	return r
}

func mustExec(tb testing.TB, r *Repository, sqlStmt string) {
	tb.Helper()
	if err := r.Exec(context.Background(), sqlStmt); err != nil {
		tb.Fatalf("exec %q: %v", sqlStmt, err)
	}
}

/*
Unit tests
*/

func TestNewRepositoryEmptyDSN(t *testing.T) {
	t.Parallel()

	_, _, err := NewRepository(context.Background(), Config{DSN: "  "})
	if err == nil || !strings.Contains(err.Error(), "DSN") {
		t.Fatalf("NewRepository() error = %v, want DSN complaint", err)
	}
}

// TestInsertRowsSkipsDuplicateKeys verifies insert-or-skip semantics: a rerun
// of the same batch inserts nothing, and partially-new batches insert only the
// new rows.
func TestInsertRowsSkipsDuplicateKeys(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()

	mustExec(t, r, `CREATE TABLE sales (invoice_line_no TEXT NOT NULL, sale_dollars NUMERIC, PRIMARY KEY (invoice_line_no))`)

	columns := []string{"invoice_line_no", "sale_dollars"}
	first := [][]any{
		{"INV-00001", 12.5},
		{"INV-00002", 8.25},
	}

	n, err := r.InsertRows(ctx, "sales", columns, first)
	if err != nil {
		t.Fatalf("InsertRows() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("InsertRows() = %d, want 2", n)
	}

	n, err = r.InsertRows(ctx, "sales", columns, first)
	if err != nil {
		t.Fatalf("InsertRows() rerun error = %v", err)
	}
	if n != 0 {
		t.Fatalf("InsertRows() rerun = %d, want 0", n)
	}

	mixed := [][]any{
		{"INV-00002", 8.25},
		{"INV-00003", 3.0},
	}
	n, err = r.InsertRows(ctx, "sales", columns, mixed)
	if err != nil {
		t.Fatalf("InsertRows() mixed error = %v", err)
	}
	if n != 1 {
		t.Fatalf("InsertRows() mixed = %d, want 1", n)
	}

	total, err := r.Count(ctx, "sales")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if total != 3 {
		t.Fatalf("Count() = %d, want 3", total)
	}
}

// TestInsertRowsNormalizesValues checks the stored forms of time.Time and bool
// values, and that NULLs survive.
func TestInsertRowsNormalizesValues(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()

	mustExec(t, r, `CREATE TABLE dim_date (date TEXT NOT NULL, is_weekend INTEGER NOT NULL, note TEXT, PRIMARY KEY (date))`)

	day := time.Date(2023, 3, 4, 0, 0, 0, 0, time.UTC)
	rows := [][]any{
		{day, true, nil},
	}
	if _, err := r.InsertRows(ctx, "dim_date", []string{"date", "is_weekend", "note"}, rows); err != nil {
		t.Fatalf("InsertRows() error = %v", err)
	}

	var date string
	var weekend int64
	var note any
	err := r.db.QueryRowContext(ctx, `SELECT date, is_weekend, note FROM dim_date`).
		Scan(&date, &weekend, &note)
	if err != nil {
		t.Fatalf("verify query: %v", err)
	}
	if date != "2023-03-04" {
		t.Fatalf("stored date = %q, want 2023-03-04", date)
	}
	if weekend != 1 {
		t.Fatalf("stored is_weekend = %d, want 1", weekend)
	}
	if note != nil {
		t.Fatalf("stored note = %v, want NULL", note)
	}
}

func TestInsertRowsRowWidthMismatch(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()

	mustExec(t, r, `CREATE TABLE t (a TEXT, b TEXT)`)

	_, err := r.InsertRows(ctx, "t", []string{"a", "b"}, [][]any{{"only-one"}})
	if err == nil || !strings.Contains(err.Error(), "want 2") {
		t.Fatalf("InsertRows() error = %v, want row width complaint", err)
	}

	// The bad batch must not leave partial rows behind.
	total, err := r.Count(ctx, "t")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if total != 0 {
		t.Fatalf("Count() = %d after rollback, want 0", total)
	}
}

func TestInsertRowsEmptyBatch(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	n, err := r.InsertRows(context.Background(), "missing", []string{"a"}, nil)
	if err != nil {
		t.Fatalf("InsertRows() error = %v", err)
	}
	if n != 0 {
		t.Fatalf("InsertRows() = %d, want 0", n)
	}
}

func TestExecCount(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()

	mustExec(t, r, `CREATE TABLE t (a TEXT)`)
	if _, err := r.InsertRows(ctx, "t", []string{"a"}, [][]any{{"x"}, {"y"}, {"z"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	n, err := r.ExecCount(ctx, `UPDATE t SET a = upper(a)`)
	if err != nil {
		t.Fatalf("ExecCount() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("ExecCount() = %d, want 3", n)
	}
}

// TestSelectDates covers the TEXT date round trip: stored "2006-01-02" strings
// come back as midnight-UTC times, and NULLs are dropped.
func TestSelectDates(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()

	mustExec(t, r, `CREATE TABLE staging (invoice_line_no TEXT PRIMARY KEY NOT NULL, date TEXT)`)
	rows := [][]any{
		{"INV-1", time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"INV-2", time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"INV-3", time.Date(2023, 3, 6, 0, 0, 0, 0, time.UTC)},
		{"INV-4", nil},
	}
	if _, err := r.InsertRows(ctx, "staging", []string{"invoice_line_no", "date"}, rows); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := r.SelectDates(ctx,
		`SELECT DISTINCT date FROM staging WHERE date IS NOT NULL ORDER BY date`)
	if err != nil {
		t.Fatalf("SelectDates() error = %v", err)
	}

	want := []time.Time{
		time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 3, 6, 0, 0, 0, 0, time.UTC),
	}
	if len(got) != len(want) {
		t.Fatalf("SelectDates() = %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("SelectDates()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCountMissingTable(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	if _, err := r.Count(context.Background(), "no_such_table"); err == nil {
		t.Fatal("Count() error = nil for missing table")
	}
}

func TestParseDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{in: "2023-03-05", want: time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC), ok: true},
		{in: "2023-03-05 13:15:00", want: time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC), ok: true},
		{in: "2023-03-05T00:00:00Z", want: time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC), ok: true},
		{in: "05/03/2023", ok: false},
		{in: "", ok: false},
	}

	for _, tt := range tests {
		got, err := parseDay(tt.in)
		if tt.ok != (err == nil) {
			t.Errorf("parseDay(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && !got.Equal(tt.want) {
			t.Errorf("parseDay(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

/*
Benchmarks
*/

// BenchmarkInsertRows measures batched INSERT OR IGNORE with a prepared
// statement, using fresh keys per iteration so every row is a real insert.
func BenchmarkInsertRows(b *testing.B) {
	r := newRepo(b)
	ctx := context.Background()
	mustExec(b, r, `CREATE TABLE sales (invoice_line_no TEXT NOT NULL, sale_dollars NUMERIC, PRIMARY KEY (invoice_line_no))`)

	const batch = 128
	columns := []string{"invoice_line_no", "sale_dollars"}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rows := make([][]any, batch)
		for j := 0; j < batch; j++ {
			rows[j] = []any{fmt.Sprintf("INV-%d-%d", i, j), 9.99}
		}
		if _, err := r.InsertRows(ctx, "sales", columns, rows); err != nil {
			b.Fatal(err)
		}
	}
}
