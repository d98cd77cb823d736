package chunk

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteReadRoundTripStrings(t *testing.T) {
	t.Parallel()

	fields := StringFields([]string{"invoice_line_no", "date", "sale_dollars"})
	rows := [][]any{
		{"INV-001", "2023-03-05T00:00:00", "12.50"},
		{"INV-002", nil, ""},
		{nil, "2023-03-06T00:00:00", "0"},
	}

	path := filepath.Join(t.TempDir(), FileName(0))
	if err := Write(path, fields, rows); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	gotFields, gotRows, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(gotFields) != len(fields) {
		t.Fatalf("got %d fields, want %d", len(gotFields), len(fields))
	}
	for i, f := range gotFields {
		if f != fields[i] {
			t.Errorf("field %d = %+v, want %+v", i, f, fields[i])
		}
	}
	if len(gotRows) != len(rows) {
		t.Fatalf("got %d rows, want %d", len(gotRows), len(rows))
	}
	for r := range rows {
		for c := range rows[r] {
			if gotRows[r][c] != rows[r][c] {
				t.Errorf("row %d col %d = %v, want %v", r, c, gotRows[r][c], rows[r][c])
			}
		}
	}
}

func TestWriteReadRoundTripTyped(t *testing.T) {
	t.Parallel()

	fields := []Field{
		{Name: "invoice_line_no", Kind: KindString},
		{Name: "date", Kind: KindDate},
		{Name: "sale_dollars", Kind: KindFloat},
	}
	day := time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC)
	rows := [][]any{
		{"INV-001", day, 12.5},
		{"INV-002", nil, 0.0},
	}

	path := filepath.Join(t.TempDir(), FileName(3))
	if err := Write(path, fields, rows); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	gotFields, gotRows, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if gotFields[1].Kind != KindDate || gotFields[2].Kind != KindFloat {
		t.Fatalf("field kinds not preserved: %+v", gotFields)
	}

	gotDay, ok := gotRows[0][1].(time.Time)
	if !ok {
		t.Fatalf("date cell came back as %T", gotRows[0][1])
	}
	if !gotDay.Equal(day) {
		t.Errorf("date = %v, want %v", gotDay, day)
	}
	if gotRows[0][2] != 12.5 {
		t.Errorf("float cell = %v, want 12.5", gotRows[0][2])
	}
	if gotRows[1][1] != nil {
		t.Errorf("NULL date cell = %v, want nil", gotRows[1][1])
	}
	if gotRows[1][2] != 0.0 {
		t.Errorf("zero float cell = %v, want 0", gotRows[1][2])
	}
}

func TestWriteRejectsMismatchedValueType(t *testing.T) {
	t.Parallel()

	fields := StringFields([]string{"invoice_line_no"})
	rows := [][]any{{42}}

	err := Write(filepath.Join(t.TempDir(), FileName(0)), fields, rows)
	if err == nil {
		t.Fatal("Write() accepted an int in a string column")
	}
	if !strings.Contains(err.Error(), "unsupported value type") {
		t.Errorf("error = %q, want mention of unsupported value type", err)
	}
}

func TestWriteRejectsShortRow(t *testing.T) {
	t.Parallel()

	fields := StringFields([]string{"a", "b"})
	err := Write(filepath.Join(t.TempDir(), FileName(0)), fields, [][]any{{"only one"}})
	if err == nil {
		t.Fatal("Write() accepted a row narrower than the field list")
	}
}

func TestReadMissingFile(t *testing.T) {
	t.Parallel()

	if _, _, err := Read(filepath.Join(t.TempDir(), "absent.arrow")); err == nil {
		t.Fatal("Read() of a missing file returned nil error")
	}
}

func TestFileName(t *testing.T) {
	t.Parallel()

	if got := FileName(0); got != "chunk_00000.arrow" {
		t.Errorf("FileName(0) = %q", got)
	}
	if got := FileName(287); got != "chunk_00287.arrow" {
		t.Errorf("FileName(287) = %q", got)
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	fields := StringFields([]string{"store", "county"})
	got := Names(fields)
	if len(got) != 2 || got[0] != "store" || got[1] != "county" {
		t.Errorf("Names() = %v", got)
	}
}
