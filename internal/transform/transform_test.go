package transform

import (
	"reflect"
	"testing"
	"time"

	"github.com/sundar139/IOWA-Liquor-Sales/internal/chunk"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/schema"
)

func TestNewPlanLayout(t *testing.T) {
	t.Parallel()

	plan := NewPlan(schema.Columns)
	fields := plan.Fields()
	if len(fields) != len(schema.Columns) {
		t.Fatalf("plan has %d fields, want %d", len(fields), len(schema.Columns))
	}

	var dates, floats, strings int
	for i, f := range fields {
		if f.Name != schema.Columns[i] {
			t.Fatalf("field %d = %q, want %q", i, f.Name, schema.Columns[i])
		}
		switch f.Kind {
		case chunk.KindDate:
			dates++
			if f.Name != schema.DateColumn {
				t.Fatalf("unexpected date field %q", f.Name)
			}
		case chunk.KindFloat:
			floats++
			if !schema.IsNumeric(f.Name) {
				t.Fatalf("unexpected float field %q", f.Name)
			}
		case chunk.KindString:
			strings++
		}
	}
	if dates != 1 {
		t.Fatalf("plan has %d date fields, want 1", dates)
	}
	if floats != 8 {
		t.Fatalf("plan has %d float fields, want 8", floats)
	}
	if strings != len(schema.Columns)-9 {
		t.Fatalf("plan has %d string fields, want %d", strings, len(schema.Columns)-9)
	}
}

// TestApplyCoercesRows exercises the contract on a pair of rows: one fully
// parseable, one with garbage in both typed columns. Both rows survive, in
// order, with NULL and 0 standing in for the failures.
func TestApplyCoercesRows(t *testing.T) {
	t.Parallel()

	plan := NewPlan([]string{"invoice_line_no", "date", "sale_dollars"})
	rows := [][]any{
		{"A1", "2023-03-05", "12.5"},
		{"A2", "bad-date", "oops"},
	}

	plan.Apply(rows)

	want := [][]any{
		{"A1", time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC), 12.5},
		{"A2", nil, 0.0},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("Apply() = %v, want %v", rows, want)
	}
}

func TestCoerceDate(t *testing.T) {
	t.Parallel()

	day := time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "bare date", in: "2023-03-05", want: day},
		{name: "iso timestamp", in: "2023-03-05T00:00:00.000", want: day},
		{name: "space separator", in: "2023-03-05 13:10:00", want: day},
		{name: "us layout", in: "03/05/2023", want: day},
		{name: "already typed", in: time.Date(2023, 3, 5, 13, 10, 0, 0, time.UTC), want: day},
		{name: "nil", in: nil, want: nil},
		{name: "garbage", in: "bad-date", want: nil},
		{name: "empty", in: "", want: nil},
		{name: "month overflow", in: "2023-13-01", want: nil},
		{name: "day overflow", in: "2023-02-31", want: nil},
		{name: "trailing garbage", in: "2023-03-05x12", want: nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := coerceDate(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("coerceDate(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCoerceNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want float64
	}{
		{name: "decimal", in: "12.5", want: 12.5},
		{name: "integer", in: "750", want: 750},
		{name: "negative", in: "-3.2", want: -3.2},
		{name: "scientific", in: "1e3", want: 1000},
		{name: "garbage", in: "oops", want: 0},
		{name: "grouped digits", in: "1,234.5", want: 0},
		{name: "nil", in: nil, want: 0},
		{name: "already typed", in: 8.25, want: 8.25},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := coerceNumber(tt.in)
			f, ok := got.(float64)
			if !ok {
				t.Fatalf("coerceNumber(%v) = %T, want float64", tt.in, got)
			}
			if f != tt.want {
				t.Fatalf("coerceNumber(%v) = %v, want %v", tt.in, f, tt.want)
			}
		})
	}
}

func TestParseISODate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in string
		ok bool
	}{
		{in: "2023-03-05", ok: true},
		{in: "2023-03-05T23:59:59", ok: true},
		{in: "2023-03-05 00:00:00", ok: true},
		{in: "2023-3-5", ok: false},
		{in: "20230305", ok: false},
		{in: "2023/03/05", ok: false},
		{in: "yyyy-mm-dd", ok: false},
		{in: "", ok: false},
	}

	for _, tt := range tests {
		if _, ok := parseISODate(tt.in); ok != tt.ok {
			t.Errorf("parseISODate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
	}
}

func BenchmarkApply(b *testing.B) {
	plan := NewPlan(schema.Columns)

	template := make([]any, len(schema.Columns))
	for i, col := range schema.Columns {
		switch {
		case col == schema.DateColumn:
			template[i] = "2023-03-05T00:00:00.000"
		case schema.IsNumeric(col):
			template[i] = "12.5"
		default:
			template[i] = "some text value"
		}
	}

	const batch = 1000
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		rows := make([][]any, batch)
		for j := range rows {
			row := make([]any, len(template))
			copy(row, template)
			rows[j] = row
		}
		b.StartTimer()
		plan.Apply(rows)
	}
}
