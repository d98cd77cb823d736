// Package transform converts raw string chunks into their typed clean form.
//
// Design goals:
//   - Pure and positional: every row keeps its position and width, so a clean
//     chunk lines up 1:1 with its raw counterpart.
//   - No per-row map lookups; a per-column coercion plan is compiled once.
//   - Total coercion: a value that cannot be coerced never drops the row.
//     Unparseable dates become NULL and unparseable numeric fields become 0,
//     matching what the loader and the star schema expect downstream.
//   - Date parsing uses a zero-alloc fast path for the ISO-8601 prefix
//     emitted by the source API.
package transform

import (
	"strconv"
	"time"

	"github.com/sundar139/IOWA-Liquor-Sales/internal/chunk"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/schema"
)

// cellFn coerces a single cell value. Implementations are total: they always
// return a usable value and never report an error.
type cellFn func(any) any

// Plan is a compiled per-column coercion plan for one column layout.
// A Plan is immutable after construction and safe for concurrent use.
type Plan struct {
	fields []chunk.Field
	cells  []cellFn
}

// NewPlan compiles the coercion plan for the given columns: the date column
// coerces to a calendar date, the sales measures to float64, and everything
// else passes through as text.
func NewPlan(columns []string) Plan {
	fields := make([]chunk.Field, len(columns))
	cells := make([]cellFn, len(columns))

	for i, col := range columns {
		switch {
		case col == schema.DateColumn:
			fields[i] = chunk.Field{Name: col, Kind: chunk.KindDate}
			cells[i] = coerceDate
		case schema.IsNumeric(col):
			fields[i] = chunk.Field{Name: col, Kind: chunk.KindFloat}
			cells[i] = coerceNumber
		default:
			fields[i] = chunk.Field{Name: col, Kind: chunk.KindString}
			cells[i] = passThrough
		}
	}
	return Plan{fields: fields, cells: cells}
}

// Fields returns the typed column layout produced by Apply.
func (p Plan) Fields() []chunk.Field { return p.fields }

// Apply coerces rows in place. Row order and count are preserved; every row
// must have exactly one value per plan column.
func (p Plan) Apply(rows [][]any) {
	for _, row := range rows {
		for i, cell := range p.cells {
			row[i] = cell(row[i])
		}
	}
}

// coerceDate maps a raw cell onto a calendar date at midnight UTC, or nil
// when the value does not parse.
func coerceDate(v any) any {
	switch s := v.(type) {
	case nil:
		return nil
	case time.Time:
		y, m, d := s.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case string:
		if t, ok := parseISODate(s); ok {
			return t
		}
		// Older exports use US-style dates.
		if t, err := time.Parse("01/02/2006", s); err == nil {
			return t
		}
		return nil
	default:
		return nil
	}
}

// coerceNumber maps a raw cell onto a float64, with 0 standing in for missing
// or unparseable values.
func coerceNumber(v any) any {
	switch s := v.(type) {
	case nil:
		return 0.0
	case float64:
		return s
	case string:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0.0
		}
		return f
	default:
		return 0.0
	}
}

func passThrough(v any) any { return v }

// parseISODate implements a zero-allocation parser for the leading
// "2006-01-02" of an ISO-8601 value such as "2023-03-05T00:00:00.000".
// Any time-of-day suffix is discarded; the result is midnight UTC.
func parseISODate(s string) (time.Time, bool) {
	if len(s) < 10 || s[4] != '-' || s[7] != '-' {
		return time.Time{}, false
	}
	if len(s) > 10 && s[10] != 'T' && s[10] != ' ' {
		return time.Time{}, false
	}
	y3, y2, y1, y0 := s[0]-'0', s[1]-'0', s[2]-'0', s[3]-'0'
	m1, m0 := s[5]-'0', s[6]-'0'
	d1, d0 := s[8]-'0', s[9]-'0'
	if y3 > 9 || y2 > 9 || y1 > 9 || y0 > 9 || m1 > 9 || m0 > 9 || d1 > 9 || d0 > 9 {
		return time.Time{}, false
	}
	year := int(y3)*1000 + int(y2)*100 + int(y1)*10 + int(y0)
	mon := int(m1)*10 + int(m0)
	day := int(d1)*10 + int(d0)
	if mon < 1 || mon > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(mon), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 31 -> Mar 3); reject such inputs.
	if t.Day() != day || t.Month() != time.Month(mon) {
		return time.Time{}, false
	}
	return t, true
}
