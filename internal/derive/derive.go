// Package derive populates the star schema from the staged rows.
//
// Dimensions fill strictly before the fact table, so every fact row lands
// with its dimension keys already present. All derivation steps are
// insert-or-skip on the natural key: existing rows are never updated, and a
// rerun after more data was staged adds only the rows that are new.
package derive

import (
	"context"
	"fmt"
	"log"

	"github.com/sundar139/IOWA-Liquor-Sales/internal/metrics"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/schema"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/storage"
)

// TableCount reports how many rows one derivation step added.
type TableCount struct {
	Table string
	Added int64
}

// Summary lists every derived table in population order.
type Summary struct {
	Tables []TableCount
}

// Added returns the total rows added across all derived tables.
func (s Summary) Added() int64 {
	var total int64
	for _, t := range s.Tables {
		total += t.Added
	}
	return total
}

// Run derives the full star schema from the staging table. dim_date rows are
// computed in Go from the distinct staged dates; the remaining dimensions and
// the fact table fill through set-based insert-or-skip statements in the
// backend's dialect.
func Run(ctx context.Context, repo storage.Repository, kind, staging string) (Summary, error) {
	d, err := schema.DialectFor(kind)
	if err != nil {
		return Summary{}, fmt.Errorf("derive: %w", err)
	}

	var sum Summary
	add := func(table string, n int64) {
		sum.Tables = append(sum.Tables, TableCount{Table: table, Added: n})
		log.Printf("derive: table=%s added=%d", table, n)
		metrics.RecordRows("derive", "derived", n)
	}

	n, err := deriveDates(ctx, repo, staging)
	if err != nil {
		return sum, err
	}
	add(schema.DimDateTable, n)

	for _, st := range schema.DimensionStatements(d, staging) {
		n, err := repo.ExecCount(ctx, st.SQL)
		if err != nil {
			return sum, fmt.Errorf("derive: fill %s: %w", st.Table, err)
		}
		add(st.Table, n)
	}

	st := schema.FactStatement(d, staging)
	n, err = repo.ExecCount(ctx, st.SQL)
	if err != nil {
		return sum, fmt.Errorf("derive: fill %s: %w", st.Table, err)
	}
	add(st.Table, n)

	log.Printf("derive: done tables=%d added=%d", len(sum.Tables), sum.Added())
	return sum, nil
}

// deriveDates inserts one dim_date row per distinct staged date. The calendar
// attributes come from schema.PartsOf, not from SQL, so both backends agree
// on the Sunday=0 weekday convention.
func deriveDates(ctx context.Context, repo storage.Repository, staging string) (int64, error) {
	dates, err := repo.SelectDates(ctx, schema.DistinctDatesSQL(staging))
	if err != nil {
		return 0, fmt.Errorf("derive: staged dates: %w", err)
	}
	if len(dates) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(dates))
	for i, t := range dates {
		p := schema.PartsOf(t)
		rows[i] = []any{t, int64(p.Year), int64(p.Quarter), int64(p.Month), int64(p.DayOfWeek), p.IsWeekend}
	}
	n, err := repo.InsertRows(ctx, schema.DimDateTable, schema.DimDateColumns, rows)
	if err != nil {
		return 0, fmt.Errorf("derive: fill %s: %w", schema.DimDateTable, err)
	}
	return n, nil
}
