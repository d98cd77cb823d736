// Package postgres implements the Postgres repository on pgx v5. Bulk
// inserts COPY into a session-local temp table and flow into the target
// through INSERT ... SELECT ... ON CONFLICT DO NOTHING, so resending rows
// that already landed never duplicates them.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds Postgres repository configuration.
type Config struct {
	// DSN is the pgxpool connection string.
	DSN string
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository opens a connection pool and returns a close function for
// cleanup. The pool is pinged once so a bad DSN fails here, not on the
// first chunk.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Repository{pool: pool}, func() { pool.Close() }, nil
}

// InsertRows copies rows into a temp table shaped like the target's columns,
// then inserts temp into target with ON CONFLICT DO NOTHING. The returned
// count is the number of rows actually added; rows whose primary key is
// already present are skipped, not rewritten.
func (r *Repository) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("postgres: no columns for table %s", table)
	}

	// The temp table is session-local, so pin one connection for the whole
	// create/copy/insert sequence.
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	tmp := "tmp_" + strings.ReplaceAll(table, ".", "_")
	create := fmt.Sprintf(
		"CREATE TEMP TABLE %s AS SELECT %s FROM %s WHERE false",
		pgIdent(tmp), strings.Join(mapIdent(columns), ","), pgFQN(table),
	)
	if _, err := conn.Exec(ctx, create); err != nil {
		return 0, fmt.Errorf("create temp: %w", err)
	}
	defer func() { _, _ = conn.Exec(ctx, "DROP TABLE IF EXISTS "+pgIdent(tmp)) }()

	if _, err := conn.CopyFrom(ctx, pgx.Identifier{tmp}, columns, pgx.CopyFromRows(rows)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return 0, fmt.Errorf("copy into temp: %s (%s)", pgErr.Detail, pgErr.SQLState())
		}
		return 0, fmt.Errorf("copy into temp: %w", err)
	}

	tag, err := conn.Exec(ctx, buildInsertSelect(table, columns, tmp))
	if err != nil {
		return 0, fmt.Errorf("insert phase: %w", err)
	}
	return tag.RowsAffected(), nil
}

// buildInsertSelect renders the temp-to-target insert. The bare ON CONFLICT
// DO NOTHING matches any unique violation, which covers the single-column
// primary keys all pipeline tables use.
func buildInsertSelect(table string, columns []string, tmp string) string {
	quoted := strings.Join(mapIdent(columns), ",")
	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT DO NOTHING",
		pgFQN(table), quoted, quoted, pgIdent(tmp),
	)
}

// Exec implements storage.Repository.Exec for Postgres.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}

// ExecCount runs sql and reports the affected row count.
func (r *Repository) ExecCount(ctx context.Context, sql string) (int64, error) {
	tag, err := r.pool.Exec(ctx, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SelectDates runs a query returning a single date column and scans it.
func (r *Repository) SelectDates(ctx context.Context, query string) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Count reports the number of rows in table.
func (r *Repository) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+pgFQN(table)).Scan(&n)
	return n, err
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.fact_sales" to
// "public"."fact_sales". If no dot is present, returns a single quoted ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}
