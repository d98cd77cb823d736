// Registration of the SQLite backend with the storage factory. Callers reach
// this backend through storage.New("sqlite", ...) without importing the
// package directly; registration happens in init.

package sqlite

import (
	"context"
	"fmt"

	"github.com/sundar139/IOWA-Liquor-Sales/internal/ddl"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/storage"
	sqliteddl "github.com/sundar139/IOWA-Liquor-Sales/internal/storage/sqlite/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid opening a real database.
var newRepository = NewRepository

// wrappedRepo adapts *sqlite.Repository to the storage.Repository interface,
// adding a Close method that calls the cleanup function returned by
// NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// Ensure wrappedRepo satisfies the interface at compile time.
var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("sqlite",
		func(ctx context.Context, repo storage.Repository, defs []ddl.TableDef) error {
			if err := sqliteddl.EnsureTables(ctx, repo, defs); err != nil {
				return fmt.Errorf("apply DDL: %w", err)
			}
			return nil
		})
}
