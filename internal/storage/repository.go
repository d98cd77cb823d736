// Package storage defines the repository interface the pipeline loads and
// derives through, plus a registry of backend factories keyed by storage
// kind. Backends register themselves from init() in their own packages;
// callers blank-import storage/all and never name a concrete backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Config selects and configures a storage backend.
type Config struct {
	// Kind names the backend ("postgres", "sqlite").
	Kind string

	// DSN is the backend-specific connection string.
	DSN string
}

// Repository is the storage surface the load and derive stages run on.
type Repository interface {
	// InsertRows appends rows to table with insert-or-skip semantics on the
	// table's primary key and reports how many were actually inserted.
	// Re-sending rows whose keys already exist is not an error.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// ExecCount runs one SQL statement and reports the affected row count.
	ExecCount(ctx context.Context, sql string) (int64, error)

	// Exec runs one SQL statement, discarding the affected count.
	Exec(ctx context.Context, sql string) error

	// SelectDates runs a query whose result is a single date column.
	SelectDates(ctx context.Context, query string) ([]time.Time, error)

	// Count reports the number of rows in table.
	Count(ctx context.Context, table string) (int64, error)

	// Close releases the underlying pool or handle.
	Close()
}

// Factory builds a Repository for a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for a storage kind. It is
// called from backend packages' init() functions.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New builds a Repository for cfg.Kind via the registered factory.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns a sorted snapshot of the registered storage kinds.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
