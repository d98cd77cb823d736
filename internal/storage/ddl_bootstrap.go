package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/sundar139/IOWA-Liquor-Sales/internal/ddl"
)

// DDLApplier is a backend-specific function that maps logical table
// definitions to the backend's dialect and applies them via repo.Exec,
// creating any table that does not exist yet. Backends register their
// implementation for a storage kind at init time.
type DDLApplier func(ctx context.Context, repo Repository, defs []ddl.TableDef) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLApplier{}
)

// RegisterDDL registers (or replaces) the DDLApplier for a storage kind.
func RegisterDDL(kind string, fn DDLApplier) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureSchema applies defs through the DDLApplier registered for kind.
// Callers never see the backend dialect; they pass logical definitions and
// the already-open Repository.
func EnsureSchema(ctx context.Context, kind string, repo Repository, defs []ddl.TableDef) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL applier registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, defs)
}
