// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete storage backend to run,
// which in turn register their factories and DDL bootstrappers with the
// storage package.
//
// In other words, importing this package makes the following storage kinds
// available at runtime:
//
//   - "postgres" (internal/storage/postgres)
//   - "sqlite"   (internal/storage/sqlite)
//
// Typical usage, in cmd/etl or a similar wiring layer:
//
//	import (
//	    _ "github.com/sundar139/IOWA-Liquor-Sales/internal/storage/all"
//
//	    "github.com/sundar139/IOWA-Liquor-Sales/internal/storage"
//	)
//
//	repo, err := storage.New(ctx, storage.Config{Kind: cfg.StorageKind, DSN: cfg.ResolveDSN()})
//
// This pattern keeps backend-specific wiring in a single, small package and
// lets the pipeline stages depend only on the storage abstraction rather than
// individual backends.
package all

import (
	_ "github.com/sundar139/IOWA-Liquor-Sales/internal/storage/postgres"
	_ "github.com/sundar139/IOWA-Liquor-Sales/internal/storage/sqlite"
)
