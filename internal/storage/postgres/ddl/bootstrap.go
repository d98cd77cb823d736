package ddl

import (
	"context"
	"fmt"

	gddl "github.com/sundar139/IOWA-Liquor-Sales/internal/ddl"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/storage"
)

// EnsureTables creates every table that does not exist yet, in order. Each
// statement is an idempotent CREATE TABLE IF NOT EXISTS issued through the
// repository's Exec method, so reruns are safe and dimension tables come up
// before the fact table that references them.
func EnsureTables(ctx context.Context, repo storage.Repository, defs []gddl.TableDef) error {
	for _, def := range defs {
		sql, err := BuildCreateTableSQL(def)
		if err != nil {
			return err
		}
		if err := repo.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create %s: %w", def.FQN, err)
		}
	}
	return nil
}
