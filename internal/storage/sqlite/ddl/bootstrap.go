package ddl

import (
	"context"
	"fmt"

	gddl "github.com/sundar139/IOWA-Liquor-Sales/internal/ddl"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/storage"
)

// EnsureTables renders and executes a CREATE TABLE IF NOT EXISTS statement for
// each definition, in order. Existing tables are left untouched.
func EnsureTables(ctx context.Context, repo storage.Repository, defs []gddl.TableDef) error {
	for _, def := range defs {
		stmt, err := BuildCreateTableSQL(def)
		if err != nil {
			return err
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create %s: %w", def.FQN, err)
		}
	}
	return nil
}
