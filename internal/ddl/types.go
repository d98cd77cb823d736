// Package ddl holds the backend-agnostic table model the pipeline describes
// its staging and star tables with, plus a plain CREATE TABLE renderer that
// storage backends wrap with their own dialect rules.
package ddl

// ColumnDef describes one column of a table definition.
//
// SQLType carries a logical type ("text", "date", "numeric", "integer",
// "boolean"); backend ddl packages map it to their dialect before rendering.
// Default is a raw SQL expression and is emitted as-is.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef is a table name plus its ordered columns. FQN may be dotted
// ("schema.table"); renderers decide whether and how to quote it.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}
