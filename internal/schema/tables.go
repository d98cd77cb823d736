package schema

import (
	"github.com/sundar139/IOWA-Liquor-Sales/internal/ddl"
)

// StagingTable describes the flat landing table the loader fills from clean
// chunks. Column types are logical; each storage backend maps them to its
// own dialect. Only the key column is constrained, the rest stays nullable
// so a partially broken source row still lands.
func StagingTable(name string) ddl.TableDef {
	cols := make([]ddl.ColumnDef, 0, len(Columns))
	for _, c := range Columns {
		col := ddl.ColumnDef{Name: c, SQLType: "text", Nullable: true}
		switch {
		case c == KeyColumn:
			col.Nullable = false
			col.PrimaryKey = true
		case c == DateColumn:
			col.SQLType = "date"
		case IsNumeric(c):
			col.SQLType = "numeric"
			col.Nullable = false
		}
		cols = append(cols, col)
	}
	return ddl.TableDef{FQN: name, Columns: cols}
}

// Star schema table names. DimTables lists dimensions in creation and
// population order; FactTable depends on all of them.
const (
	DimStoreTable    = "dim_store"
	DimDateTable     = "dim_date"
	DimItemTable     = "dim_item"
	DimVendorTable   = "dim_vendor"
	DimCategoryTable = "dim_category"
	FactTable        = "fact_sales"
)

// DimDateColumns is the insert order for dim_date rows built in Go from the
// distinct staged dates.
var DimDateColumns = []string{"date", "year", "quarter", "month", "day_of_week", "is_weekend"}

// StarTables returns the star schema definitions in dependency order:
// every dimension strictly before the fact table.
func StarTables() []ddl.TableDef {
	return []ddl.TableDef{
		{
			FQN: DimStoreTable,
			Columns: []ddl.ColumnDef{
				{Name: "store", SQLType: "text", PrimaryKey: true},
				{Name: "name", SQLType: "text", Nullable: true},
				{Name: "address", SQLType: "text", Nullable: true},
				{Name: "city", SQLType: "text", Nullable: true},
				{Name: "zipcode", SQLType: "text", Nullable: true},
				{Name: "location", SQLType: "text", Nullable: true},
				{Name: "county_number", SQLType: "text", Nullable: true},
				{Name: "county", SQLType: "text", Nullable: true},
			},
		},
		{
			FQN: DimDateTable,
			Columns: []ddl.ColumnDef{
				{Name: "date", SQLType: "date", PrimaryKey: true},
				{Name: "year", SQLType: "integer"},
				{Name: "quarter", SQLType: "integer"},
				{Name: "month", SQLType: "integer"},
				{Name: "day_of_week", SQLType: "integer"},
				{Name: "is_weekend", SQLType: "boolean"},
			},
		},
		{
			FQN: DimItemTable,
			Columns: []ddl.ColumnDef{
				{Name: "itemno", SQLType: "text", PrimaryKey: true},
				{Name: "description", SQLType: "text", Nullable: true},
				{Name: "pack_size", SQLType: "numeric", Nullable: true},
				{Name: "bottle_volume_ml", SQLType: "numeric", Nullable: true},
				{Name: "bottle_cost", SQLType: "numeric", Nullable: true},
				{Name: "bottle_retail", SQLType: "numeric", Nullable: true},
			},
		},
		{
			FQN: DimVendorTable,
			Columns: []ddl.ColumnDef{
				{Name: "vendor_no", SQLType: "text", PrimaryKey: true},
				{Name: "vendor_name", SQLType: "text", Nullable: true},
			},
		},
		{
			FQN: DimCategoryTable,
			Columns: []ddl.ColumnDef{
				{Name: "category", SQLType: "text", PrimaryKey: true},
				{Name: "category_name", SQLType: "text", Nullable: true},
			},
		},
		{
			FQN: FactTable,
			Columns: []ddl.ColumnDef{
				{Name: "invoice_line_no", SQLType: "text", PrimaryKey: true},
				{Name: "date", SQLType: "date"},
				{Name: "store", SQLType: "text", Nullable: true},
				{Name: "itemno", SQLType: "text", Nullable: true},
				{Name: "vendor_no", SQLType: "text", Nullable: true},
				{Name: "category", SQLType: "text", Nullable: true},
				{Name: "sale_bottles", SQLType: "numeric"},
				{Name: "sale_dollars", SQLType: "numeric"},
				{Name: "sale_liters", SQLType: "numeric"},
				{Name: "sale_gallons", SQLType: "numeric"},
			},
		},
	}
}
