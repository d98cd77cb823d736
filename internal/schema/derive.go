package schema

import (
	"fmt"
	"strings"
)

// Dialect captures the two SQL spellings the derivation statements depend
// on: how a backend says insert-or-skip, and how it truncates a timestamp
// column to a calendar date.
type Dialect struct {
	Kind         string
	InsertPrefix string
	InsertSuffix string
	DateExpr     func(col string) string
}

// DialectFor returns the derivation dialect for a storage kind.
func DialectFor(kind string) (Dialect, error) {
	switch kind {
	case "postgres":
		return Dialect{
			Kind:         kind,
			InsertPrefix: "INSERT INTO",
			InsertSuffix: " ON CONFLICT DO NOTHING",
			DateExpr:     func(col string) string { return fmt.Sprintf("CAST(%s AS DATE)", col) },
		}, nil
	case "sqlite":
		return Dialect{
			Kind:         kind,
			InsertPrefix: "INSERT OR IGNORE INTO",
			DateExpr:     func(col string) string { return fmt.Sprintf("DATE(%s)", col) },
		}, nil
	default:
		return Dialect{}, fmt.Errorf("no derivation dialect for storage.kind=%s", kind)
	}
}

// Statement is one derivation step: the table it fills and the
// insert-or-skip SQL filling it from the staging table.
type Statement struct {
	Table string
	SQL   string
}

// dimSpec maps a dimension table onto the staging columns that feed it.
// target and source line up pairwise; source[0] is the natural key.
type dimSpec struct {
	table  string
	target []string
	source []string
}

var dimSpecs = []dimSpec{
	{
		table:  DimStoreTable,
		target: []string{"store", "name", "address", "city", "zipcode", "location", "county_number", "county"},
		source: []string{"store", "name", "address", "city", "zipcode", "store_location", "county_number", "county"},
	},
	{
		table:  DimItemTable,
		target: []string{"itemno", "description", "pack_size", "bottle_volume_ml", "bottle_cost", "bottle_retail"},
		source: []string{"itemno", "im_desc", "pack", "bottle_volume_ml", "state_bottle_cost", "state_bottle_retail"},
	},
	{
		table:  DimVendorTable,
		target: []string{"vendor_no", "vendor_name"},
		source: []string{"vendor_no", "vendor_name"},
	},
	{
		table:  DimCategoryTable,
		target: []string{"category", "category_name"},
		source: []string{"category", "category_name"},
	},
}

// DimensionStatements returns the insert-or-skip statements for every
// SQL-derived dimension, in population order. Rows with a NULL natural key
// never reach a dimension; when the same key shows up again with different
// attributes the first inserted row wins and the rest are skipped.
func DimensionStatements(d Dialect, staging string) []Statement {
	out := make([]Statement, 0, len(dimSpecs))
	for _, spec := range dimSpecs {
		stmt := fmt.Sprintf("%s %s (%s) SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL%s",
			d.InsertPrefix, spec.table,
			strings.Join(spec.target, ", "), strings.Join(spec.source, ", "),
			staging, spec.source[0], d.InsertSuffix)
		out = append(out, Statement{Table: spec.table, SQL: stmt})
	}
	return out
}

// factColumns is the fact_sales insert order. The staging source columns
// match by name; only the date needs truncation to day grain.
var factColumns = []string{
	"invoice_line_no", "date", "store", "itemno", "vendor_no", "category",
	"sale_bottles", "sale_dollars", "sale_liters", "sale_gallons",
}

// FactStatement returns the insert-or-skip statement for fact_sales. Rows
// missing the invoice line or the date are left out; reruns only add rows
// whose key is not present yet.
func FactStatement(d Dialect, staging string) Statement {
	sel := make([]string, len(factColumns))
	for i, c := range factColumns {
		if c == DateColumn {
			sel[i] = d.DateExpr(DateColumn) + " AS date"
			continue
		}
		sel[i] = c
	}
	stmt := fmt.Sprintf("%s %s (%s) SELECT %s FROM %s WHERE %s IS NOT NULL AND %s IS NOT NULL%s",
		d.InsertPrefix, FactTable,
		strings.Join(factColumns, ", "), strings.Join(sel, ", "),
		staging, KeyColumn, DateColumn, d.InsertSuffix)
	return Statement{Table: FactTable, SQL: stmt}
}

// DistinctDatesSQL selects the distinct non-NULL dates from the staging
// table; dim_date rows are computed in Go from the result.
func DistinctDatesSQL(staging string) string {
	return fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL", DateColumn, staging, DateColumn)
}
