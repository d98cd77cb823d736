// Package schema fixes the shape of the Iowa liquor sales dataset: the
// canonical staging column order, which columns are coerced to which logical
// types, and the star schema derived from the staged rows.
package schema

// Columns is the canonical staging column order, matching the normalized
// CSV headers of the Socrata export. Chunks, the staging table and the
// derivation SQL all use this order.
var Columns = []string{
	"invoice_line_no",
	"date",
	"store",
	"name",
	"address",
	"city",
	"zipcode",
	"store_location",
	"county_number",
	"county",
	"category",
	"category_name",
	"vendor_no",
	"vendor_name",
	"itemno",
	"im_desc",
	"pack",
	"bottle_volume_ml",
	"state_bottle_cost",
	"state_bottle_retail",
	"sale_bottles",
	"sale_dollars",
	"sale_liters",
	"sale_gallons",
}

const (
	// KeyColumn uniquely identifies a transaction line across the dataset.
	KeyColumn = "invoice_line_no"

	// DateColumn holds the sale timestamp reported by the source.
	DateColumn = "date"
)

// numericColumns are the quantity and dollar fields coerced to numbers during
// transformation. Unparseable values coerce to 0, they never drop the row.
var numericColumns = map[string]struct{}{
	"pack":                {},
	"bottle_volume_ml":    {},
	"state_bottle_cost":   {},
	"state_bottle_retail": {},
	"sale_bottles":        {},
	"sale_dollars":        {},
	"sale_liters":         {},
	"sale_gallons":        {},
}

// IsNumeric reports whether col is coerced to a number by the transformer.
func IsNumeric(col string) bool {
	_, ok := numericColumns[col]
	return ok
}

// ColumnIndex returns the position of col within Columns, or -1 when the
// column is not part of the dataset.
func ColumnIndex(col string) int {
	for i, c := range Columns {
		if c == col {
			return i
		}
	}
	return -1
}
