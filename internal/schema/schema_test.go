package schema

import (
	"strings"
	"testing"
	"time"
)

func TestPartsOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		date time.Time
		want DateParts
	}{
		{
			name: "saturday is weekend",
			date: time.Date(2023, 3, 4, 0, 0, 0, 0, time.UTC),
			want: DateParts{Year: 2023, Quarter: 1, Month: 3, DayOfWeek: 6, IsWeekend: true},
		},
		{
			name: "sunday is weekend",
			date: time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC),
			want: DateParts{Year: 2023, Quarter: 1, Month: 3, DayOfWeek: 0, IsWeekend: true},
		},
		{
			name: "monday is not weekend",
			date: time.Date(2023, 3, 6, 0, 0, 0, 0, time.UTC),
			want: DateParts{Year: 2023, Quarter: 1, Month: 3, DayOfWeek: 1, IsWeekend: false},
		},
		{
			name: "april starts second quarter",
			date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			want: DateParts{Year: 2024, Quarter: 2, Month: 4, DayOfWeek: 1, IsWeekend: false},
		},
		{
			name: "december ends fourth quarter",
			date: time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC),
			want: DateParts{Year: 2021, Quarter: 4, Month: 12, DayOfWeek: 5, IsWeekend: false},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := PartsOf(tc.date); got != tc.want {
				t.Errorf("PartsOf(%s) = %+v, want %+v", tc.date.Format("2006-01-02"), got, tc.want)
			}
		})
	}
}

func TestColumnsShape(t *testing.T) {
	t.Parallel()

	if len(Columns) != 24 {
		t.Fatalf("Columns has %d entries, want 24", len(Columns))
	}
	if Columns[0] != KeyColumn {
		t.Errorf("Columns[0] = %q, want %q", Columns[0], KeyColumn)
	}
	if ColumnIndex(DateColumn) != 1 {
		t.Errorf("ColumnIndex(%q) = %d, want 1", DateColumn, ColumnIndex(DateColumn))
	}
	if ColumnIndex("no_such_column") != -1 {
		t.Errorf("ColumnIndex of unknown column = %d, want -1", ColumnIndex("no_such_column"))
	}

	numeric := 0
	for _, c := range Columns {
		if IsNumeric(c) {
			numeric++
		}
	}
	if numeric != 8 {
		t.Errorf("counted %d numeric columns, want 8", numeric)
	}
	if IsNumeric(DateColumn) {
		t.Errorf("IsNumeric(%q) = true, want false", DateColumn)
	}
}

func TestStagingTable(t *testing.T) {
	t.Parallel()

	def := StagingTable("iowa_liquor_sales")
	if def.FQN != "iowa_liquor_sales" {
		t.Fatalf("table name = %q", def.FQN)
	}
	if len(def.Columns) != len(Columns) {
		t.Fatalf("staging has %d columns, want %d", len(def.Columns), len(Columns))
	}

	for _, col := range def.Columns {
		switch {
		case col.Name == KeyColumn:
			if !col.PrimaryKey || col.Nullable {
				t.Errorf("key column: got %+v, want primary key and not nullable", col)
			}
		case col.Name == DateColumn:
			if col.SQLType != "date" || !col.Nullable {
				t.Errorf("date column: got %+v, want nullable date", col)
			}
		case IsNumeric(col.Name):
			if col.SQLType != "numeric" || col.Nullable {
				t.Errorf("numeric column %s: got %+v, want non-nullable numeric", col.Name, col)
			}
		default:
			if col.SQLType != "text" || !col.Nullable {
				t.Errorf("column %s: got %+v, want nullable text", col.Name, col)
			}
		}
	}
}

func TestStarTablesOrder(t *testing.T) {
	t.Parallel()

	defs := StarTables()
	var names []string
	for _, d := range defs {
		names = append(names, d.FQN)
	}

	want := []string{DimStoreTable, DimDateTable, DimItemTable, DimVendorTable, DimCategoryTable, FactTable}
	if len(names) != len(want) {
		t.Fatalf("got tables %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("table %d = %q, want %q (dimensions must precede the fact)", i, names[i], want[i])
		}
	}

	for _, d := range defs {
		pks := 0
		for _, c := range d.Columns {
			if c.PrimaryKey {
				pks++
				if c.Nullable {
					t.Errorf("%s: primary key %s marked nullable", d.FQN, c.Name)
				}
			}
		}
		if pks != 1 {
			t.Errorf("%s: has %d primary key columns, want 1", d.FQN, pks)
		}
	}
}

func TestDimDateColumnsMatchTable(t *testing.T) {
	t.Parallel()

	for _, d := range StarTables() {
		if d.FQN != DimDateTable {
			continue
		}
		if len(d.Columns) != len(DimDateColumns) {
			t.Fatalf("dim_date has %d columns, insert order lists %d", len(d.Columns), len(DimDateColumns))
		}
		for i, c := range d.Columns {
			if c.Name != DimDateColumns[i] {
				t.Errorf("dim_date column %d = %q, insert order says %q", i, c.Name, DimDateColumns[i])
			}
		}
		return
	}
	t.Fatal("dim_date not found in StarTables")
}

func TestDialectFor(t *testing.T) {
	t.Parallel()

	pg, err := DialectFor("postgres")
	if err != nil {
		t.Fatalf("postgres dialect: %v", err)
	}
	if pg.InsertPrefix != "INSERT INTO" || pg.InsertSuffix != " ON CONFLICT DO NOTHING" {
		t.Errorf("postgres insert spelling: %q / %q", pg.InsertPrefix, pg.InsertSuffix)
	}
	if got := pg.DateExpr("date"); got != "CAST(date AS DATE)" {
		t.Errorf("postgres DateExpr = %q", got)
	}

	lite, err := DialectFor("sqlite")
	if err != nil {
		t.Fatalf("sqlite dialect: %v", err)
	}
	if lite.InsertPrefix != "INSERT OR IGNORE INTO" || lite.InsertSuffix != "" {
		t.Errorf("sqlite insert spelling: %q / %q", lite.InsertPrefix, lite.InsertSuffix)
	}
	if got := lite.DateExpr("date"); got != "DATE(date)" {
		t.Errorf("sqlite DateExpr = %q", got)
	}

	if _, err := DialectFor("oracle"); err == nil {
		t.Fatal("expected error for unknown storage kind")
	}
}

func TestDimensionStatements(t *testing.T) {
	t.Parallel()

	pg, _ := DialectFor("postgres")
	stmts := DimensionStatements(pg, "staging")
	if len(stmts) != 4 {
		t.Fatalf("got %d dimension statements, want 4", len(stmts))
	}

	byTable := map[string]string{}
	for _, s := range stmts {
		byTable[s.Table] = s.SQL
	}

	store := byTable[DimStoreTable]
	for _, frag := range []string{
		"INSERT INTO dim_store",
		"SELECT DISTINCT store, name, address, city, zipcode, store_location, county_number, county",
		"FROM staging",
		"WHERE store IS NOT NULL",
		"ON CONFLICT DO NOTHING",
	} {
		if !strings.Contains(store, frag) {
			t.Errorf("dim_store SQL missing %q:\n%s", frag, store)
		}
	}

	item := byTable[DimItemTable]
	if !strings.Contains(item, "itemno, description, pack_size, bottle_volume_ml, bottle_cost, bottle_retail") {
		t.Errorf("dim_item target columns wrong:\n%s", item)
	}
	if !strings.Contains(item, "SELECT DISTINCT itemno, im_desc, pack, bottle_volume_ml, state_bottle_cost, state_bottle_retail") {
		t.Errorf("dim_item source columns wrong:\n%s", item)
	}

	lite, _ := DialectFor("sqlite")
	for _, s := range DimensionStatements(lite, "staging") {
		if !strings.HasPrefix(s.SQL, "INSERT OR IGNORE INTO ") {
			t.Errorf("%s: sqlite statement does not use INSERT OR IGNORE:\n%s", s.Table, s.SQL)
		}
		if strings.Contains(s.SQL, "ON CONFLICT") {
			t.Errorf("%s: sqlite statement carries a conflict clause:\n%s", s.Table, s.SQL)
		}
	}
}

func TestFactStatement(t *testing.T) {
	t.Parallel()

	pg, _ := DialectFor("postgres")
	fact := FactStatement(pg, "staging")
	if fact.Table != FactTable {
		t.Fatalf("fact statement targets %q", fact.Table)
	}
	for _, frag := range []string{
		"INSERT INTO fact_sales",
		"CAST(date AS DATE) AS date",
		"WHERE invoice_line_no IS NOT NULL AND date IS NOT NULL",
		"ON CONFLICT DO NOTHING",
	} {
		if !strings.Contains(fact.SQL, frag) {
			t.Errorf("fact SQL missing %q:\n%s", frag, fact.SQL)
		}
	}

	lite, _ := DialectFor("sqlite")
	fact = FactStatement(lite, "staging")
	if !strings.Contains(fact.SQL, "DATE(date) AS date") {
		t.Errorf("sqlite fact SQL does not truncate the date:\n%s", fact.SQL)
	}
}

func TestDistinctDatesSQL(t *testing.T) {
	t.Parallel()

	got := DistinctDatesSQL("iowa_liquor_sales")
	want := "SELECT DISTINCT date FROM iowa_liquor_sales WHERE date IS NOT NULL"
	if got != want {
		t.Errorf("DistinctDatesSQL = %q, want %q", got, want)
	}
}
