package core

import (
	"context"
	"fmt"
	"strings"
)

// Derived table names.
const (
	FullTable  = "macros_full"
	FinalTable = "final_products"
)

// JoinPolicy parameterizes the denormalization join.
// Predicate is a SQL boolean over the aliases m0..m3 (the macro pivots in
// Macros order), p (products) and s (serving).
type JoinPolicy struct {
	Name      string
	Target    string
	Predicate string
	Scratch   bool // Target is dropped before the snapshot
}

// FullJoin admits every food id present in all four pivots.
var FullJoin = JoinPolicy{
	Name:      "full",
	Target:    FullTable,
	Predicate: "1",
	Scratch:   true,
}

// StrictJoin admits only food ids with a usable serving row and strictly
// positive values for every macro.
var StrictJoin = JoinPolicy{
	Name:      "strict",
	Target:    FinalTable,
	Predicate: strictPredicate(),
}

func strictPredicate() string {
	conds := []string{
		"s.food_id IS NOT NULL",
		"(s.value IS NOT NULL OR s.household_value IS NOT NULL)",
	}
	for i := range Macros {
		conds = append(conds, fmt.Sprintf("m%d.value > 0", i))
	}
	return strings.Join(conds, " AND ")
}

// joinColumns is the shared layout of every join target.
var joinColumns = []Column{
	{Name: "food_id", Type: TypeInteger, NotNull: true},
	{Name: "name", Type: TypeText},
	{Name: "manufacturer", Type: TypeText},
	{Name: "calories", Type: TypeReal},
	{Name: "carbs", Type: TypeReal},
	{Name: "fat", Type: TypeReal},
	{Name: "protein", Type: TypeReal},
	{Name: "serving_value", Type: TypeReal},
	{Name: "serving_unit", Type: TypeText},
	{Name: "household_value", Type: TypeReal},
	{Name: "household_unit", Type: TypeText},
}

// JoinTargetDefinition describes the table a join policy writes.
func JoinTargetDefinition(target string) TableDefinition {
	return TableDefinition{Info: TableInfo{Key: target}, Columns: joinColumns}
}

// joinSQL builds the INSERT ... SELECT for policy.
//
// Product metadata comes from the first product row of the food id. The
// serving row is the first one (source order) with a raw or household value,
// falling back to the first row. Rows are ordered by food id.
func joinSQL(policy JoinPolicy) string {
	def := JoinTargetDefinition(policy.Target)

	selects := []string{"m0.food_id", "p.name", "p.manufacturer"}
	for i := range Macros {
		selects = append(selects, fmt.Sprintf("m%d.value", i))
	}
	selects = append(selects, "s.value", "s.unit", "s.household_value", "s.household_unit")

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s)\n", policy.Target, strings.Join(def.ColumnNames(), ", "))
	fmt.Fprintf(&b, "SELECT %s\n", strings.Join(selects, ", "))
	fmt.Fprintf(&b, "FROM %s m0\n", Macros[0].Table)
	for i, m := range Macros[1:] {
		fmt.Fprintf(&b, "JOIN %s m%d ON m%d.food_id = m0.food_id\n", m.Table, i+1, i+1)
	}
	b.WriteString("LEFT JOIN products p ON p.rowid = (SELECT MIN(rowid) FROM products WHERE id = m0.food_id)\n")
	b.WriteString("LEFT JOIN serving s ON s.rowid = (\n")
	b.WriteString("    SELECT rowid FROM serving WHERE food_id = m0.food_id\n")
	b.WriteString("    ORDER BY (value IS NULL AND household_value IS NULL), rowid LIMIT 1)\n")
	fmt.Fprintf(&b, "WHERE %s\n", policy.Predicate)
	b.WriteString("ORDER BY m0.food_id")
	return b.String()
}

// Join recreates policy.Target and fills it. It returns the row count.
func Join(ctx context.Context, db DBTX, policy JoinPolicy) (int64, error) {
	if err := CreateTable(ctx, db, JoinTargetDefinition(policy.Target)); err != nil {
		return 0, err
	}

	res, err := db.ExecContext(ctx, joinSQL(policy))
	if err != nil {
		return 0, fmt.Errorf("%s join: %w", policy.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s join: %w", policy.Name, err)
	}
	return n, nil
}

// CheckCoverage verifies that every pivot and the full join hold exactly one
// row per product food id.
func CheckCoverage(ctx context.Context, db DBTX) error {
	universe, err := FoodUniverse(ctx, db)
	if err != nil {
		return err
	}

	for _, table := range append(PivotTables(), FullTable) {
		got, err := countRows(ctx, db, table)
		if err != nil {
			return err
		}
		if got != universe {
			return &ConsistencyError{Check: "pivot coverage " + table, Want: universe, Got: got}
		}
	}
	return nil
}

// ScratchTables returns every table dropped before the snapshot.
func ScratchTables() []string {
	tables := PivotTables()
	for _, p := range []JoinPolicy{FullJoin, StrictJoin} {
		if p.Scratch {
			tables = append(tables, p.Target)
		}
	}
	return tables
}

// DropScratch drops the pivot and intermediate join tables.
func DropScratch(ctx context.Context, db DBTX) error {
	return dropTables(ctx, db, ScratchTables()...)
}
