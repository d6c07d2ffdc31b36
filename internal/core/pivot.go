package core

import (
	"context"
	"fmt"
)

// Macro is one pivoted nutrient.
type Macro struct {
	Name  string // Output field: "calories"
	Code  int    // Nutrient code in the nutrients table
	Table string // Scratch table holding (food_id, value)
}

// Macros are the four pivoted nutrient codes in output order.
var Macros = []Macro{
	{Name: "calories", Code: 208, Table: "macro_energy"},
	{Name: "carbs", Code: 205, Table: "macro_carbs"},
	{Name: "fat", Code: 204, Table: "macro_fat"},
	{Name: "protein", Code: 203, Table: "macro_protein"},
}

// foodUniverseSQL selects every distinct product food id.
const foodUniverseSQL = "SELECT DISTINCT id FROM products"

// BuildPivots creates one scratch table per macro holding exactly one row per
// product food id. Food ids without a measurement for the code get 0; when a
// food id has several measurements, the largest wins.
func BuildPivots(ctx context.Context, db DBTX) error {
	for _, m := range Macros {
		if err := buildPivot(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

func buildPivot(ctx context.Context, db DBTX, m Macro) error {
	if err := dropTables(ctx, db, m.Table); err != nil {
		return &SchemaError{Table: m.Table, Op: "drop", Err: err}
	}

	create := fmt.Sprintf(
		"CREATE TABLE %s (food_id INTEGER PRIMARY KEY, value REAL NOT NULL DEFAULT 0)", m.Table)
	if _, err := db.ExecContext(ctx, create); err != nil {
		return &SchemaError{Table: m.Table, Op: "create", Err: err}
	}

	fill := fmt.Sprintf(`INSERT INTO %s (food_id, value)
SELECT u.id, COALESCE(MAX(n.value), 0)
FROM (%s) u
LEFT OUTER JOIN nutrients n ON n.food_id = u.id AND n.nutrient_code = ?
GROUP BY u.id`, m.Table, foodUniverseSQL)
	if _, err := db.ExecContext(ctx, fill, m.Code); err != nil {
		return fmt.Errorf("pivot %s (%d): %w", m.Name, m.Code, err)
	}
	return nil
}

// FoodUniverse returns the number of distinct product food ids.
func FoodUniverse(ctx context.Context, db DBTX) (int64, error) {
	return countRows(ctx, db, "("+foodUniverseSQL+")")
}

// PivotTables returns the scratch table names of the macro pivots.
func PivotTables() []string {
	tables := make([]string, len(Macros))
	for i, m := range Macros {
		tables[i] = m.Table
	}
	return tables
}
