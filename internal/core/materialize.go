package core

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Measure is a quantity with its unit.
type Measure struct {
	Value float64 `json:"value"`
	Units string  `json:"units"`
}

// ServingSize holds the raw and household serving measures.
type ServingSize struct {
	Raw       Measure `json:"raw"`
	Household Measure `json:"household"`
}

// MacroValues holds the four pivoted nutrient values.
type MacroValues struct {
	Calories float64 `json:"calories"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Protein  float64 `json:"protein"`
}

// FinalProduct is one denormalized food item of the output document.
type FinalProduct struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Manufacturer string      `json:"manufacturer"`
	Macros       MacroValues `json:"macros"`
	Serving      ServingSize `json:"serving"`
}

// joinRow scans one row of a join target table.
type joinRow struct {
	FoodID         int64           `db:"food_id"`
	Name           sql.NullString  `db:"name"`
	Manufacturer   sql.NullString  `db:"manufacturer"`
	Calories       sql.NullFloat64 `db:"calories"`
	Carbs          sql.NullFloat64 `db:"carbs"`
	Fat            sql.NullFloat64 `db:"fat"`
	Protein        sql.NullFloat64 `db:"protein"`
	ServingValue   sql.NullFloat64 `db:"serving_value"`
	ServingUnit    sql.NullString  `db:"serving_unit"`
	HouseholdValue sql.NullFloat64 `db:"household_value"`
	HouseholdUnit  sql.NullString  `db:"household_unit"`
}

// product maps the row to its output shape; absent values become zero.
func (r joinRow) product() FinalProduct {
	return FinalProduct{
		ID:           r.FoodID,
		Name:         r.Name.String,
		Manufacturer: r.Manufacturer.String,
		Macros: MacroValues{
			Calories: r.Calories.Float64,
			Carbs:    r.Carbs.Float64,
			Fat:      r.Fat.Float64,
			Protein:  r.Protein.Float64,
		},
		Serving: ServingSize{
			Raw:       Measure{Value: r.ServingValue.Float64, Units: r.ServingUnit.String},
			Household: Measure{Value: r.HouseholdValue.Float64, Units: r.HouseholdUnit.String},
		},
	}
}

// Materialize reads a join target table into FinalProduct values in food id
// order. The result is never nil.
func Materialize(ctx context.Context, db DBTX, table string) ([]FinalProduct, error) {
	var rows []joinRow
	columns := JoinTargetDefinition(table).ColumnNames()
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY food_id", strings.Join(columns, ", "), table)
	if err := sqlx.SelectContext(ctx, db, &rows, query); err != nil {
		return nil, fmt.Errorf("materialize %s: %w", table, err)
	}

	products := make([]FinalProduct, len(rows))
	for i, r := range rows {
		products[i] = r.product()
	}
	return products, nil
}

// WriteJSON serializes products as a single JSON array.
func WriteJSON(w io.Writer, products []FinalProduct, indent bool) error {
	if products == nil {
		products = []FinalProduct{}
	}
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(products); err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	return nil
}

// WriteJSONFile writes the document to path, creating parent directories.
// The file is written next to path and renamed into place on success.
func WriteJSONFile(path string, products []FinalProduct, indent bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteJSON(tmp, products, indent); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
