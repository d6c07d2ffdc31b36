package tables

import "github.com/JonMunkholm/nutripivot/internal/core"

// Nutrient is one measured nutrient of a food. A food has many.
type Nutrient struct {
	FoodID         int64   `csv:"food_id"`
	NutrientCode   int64   `csv:"nutrient_code"`
	Name           string  `csv:"name"`
	DerivationCode string  `csv:"derivation_code"`
	Value          float64 `csv:"value"`
	Unit           string  `csv:"unit"`
}

// Values implements core.Record.
func (n *Nutrient) Values() []any {
	return []any{n.FoodID, n.NutrientCode, n.Name, n.DerivationCode, n.Value, n.Unit}
}

func init() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{Key: "nutrients", Label: "Nutrients", Order: 1},
		Columns: []core.Column{
			{Name: "food_id", Type: core.TypeInteger, NotNull: true, Required: true},
			{Name: "nutrient_code", Type: core.TypeInteger, NotNull: true, Required: true},
			{Name: "name", Type: core.TypeText, NotNull: true, Required: true},
			{Name: "derivation_code", Type: core.TypeText, Required: true},
			{Name: "value", Type: core.TypeReal, NotNull: true, Required: true},
			{Name: "unit", Type: core.TypeText, Required: true},
		},
		Aliases: map[string]string{
			"ndb_no":        "food_id",
			"ndb_number":    "food_id",
			"nutrient_name": "name",
			"output_value":  "value",
			"output_uom":    "unit",
		},
		Indexes: []core.Index{
			{Name: "idx_nutrients_food_code", Columns: []string{"food_id", "nutrient_code"}},
		},
		NewRecord: func() core.Record { return &Nutrient{} },
	})
}
