package tables

import "github.com/JonMunkholm/nutripivot/internal/core"

// Serving is one serving size of a food. A food may have several (raw,
// prepared) or none. Empty size cells decode to nil.
type Serving struct {
	FoodID         int64    `csv:"food_id"`
	Value          *float64 `csv:"value"`
	Unit           string   `csv:"unit"`
	HouseholdValue *float64 `csv:"household_value"`
	HouseholdUnit  string   `csv:"household_unit"`
	PrepState      string   `csv:"prep_state"`
}

// Values implements core.Record.
func (s *Serving) Values() []any {
	return []any{s.FoodID, s.Value, s.Unit, s.HouseholdValue, s.HouseholdUnit, s.PrepState}
}

func init() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{Key: "serving", Label: "Serving sizes", Order: 3},
		Columns: []core.Column{
			{Name: "food_id", Type: core.TypeInteger, NotNull: true, Required: true},
			{Name: "value", Type: core.TypeReal},
			{Name: "unit", Type: core.TypeText},
			{Name: "household_value", Type: core.TypeReal},
			{Name: "household_unit", Type: core.TypeText},
			{Name: "prep_state", Type: core.TypeText},
		},
		Aliases: map[string]string{
			"ndb_no":                     "food_id",
			"ndb_number":                 "food_id",
			"serving_size":               "value",
			"serving_size_uom":           "unit",
			"household_serving_size":     "household_value",
			"household_serving_size_uom": "household_unit",
			"preparation_state":          "prep_state",
		},
		Indexes: []core.Index{
			{Name: "idx_serving_food", Columns: []string{"food_id"}},
		},
		NewRecord: func() core.Record { return &Serving{} },
	})
}
