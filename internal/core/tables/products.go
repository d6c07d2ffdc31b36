package tables

import "github.com/JonMunkholm/nutripivot/internal/core"

// Product is the descriptive record of one food.
type Product struct {
	ID           int64  `csv:"id"`
	Name         string `csv:"name"`
	Source       string `csv:"source"`
	UPC          string `csv:"upc"`
	Manufacturer string `csv:"manufacturer"`
	Modified     string `csv:"modified"`
	Available    string `csv:"available"`
	Ingredients  string `csv:"ingredients"`
}

// Values implements core.Record.
func (p *Product) Values() []any {
	return []any{p.ID, p.Name, p.Source, p.UPC, p.Manufacturer, p.Modified, p.Available, p.Ingredients}
}

func init() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{Key: "products", Label: "Products", Order: 2},
		Columns: []core.Column{
			{Name: "id", Type: core.TypeInteger, NotNull: true, Required: true},
			{Name: "name", Type: core.TypeText, NotNull: true, Required: true},
			{Name: "source", Type: core.TypeText},
			{Name: "upc", Type: core.TypeText},
			{Name: "manufacturer", Type: core.TypeText},
			{Name: "modified", Type: core.TypeText},
			{Name: "available", Type: core.TypeText},
			{Name: "ingredients", Type: core.TypeText},
		},
		Aliases: map[string]string{
			"ndb_number":          "id",
			"ndb_no":              "id",
			"long_name":           "name",
			"data_source":         "source",
			"gtin_upc":            "upc",
			"date_modified":       "modified",
			"date_available":      "available",
			"ingredients_english": "ingredients",
		},
		Indexes: []core.Index{
			{Name: "idx_products_id", Columns: []string{"id"}},
		},
		NewRecord: func() core.Record { return &Product{} },
	})
}
