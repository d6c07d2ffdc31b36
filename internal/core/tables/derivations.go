package tables

import "github.com/JonMunkholm/nutripivot/internal/core"

// Derivation describes how a nutrient value was obtained. It is a lookup
// table and does not take part in the final product join.
type Derivation struct {
	Code        string `csv:"code"`
	Description string `csv:"description"`
}

// Values implements core.Record.
func (d *Derivation) Values() []any {
	return []any{d.Code, d.Description}
}

func init() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{Key: "derivations", Label: "Derivation codes", Order: 4},
		Columns: []core.Column{
			{Name: "code", Type: core.TypeText, NotNull: true, Required: true},
			{Name: "description", Type: core.TypeText, Required: true},
		},
		Aliases: map[string]string{
			"derivation_code":        "code",
			"derivation_description": "description",
			"desc":                   "description",
		},
		NewRecord: func() core.Record { return &Derivation{} },
	})
}
