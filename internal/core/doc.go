// Package core reshapes the nutrient CSV extracts into the final product view.
//
// The package has no CLI dependencies; cmd/nutripivot wires it to
// configuration and logging.
//
// # Pipeline
//
// A run moves through fixed stages, each receiving the working store
// explicitly:
//
//  1. Load: every registered source table is created and filled from its CSV
//     by [Load], which decodes rows with a [RecordReader].
//  2. Pivot: [BuildPivots] extracts energy, carbohydrate, fat and protein
//     into one scratch table per nutrient code, zero-filling food ids that
//     have no measurement.
//  3. Join: [Join] combines the pivots with product and serving metadata.
//     [FullJoin] keeps every food id and feeds [CheckCoverage];
//     [StrictJoin] keeps only complete rows and fills final_products.
//  4. Materialize: [Materialize] maps final_products to [FinalProduct] values
//     and [WriteJSON] serializes them.
//  5. Snapshot: scratch tables are dropped and [Snapshot] copies the store
//     page by page into a durable file.
//
// [Pipeline.Run] performs all stages in order.
//
// # Table Catalog
//
// Source tables are registered at init time using [Register]:
//
//	core.Register(core.TableDefinition{
//	    Info:    core.TableInfo{Key: "serving", Label: "Serving sizes", Order: 3},
//	    Columns: []core.Column{{Name: "food_id", Type: core.TypeInteger, NotNull: true, Required: true}},
//	    Aliases: map[string]string{"ndb_no": "food_id"},
//	    NewRecord: func() core.Record { return &Serving{} },
//	})
//
// # Error Handling
//
// Every failure is fatal to the run. The four categories are [DecodeError],
// [SchemaError], [ConsistencyError] and [SnapshotError]; [MapError] turns
// any error into a coded [UserMessage].
package core
