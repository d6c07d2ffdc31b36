package main

import (
	"io"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the nutripivot command tree. Without a subcommand
// it behaves like "run".
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	flags := &runFlags{}

	rc := &cobra.Command{
		Use:   "nutripivot",
		Short: "Reshape nutrient CSV extracts into a denormalized product document.",
		Long: `nutripivot loads the nutrient, product, serving size and derivation CSV
extracts into a SQLite working store, pivots the energy, carbohydrate, fat
and protein measurements per food, joins them with product and serving
metadata and writes the complete products as JSON. The working store is then
copied into a durable SQLite file.

All settings come from the environment (see .env); flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, flags)
		},
	}
	flags.register(rc)

	rc.AddCommand(newRunCommand())
	rc.AddCommand(newSchemaCommand())

	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}
