package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/nutripivot/internal/core"
)

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the DDL of every durable table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeSchema(cmd.OutOrStdout())
		},
	}
}

func writeSchema(w io.Writer) error {
	defs := append(core.All(), core.JoinTargetDefinition(core.FinalTable))
	for _, def := range defs {
		if _, err := fmt.Fprintf(w, "%s;\n", def.CreateSQL()); err != nil {
			return err
		}
		for _, stmt := range def.IndexSQL() {
			if _, err := fmt.Fprintf(w, "%s;\n", stmt); err != nil {
				return err
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}
