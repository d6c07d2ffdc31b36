package core

import (
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
)

// SourceCount is the row count of one loaded source table.
type SourceCount struct {
	Table string
	Rows  int64
}

// Reconciliation summarizes the row counts of a run before output is
// written.
type Reconciliation struct {
	Sources  []SourceCount
	Universe int64 // Distinct product food ids
	Full     int64 // Rows of the full join
	Final    int64 // Rows of the strict join
}

// Excluded returns the number of food ids dropped by the strict join.
func (r Reconciliation) Excluded() int64 {
	return r.Full - r.Final
}

// Render writes the reconciliation as a table.
func (r Reconciliation) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.Style().Format.Header = text.FormatDefault

	t.AppendHeader(table.Row{"stage", "table", "rows"})
	for _, s := range r.Sources {
		t.AppendRow(table.Row{"load", s.Table, humanize.Comma(s.Rows)})
	}
	t.AppendRow(table.Row{"pivot", "food ids", humanize.Comma(r.Universe)})
	t.AppendRow(table.Row{"join", FullTable, humanize.Comma(r.Full)})
	t.AppendRow(table.Row{"join", FinalTable, humanize.Comma(r.Final)})
	t.AppendRow(table.Row{"join", "excluded", humanize.Comma(r.Excluded())})
	t.Render()
}
