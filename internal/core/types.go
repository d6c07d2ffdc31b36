package core

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// DBTX is the interface for store operations.
// Satisfied by both *sqlx.DB and *sqlx.Tx.
type DBTX interface {
	sqlx.ExtContext
}

// Column type affinities used by the catalog.
const (
	TypeInteger = "INTEGER"
	TypeReal    = "REAL"
	TypeText    = "TEXT"
)

// Column describes one stored column of a source table.
type Column struct {
	Name     string // Column name, also the canonical CSV header
	Type     string // SQLite type affinity
	NotNull  bool   // Declared NOT NULL
	Required bool   // Header must be present in the CSV
}

// Index describes a secondary index created after loading.
type Index struct {
	Name    string
	Columns []string
}

// TableInfo contains display information about a table.
type TableInfo struct {
	Key   string // Table name: "nutrients"
	Label string // Display name: "Nutrients"
	Order int    // Load order; lower loads first
}

// Record is a decoded CSV row of one of the source tables.
// Values returns the row in catalog column order.
type Record interface {
	Values() []any
}

// TableDefinition contains everything needed to load one source table.
type TableDefinition struct {
	Info    TableInfo
	Columns []Column

	// Aliases maps alternate header spellings (lowercased) to column names.
	Aliases map[string]string

	Indexes []Index

	// NewRecord returns a pointer to an empty record for the decoder to fill.
	NewRecord func() Record
}

// ColumnNames returns the column names in insertion order.
func (t TableDefinition) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// CreateSQL returns the CREATE TABLE statement for the table.
func (t TableDefinition) CreateSQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", t.Info.Key)
	for i, c := range t.Columns {
		fmt.Fprintf(&b, "    %s %s", c.Name, c.Type)
		if c.NotNull {
			b.WriteString(" NOT NULL")
		}
		if i < len(t.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String()
}

// InsertSQL returns the parameterized INSERT statement matching Columns.
func (t TableDefinition) InsertSQL() string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Info.Key, strings.Join(t.ColumnNames(), ", "), placeholders)
}

// IndexSQL returns one CREATE INDEX statement per declared index.
func (t TableDefinition) IndexSQL() []string {
	stmts := make([]string, len(t.Indexes))
	for i, idx := range t.Indexes {
		stmts[i] = fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			idx.Name, t.Info.Key, strings.Join(idx.Columns, ", "))
	}
	return stmts
}

// Phase indicates the current stage of a pipeline run.
type Phase string

const (
	PhaseLoading  Phase = "loading"
	PhaseSnapshot Phase = "snapshot"
)

// Progress represents the state of a long-running load or snapshot.
type Progress struct {
	Phase Phase
	Table string // Source table being loaded

	Rows       int64 // Rows decoded so far
	BytesRead  int64
	BytesTotal int64 // 0 if unknown

	Pages      int // Pages copied so far
	PagesTotal int
}

// Fraction returns the completed share of the work in [0, 1].
// Loads use bytes, snapshots use pages.
func (p Progress) Fraction() float64 {
	switch {
	case p.Phase == PhaseSnapshot && p.PagesTotal > 0:
		return min(float64(p.Pages)/float64(p.PagesTotal), 1)
	case p.BytesTotal > 0:
		return min(float64(p.BytesRead)/float64(p.BytesTotal), 1)
	}
	return 0
}

// Percent returns the progress as a percentage (0-100).
func (p Progress) Percent() int {
	return int(p.Fraction() * 100)
}

// ProgressCallback is called periodically during loads and snapshots.
type ProgressCallback func(Progress)
