package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
)

// Default loader settings.
const (
	DefaultBatchSize        = 100_000
	DefaultProgressInterval = 1_000_000
)

// LoadOptions configures a bulk load.
type LoadOptions struct {
	// BatchSize is the number of rows inserted per transaction.
	BatchSize int

	// ProgressInterval is the number of rows between OnProgress calls.
	ProgressInterval int

	// BytesTotal is the source size, if known, for byte-based progress.
	BytesTotal int64

	OnProgress ProgressCallback
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	return o
}

// CreateTable drops and recreates the table for def.
func CreateTable(ctx context.Context, db DBTX, def TableDefinition) error {
	if err := dropTables(ctx, db, def.Info.Key); err != nil {
		return &SchemaError{Table: def.Info.Key, Op: "drop", Err: err}
	}
	if _, err := db.ExecContext(ctx, def.CreateSQL()); err != nil {
		return &SchemaError{Table: def.Info.Key, Op: "create", Err: err}
	}
	return nil
}

// CreateIndexes creates the secondary indexes declared by def.
func CreateIndexes(ctx context.Context, db DBTX, def TableDefinition) error {
	for _, stmt := range def.IndexSQL() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return &SchemaError{Table: def.Info.Key, Op: "index", Err: err}
		}
	}
	return nil
}

// batchInserter owns the transaction and prepared insert of one batch.
type batchInserter struct {
	store *Store
	def   TableDefinition
	tx    *sqlx.Tx
	stmt  *sqlx.Stmt
	rows  int
}

func (b *batchInserter) begin(ctx context.Context) error {
	tx, err := b.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s batch: %w", b.def.Info.Key, err)
	}
	stmt, err := tx.PreparexContext(ctx, b.def.InsertSQL())
	if err != nil {
		tx.Rollback()
		return &SchemaError{Table: b.def.Info.Key, Op: "prepare insert", Err: err}
	}
	b.tx, b.stmt, b.rows = tx, stmt, 0
	return nil
}

func (b *batchInserter) insert(ctx context.Context, rec Record) error {
	values := rec.Values()
	if len(values) != len(b.def.Columns) {
		return &SchemaError{
			Table: b.def.Info.Key,
			Op:    "insert",
			Err:   fmt.Errorf("record has %d values, table has %d columns", len(values), len(b.def.Columns)),
		}
	}
	if _, err := b.stmt.ExecContext(ctx, values...); err != nil {
		return err
	}
	b.rows++
	return nil
}

func (b *batchInserter) commit() error {
	if b.tx == nil {
		return nil
	}
	b.stmt.Close()
	err := b.tx.Commit()
	b.tx, b.stmt = nil, nil
	if err != nil {
		return fmt.Errorf("commit %s batch: %w", b.def.Info.Key, err)
	}
	return nil
}

func (b *batchInserter) abort() {
	if b.tx == nil {
		return
	}
	b.stmt.Close()
	b.tx.Rollback()
	b.tx, b.stmt = nil, nil
}

// Load creates the table for def and streams every record decoded from src
// into it, in source order. It returns the number of rows inserted.
//
// Batches already committed stay in the table when a later row fails; the
// caller must discard the store after any error.
func Load(ctx context.Context, store *Store, def TableDefinition, src io.Reader, opts LoadOptions) (int64, error) {
	opts = opts.withDefaults()

	if err := CreateTable(ctx, store.db, def); err != nil {
		return 0, err
	}

	counter := WrapForStreaming(src, opts.BytesTotal)
	reader, err := NewRecordReader(def, counter)
	if err != nil {
		return 0, err
	}

	report := func(rows int64) {
		if opts.OnProgress != nil {
			opts.OnProgress(Progress{
				Phase:      PhaseLoading,
				Table:      def.Info.Key,
				Rows:       rows,
				BytesRead:  counter.BytesRead,
				BytesTotal: counter.Total,
			})
		}
	}

	batch := &batchInserter{store: store, def: def}
	defer batch.abort()

	var rows int64
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, err
		}

		if batch.tx == nil {
			if err := batch.begin(ctx); err != nil {
				return rows, err
			}
		}
		if err := batch.insert(ctx, rec); err != nil {
			var schemaErr *SchemaError
			if errors.As(err, &schemaErr) {
				return rows, err
			}
			return rows, fmt.Errorf("insert %s line %d: %w", def.Info.Key, reader.Line(), err)
		}
		rows++

		if batch.rows >= opts.BatchSize {
			if err := batch.commit(); err != nil {
				return rows, err
			}
		}
		if rows%int64(opts.ProgressInterval) == 0 {
			report(rows)
		}
	}

	if err := batch.commit(); err != nil {
		return rows, err
	}

	stored, err := countRows(ctx, store.db, def.Info.Key)
	if err != nil {
		return rows, err
	}
	if stored != rows {
		return rows, &ConsistencyError{Check: "row count " + def.Info.Key, Want: rows, Got: stored}
	}

	report(rows)
	return rows, nil
}
