package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/nutripivot/internal/logging"
)

// Options configures a pipeline run.
type Options struct {
	// Sources maps each registered table key to its CSV path.
	Sources map[string]string

	// OutputPath is where the JSON document is written; empty skips writing.
	OutputPath string
	Indent     bool

	// SnapshotPath is the durable store file; empty skips the snapshot.
	SnapshotPath string
	PagesPerStep int

	BatchSize        int
	ProgressInterval int

	// Report receives the reconciliation table; nil skips it.
	Report io.Writer

	// OnProgress overrides the default progress logging.
	OnProgress ProgressCallback
}

// Result describes a completed run.
type Result struct {
	Reconciliation
	Products []FinalProduct
	Duration time.Duration
}

// Pipeline runs every stage against one working store.
type Pipeline struct {
	store *Store
	opts  Options
}

// NewPipeline creates a pipeline bound to store. The store must be fresh
// or disposable: tables are dropped and recreated.
func NewPipeline(store *Store, opts Options) *Pipeline {
	return &Pipeline{store: store, opts: opts}
}

// Run performs load, pivot, join, materialize and snapshot in order.
// Any error aborts the run; the store is then in an unspecified state.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	log := logging.FromContext(ctx)
	progress := p.opts.OnProgress
	if progress == nil {
		progress = logProgress(ctx)
	}

	res := &Result{}
	log.Info("pipeline started", "store", p.store.DSN(), "tables", TableCount())

	// Load
	defs := All()
	if len(defs) == 0 {
		return nil, fmt.Errorf("no source tables registered")
	}
	for _, def := range defs {
		rows, err := p.loadTable(ctx, def, progress)
		if err != nil {
			return nil, err
		}
		res.Sources = append(res.Sources, SourceCount{Table: def.Info.Key, Rows: rows})
	}
	for _, def := range defs {
		if err := CreateIndexes(ctx, p.store.db, def); err != nil {
			return nil, err
		}
	}

	// Pivot
	if err := BuildPivots(ctx, p.store.db); err != nil {
		return nil, err
	}
	universe, err := FoodUniverse(ctx, p.store.db)
	if err != nil {
		return nil, err
	}
	res.Universe = universe
	log.Info("pivots built", "food_ids", universe)

	// Join
	if res.Full, err = Join(ctx, p.store.db, FullJoin); err != nil {
		return nil, err
	}
	if err := CheckCoverage(ctx, p.store.db); err != nil {
		return nil, err
	}
	if res.Final, err = Join(ctx, p.store.db, StrictJoin); err != nil {
		return nil, err
	}
	log.Info("joins complete", "full", res.Full, "final", res.Final, "excluded", res.Excluded())

	if p.opts.Report != nil {
		res.Reconciliation.Render(p.opts.Report)
	}

	// Materialize
	if res.Products, err = Materialize(ctx, p.store.db, FinalTable); err != nil {
		return nil, err
	}
	if p.opts.OutputPath != "" {
		if err := WriteJSONFile(p.opts.OutputPath, res.Products, p.opts.Indent); err != nil {
			return nil, err
		}
		log.Info("output written", "path", p.opts.OutputPath, "products", len(res.Products))
	}

	// Snapshot
	if err := DropScratch(ctx, p.store.db); err != nil {
		return nil, err
	}
	if p.opts.SnapshotPath != "" {
		err := Snapshot(ctx, p.store, p.opts.SnapshotPath, SnapshotOptions{
			PagesPerStep: p.opts.PagesPerStep,
			OnProgress:   progress,
		})
		if err != nil {
			return nil, err
		}
		log.Info("snapshot written", "path", p.opts.SnapshotPath)
	}

	res.Duration = time.Since(start)
	return res, nil
}

func (p *Pipeline) loadTable(ctx context.Context, def TableDefinition, progress ProgressCallback) (int64, error) {
	path, ok := p.opts.Sources[def.Info.Key]
	if !ok {
		return 0, fmt.Errorf("no source file configured for %s", def.Info.Key)
	}

	src, err := OpenSource(path)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	log := logging.WithFields(ctx, "table", def.Info.Key, "file", path)
	log.Info("load started", "bytes", humanize.Bytes(uint64(src.Size)))

	rows, err := Load(ctx, p.store, def, src, LoadOptions{
		BatchSize:        p.opts.BatchSize,
		ProgressInterval: p.opts.ProgressInterval,
		BytesTotal:       src.Size,
		OnProgress:       progress,
	})
	if err != nil {
		return rows, err
	}

	log.Info("load complete", "rows", rows)
	return rows, nil
}

// logProgress returns a callback that logs progress lines.
func logProgress(ctx context.Context) ProgressCallback {
	log := logging.FromContext(ctx)
	return func(pr Progress) {
		switch pr.Phase {
		case PhaseSnapshot:
			log.Info("snapshot progress",
				"pages", fmt.Sprintf("%s/%s", humanize.Comma(int64(pr.Pages)), humanize.Comma(int64(pr.PagesTotal))),
				"percent", pr.Percent())
		default:
			log.Info("load progress",
				"table", pr.Table,
				"rows", humanize.Comma(pr.Rows),
				"percent", pr.Percent())
		}
	}
}
