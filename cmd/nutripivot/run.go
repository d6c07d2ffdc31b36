package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/nutripivot/internal/config"
	"github.com/JonMunkholm/nutripivot/internal/core"
	"github.com/JonMunkholm/nutripivot/internal/logging"
	"github.com/JonMunkholm/nutripivot/internal/publish"
)

// runFlags override individual configuration values.
type runFlags struct {
	inputDir   string
	output     string
	snapshot   string
	noSnapshot bool
	workDSN    string
	noPublish  bool
	quiet      bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.inputDir, "input-dir", "", "directory holding the CSV files (INPUT_DIR)")
	fs.StringVarP(&f.output, "output", "o", "", "final JSON document path (OUTPUT_JSON)")
	fs.StringVar(&f.snapshot, "snapshot", "", "durable SQLite file (SNAPSHOT_PATH)")
	fs.BoolVar(&f.noSnapshot, "no-snapshot", false, "skip the durable snapshot (SNAPSHOT=false)")
	fs.StringVar(&f.workDSN, "work-dsn", "", "working store DSN (WORK_DSN)")
	fs.BoolVar(&f.noPublish, "no-publish", false, "skip PostgreSQL publication even if configured")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "do not print the reconciliation table")
}

// apply copies changed flags onto cfg.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("input-dir") {
		cfg.Input.Dir = f.inputDir
	}
	if fs.Changed("output") {
		cfg.Output.JSONPath = f.output
	}
	if fs.Changed("snapshot") {
		cfg.Output.SnapshotPath = f.snapshot
		cfg.Output.Snapshot = true
	}
	if f.noSnapshot {
		cfg.Output.Snapshot = false
	}
	if fs.Changed("work-dsn") {
		cfg.Store.DSN = f.workDSN
	}
	if f.noPublish {
		cfg.Publish.URL = ""
	}
}

func newRunCommand() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the whole pipeline once.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runPipeline(cmd *cobra.Command, flags *runFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, _ := logging.WithRunID(cmd.Context())
	log := logging.FromContext(ctx)
	log.Info("run started", "config", cfg.String())

	store, err := core.OpenStore(ctx, cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := core.Options{
		Sources:          cfg.Input.Sources(),
		OutputPath:       cfg.Output.JSONPath,
		Indent:           cfg.Output.Indent,
		PagesPerStep:     cfg.Store.PagesPerStep,
		BatchSize:        cfg.Store.BatchSize,
		ProgressInterval: cfg.Store.ProgressInterval,
	}
	if cfg.Output.Snapshot {
		opts.SnapshotPath = cfg.Output.SnapshotPath
	}
	if !flags.quiet {
		opts.Report = cmd.OutOrStdout()
	}

	res, err := core.NewPipeline(store, opts).Run(ctx)
	if err != nil {
		return err
	}

	if cfg.Publish.Enabled() {
		if err := publishProducts(ctx, cfg.Publish, res.Products); err != nil {
			return err
		}
	}

	log.Info("run complete",
		"products", len(res.Products),
		"excluded", res.Excluded(),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return nil
}

func publishProducts(ctx context.Context, cfg config.PublishConfig, products []core.FinalProduct) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	pool, err := publish.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	defer pool.Close()

	n, err := publish.New(pool, cfg.Table).Publish(ctx, products)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	logging.FromContext(ctx).Info("products published", "table", cfg.Table, "rows", n)
	return nil
}
