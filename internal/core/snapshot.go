package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"modernc.org/sqlite"
)

// DefaultPagesPerStep is the number of pages copied between progress reports.
const DefaultPagesPerStep = 250

// backuper is implemented by the modernc SQLite driver connection.
type backuper interface {
	NewBackup(dstURI string) (*sqlite.Backup, error)
}

// SnapshotOptions configures a snapshot.
type SnapshotOptions struct {
	PagesPerStep int
	OnProgress   ProgressCallback
}

// Snapshot copies the whole working store into a durable SQLite file at
// dest using the online backup API. It refuses to run while any scratch
// table exists. The copy is written to a temporary file beside dest and
// renamed into place only when complete; on error dest is left untouched.
func Snapshot(ctx context.Context, store *Store, dest string, opts SnapshotOptions) error {
	if opts.PagesPerStep <= 0 {
		opts.PagesPerStep = DefaultPagesPerStep
	}

	for _, table := range ScratchTables() {
		exists, err := store.TableExists(ctx, table)
		if err != nil {
			return &SnapshotError{Path: dest, Err: err}
		}
		if exists {
			return &SnapshotError{Path: dest, Err: fmt.Errorf("scratch table %s still present", table)}
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return &SnapshotError{Path: dest, Err: err}
	}
	tmp := dest + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &SnapshotError{Path: dest, Err: err}
	}

	if err := copyPages(ctx, store, tmp, opts); err != nil {
		os.Remove(tmp)
		return &SnapshotError{Path: dest, Err: err}
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return &SnapshotError{Path: dest, Err: err}
	}
	return nil
}

func copyPages(ctx context.Context, store *Store, path string, opts SnapshotOptions) error {
	conn, err := store.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	var total int
	if err := conn.QueryRowContext(ctx, "PRAGMA page_count").Scan(&total); err != nil {
		return fmt.Errorf("page count: %w", err)
	}

	return conn.Raw(func(driverConn any) error {
		b, ok := driverConn.(backuper)
		if !ok {
			return fmt.Errorf("driver connection %T does not support backup", driverConn)
		}

		bk, err := b.NewBackup(path)
		if err != nil {
			return fmt.Errorf("start backup: %w", err)
		}

		copied := 0
		for more := true; more; {
			if more, err = bk.Step(int32(opts.PagesPerStep)); err != nil {
				bk.Finish()
				return fmt.Errorf("backup step: %w", err)
			}
			copied = min(copied+opts.PagesPerStep, total)
			if !more {
				copied = total
			}
			if opts.OnProgress != nil {
				opts.OnProgress(Progress{Phase: PhaseSnapshot, Pages: copied, PagesTotal: total})
			}
		}

		if err := bk.Finish(); err != nil {
			return fmt.Errorf("finish backup: %w", err)
		}
		return nil
	})
}
