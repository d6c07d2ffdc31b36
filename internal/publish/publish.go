// Package publish copies the final products into PostgreSQL.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/nutripivot/internal/config"
	"github.com/JonMunkholm/nutripivot/internal/core"
)

// CopyColumns lists the destination columns in the order copyRow returns
// values.
var CopyColumns = []string{
	"id", "name", "manufacturer",
	"calories", "carbs", "fat", "protein",
	"serving_value", "serving_unit", "household_value", "household_unit",
}

// Connect opens a pgx pool configured from cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.PublishConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}

// Publisher replaces the contents of one PostgreSQL table with the final
// products.
type Publisher struct {
	pool  *pgxpool.Pool
	table string
}

// New creates a publisher writing to table.
func New(pool *pgxpool.Pool, table string) *Publisher {
	return &Publisher{pool: pool, table: table}
}

// CreateSQL returns the DDL of the destination table.
func CreateSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    manufacturer TEXT NOT NULL,
    calories DOUBLE PRECISION NOT NULL,
    carbs DOUBLE PRECISION NOT NULL,
    fat DOUBLE PRECISION NOT NULL,
    protein DOUBLE PRECISION NOT NULL,
    serving_value DOUBLE PRECISION NOT NULL,
    serving_unit TEXT NOT NULL,
    household_value DOUBLE PRECISION NOT NULL,
    household_unit TEXT NOT NULL
)`, pgx.Identifier{table}.Sanitize())
}

// Publish creates the table if needed, truncates it and copies products in
// one transaction. It returns the number of rows copied.
func (p *Publisher) Publish(ctx context.Context, products []core.FinalProduct) (int64, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin publish: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, CreateSQL(p.table)); err != nil {
		return 0, fmt.Errorf("create %s: %w", p.table, err)
	}
	if _, err := tx.Exec(ctx, "TRUNCATE "+pgx.Identifier{p.table}.Sanitize()); err != nil {
		return 0, fmt.Errorf("truncate %s: %w", p.table, err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{p.table}, CopyColumns,
		pgx.CopyFromSlice(len(products), func(i int) ([]any, error) {
			return copyRow(products[i]), nil
		}))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", p.table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit publish: %w", err)
	}
	return n, nil
}

// copyRow flattens a product into CopyColumns order.
func copyRow(fp core.FinalProduct) []any {
	return []any{
		fp.ID, fp.Name, fp.Manufacturer,
		fp.Macros.Calories, fp.Macros.Carbs, fp.Macros.Fat, fp.Macros.Protein,
		fp.Serving.Raw.Value, fp.Serving.Raw.Units,
		fp.Serving.Household.Value, fp.Serving.Household.Units,
	}
}
