// Package postgres opens the database handles and applies the schema.
// Entity repositories use database/sql over lib/pq; the audit sink and the
// migrator use a pgx pool.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"medplant/internal/platform/config"
)

type DB struct {
	SQL  *sql.DB
	Pool *pgxpool.Pool
}

func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxOpenConns / 2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	if cfg.MaxPoolConns > 0 {
		poolCfg.MaxConns = cfg.MaxPoolConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create pool: %w", err)
	}

	return &DB{SQL: sqlDB, Pool: pool}, nil
}

// Health pings both handles.
func (d *DB) Health(ctx context.Context) error {
	if err := d.SQL.PingContext(ctx); err != nil {
		return err
	}
	return d.Pool.Ping(ctx)
}

func (d *DB) Close() {
	d.Pool.Close()
	_ = d.SQL.Close()
}
