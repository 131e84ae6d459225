// Package db opens the Postgres pool behind repository.PostgresStore and
// applies its schema.
package db

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiva/tripplanner/config"
)

const (
	connectTimeout    = 5 * time.Second
	healthTimeout     = 2 * time.Second
	healthCheckPeriod = 30 * time.Second
	maxConnLifetime   = time.Hour
	maxConnIdleTime   = 15 * time.Minute
)

// NewPostgresPool opens a pool sized from cfg and fails fast when the
// server does not answer a ping within connectTimeout.
func NewPostgresPool(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.HealthCheckPeriod = healthCheckPeriod
	poolCfg.MaxConnLifetime = maxConnLifetime
	poolCfg.MaxConnIdleTime = maxConnIdleTime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "tripplanner"

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.DBName, err)
	}
	return pool, nil
}

// Execer is the part of pgxpool.Pool that ApplyMigrations needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ApplyMigrations runs every *.up.sql file in migrations in name order.
// The schema files are idempotent, so this is safe on every start.
func ApplyMigrations(ctx context.Context, db Execer, migrations fs.FS) (int, error) {
	names, err := fs.Glob(migrations, "*.up.sql")
	if err != nil {
		return 0, fmt.Errorf("postgres: list migrations: %w", err)
	}
	sort.Strings(names)

	for i, name := range names {
		sql, err := fs.ReadFile(migrations, name)
		if err != nil {
			return i, fmt.Errorf("postgres: read migration %s: %w", name, err)
		}
		if _, err := db.Exec(ctx, string(sql)); err != nil {
			return i, fmt.Errorf("postgres: apply migration %s: %w", name, err)
		}
		log.Printf("[db] applied %s", name)
	}
	return len(names), nil
}

// HealthCheck reports whether the plan store's database answers a ping.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return pool.Ping(pingCtx)
}
