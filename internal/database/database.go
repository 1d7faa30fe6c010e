package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/docintake/internal/config"
)

const applicationName = "docintake"

// requiredTables are the relations sign-in, upload and history write to.
var requiredTables = []string{"users", "analyses"}

// NewPool opens the connection pool and verifies it with a ping. Sessions are
// tagged with the service name in pg_stat_activity.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute
	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// ReadinessCheck reports the database ready once the intake tables exist.
type ReadinessCheck struct {
	pool   *pgxpool.Pool
	tables []string
}

func NewReadinessCheck(pool *pgxpool.Pool) *ReadinessCheck {
	return &ReadinessCheck{pool: pool, tables: requiredTables}
}

// Ping fails when the database is unreachable or a required table is missing.
func (c *ReadinessCheck) Ping(ctx context.Context) error {
	rows, err := c.pool.Query(ctx,
		`SELECT name FROM unnest($1::text[]) AS name WHERE to_regclass(name) IS NULL`, c.tables)
	if err != nil {
		return fmt.Errorf("check schema: %w", err)
	}
	missing, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("check schema: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema not migrated, missing %s", strings.Join(missing, ", "))
	}
	return nil
}
