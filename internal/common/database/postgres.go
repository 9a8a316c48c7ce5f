package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"deal-intake/internal/common/config"

	_ "github.com/lib/pq"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// ValidTableName reports whether name is safe to interpolate into SQL.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}

// EnsureOffersTable creates the offers table when it does not exist yet.
func EnsureOffersTable(ctx context.Context, db *sql.DB, table string) error {
	if !ValidTableName(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id           UUID PRIMARY KEY,
			batch_id     TEXT NOT NULL,
			company_name TEXT NOT NULL,
			geo          TEXT NOT NULL,
			language     TEXT NOT NULL,
			source       TEXT NOT NULL,
			funnels      JSONB NOT NULL,
			cpa          NUMERIC,
			crg          NUMERIC,
			cpl          NUMERIC,
			deduction    NUMERIC,
			created_at   TIMESTAMPTZ NOT NULL
		)`, table))
	if err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}
