package store

import (
	"context"
	"database/sql"
	"os"

	"github.com/cockroachdb/errors"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	_ "modernc.org/sqlite"             // Register sqlite as database/sql driver

	"dataspace-connector/internal/config"
)

// Querier is implemented by both *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DB wraps a database connection and its dialect.
type DB struct {
	SQL     *sql.DB
	Dialect Dialect
}

// Connect opens and pings a database for the given driver ("postgres" or "sqlite").
func Connect(ctx context.Context, driver string, cfg config.DatabaseConfig) (*DB, error) {
	dialect := NewDialect(driver)

	if dialect.Name() == DriverSQLite && cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, errors.Wrap(err, "create sqlite data dir")
		}
	}

	db, err := sql.Open(dialect.DriverName(), cfg.DSN(dialect.Name()))
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	if dialect.Name() == DriverPostgres && cfg.PoolSize > 0 {
		db.SetMaxOpenConns(cfg.PoolSize)
	}
	if err := dialect.Prepare(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping")
	}

	return &DB{SQL: db, Dialect: dialect}, nil
}

func (d *DB) Close() error {
	return d.SQL.Close()
}

// Exec executes a statement and returns the number of rows affected.
func Exec(ctx context.Context, q Querier, sqlStr string, args ...any) (int64, error) {
	result, err := q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	return n, nil
}
