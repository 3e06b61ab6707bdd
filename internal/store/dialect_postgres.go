package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PostgresDialect implements Dialect for PostgreSQL via pgx.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return DriverPostgres }
func (d *PostgresDialect) DriverName() string { return "pgx" }
func (d *PostgresDialect) NowExpr() string    { return "NOW()" }

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *PostgresDialect) Prepare(context.Context, *sql.DB) error { return nil }

func (d *PostgresDialect) TablesSQL() []string {
	stmts := make([]string, 0, len(catalogTables))
	for _, table := range catalogTables {
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    seq         BIGSERIAL PRIMARY KEY,
    id          TEXT NOT NULL UNIQUE,
    body        JSONB NOT NULL,
    created_at  TIMESTAMPTZ DEFAULT NOW(),
    updated_at  TIMESTAMPTZ DEFAULT NOW()
)`, table))
	}
	return stmts
}

func (d *PostgresDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return errors.Mark(err, ErrDuplicateID)
	}
	// pgx/stdlib sometimes only leaves the code in the message
	errStr := err.Error()
	if strings.Contains(errStr, pgUniqueViolation) || strings.Contains(errStr, "duplicate key") {
		return errors.Mark(err, ErrDuplicateID)
	}
	return err
}
