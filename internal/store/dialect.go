package store

import (
	"context"
	"database/sql"
)

// Dialect abstracts database-specific SQL generation and behavior.
type Dialect interface {
	// Name returns "postgres" or "sqlite".
	Name() string

	// DriverName returns the database/sql driver name ("pgx" or "sqlite").
	DriverName() string

	// Placeholder returns the parameter placeholder for the given 1-based index.
	Placeholder(index int) string

	// NowExpr returns the SQL expression for the current timestamp.
	NowExpr() string

	// TablesSQL returns the DDL statements for the catalog tables.
	TablesSQL() []string

	// Prepare applies connection settings right after the database is opened.
	Prepare(ctx context.Context, db *sql.DB) error

	// MapError marks unique violations with ErrDuplicateID and passes
	// every other error through.
	MapError(err error) error
}

// NewDialect creates a Dialect for the given driver name ("postgres" or "sqlite").
func NewDialect(driver string) Dialect {
	switch driver {
	case DriverSQLite:
		return &SQLiteDialect{}
	default:
		return &PostgresDialect{}
	}
}

const (
	tableAssets    = "edc_asset"
	tablePolicies  = "edc_policy_definition"
	tableContracts = "edc_contract_definition"
)

var catalogTables = []string{tableAssets, tablePolicies, tableContracts}
