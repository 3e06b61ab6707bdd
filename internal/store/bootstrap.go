package store

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Bootstrap creates the catalog tables if they do not exist yet.
func (d *DB) Bootstrap(ctx context.Context) error {
	for _, stmt := range d.Dialect.TablesSQL() {
		if _, err := d.SQL.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "bootstrap catalog tables")
		}
	}
	return nil
}
