package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/cockroachdb/errors"

	"dataspace-connector/internal/metadata"
	"dataspace-connector/internal/query"
)

// SQLStore keeps each entity as a JSON document keyed by id in its own table.
// The database serialises concurrent writers; seq preserves insertion order.
//
// A Query sequence holds a connection until iteration ends. With SQLite
// (single connection) callers must not issue other store calls from inside
// the loop.
type SQLStore[T metadata.Record[T]] struct {
	db    *DB
	kind  string
	table string
}

func NewSQLStore[T metadata.Record[T]](db *DB, kind, table string) *SQLStore[T] {
	return &SQLStore[T]{db: db, kind: kind, table: table}
}

func (s *SQLStore[T]) ph(i int) string { return s.db.Dialect.Placeholder(i) }

func (s *SQLStore[T]) Create(ctx context.Context, e T) error {
	if err := e.Validate(); err != nil {
		return err
	}
	id := e.EntityID()
	body, err := json.Marshal(e)
	if err != nil {
		return errors.Wrapf(err, "encode %s %s", s.kind, id)
	}

	sqlStr := fmt.Sprintf("INSERT INTO %s (id, body) VALUES (%s, %s)", s.table, s.ph(1), s.ph(2))
	if _, err := Exec(ctx, s.db.SQL, sqlStr, id, string(body)); err != nil {
		if errors.Is(s.db.Dialect.MapError(err), ErrDuplicateID) {
			return duplicate(s.kind, id)
		}
		return errors.Wrapf(err, "create %s %s", s.kind, id)
	}
	return nil
}

func (s *SQLStore[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	sqlStr := fmt.Sprintf("SELECT body FROM %s WHERE id = %s", s.table, s.ph(1))
	var body []byte
	if err := s.db.SQL.QueryRowContext(ctx, sqlStr, id).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, notFound(s.kind, id)
		}
		return zero, errors.Wrapf(err, "get %s %s", s.kind, id)
	}
	return s.decode(id, body)
}

func (s *SQLStore[T]) Update(ctx context.Context, id string, e T) error {
	if e.EntityID() != id {
		return mismatch(s.kind, id, e.EntityID())
	}
	if err := e.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(e)
	if err != nil {
		return errors.Wrapf(err, "encode %s %s", s.kind, id)
	}

	sqlStr := fmt.Sprintf("UPDATE %s SET body = %s, updated_at = %s WHERE id = %s",
		s.table, s.ph(1), s.db.Dialect.NowExpr(), s.ph(2))
	affected, err := Exec(ctx, s.db.SQL, sqlStr, string(body), id)
	if err != nil {
		return errors.Wrapf(err, "update %s %s", s.kind, id)
	}
	if affected == 0 {
		return notFound(s.kind, id)
	}
	return nil
}

func (s *SQLStore[T]) Delete(ctx context.Context, id string) error {
	sqlStr := fmt.Sprintf("DELETE FROM %s WHERE id = %s", s.table, s.ph(1))
	affected, err := Exec(ctx, s.db.SQL, sqlStr, id)
	if err != nil {
		return errors.Wrapf(err, "delete %s %s", s.kind, id)
	}
	if affected == 0 {
		return notFound(s.kind, id)
	}
	return nil
}

// Query streams rows in insertion order and filters them in process, so
// criteria keep exactly the evaluator's semantics on every backend.
func (s *SQLStore[T]) Query(ctx context.Context, criteria []metadata.Criterion) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if err := query.Validate(criteria); err != nil {
			yield(zero, err)
			return
		}

		rows, err := s.db.SQL.QueryContext(ctx, fmt.Sprintf("SELECT id, body FROM %s ORDER BY seq", s.table))
		if err != nil {
			yield(zero, errors.Wrapf(err, "query %s", s.kind))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			var body []byte
			if err := rows.Scan(&id, &body); err != nil {
				yield(zero, errors.Wrapf(err, "scan %s", s.kind))
				return
			}
			e, err := s.decode(id, body)
			if err != nil {
				yield(zero, err)
				return
			}
			ok, err := query.MatchAll(criteria, e)
			if err != nil {
				yield(zero, err)
				return
			}
			if ok && !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, errors.Wrapf(err, "iterate %s", s.kind))
		}
	}
}

func (s *SQLStore[T]) decode(id string, body []byte) (T, error) {
	var e T
	if err := json.Unmarshal(body, &e); err != nil {
		return e, errors.Wrapf(err, "decode %s %s", s.kind, id)
	}
	return e, nil
}
