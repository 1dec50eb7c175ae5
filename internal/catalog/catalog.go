// Package catalog runs metadata queries against the database catalog and
// hands each result row to a callback.
package catalog

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Row is a single result row. *sqlx.Rows and *sql.Rows satisfy it.
type Row interface {
	Scan(dest ...any) error
}

// RowHandler is invoked once per result row.
type RowHandler func(row Row) error

// Querier executes a catalog query and feeds every row to fn.
type Querier interface {
	ExecuteQuery(ctx context.Context, query string, fn RowHandler, args ...any) error
}

// ReadOnlyTx is a transaction used only for reading metadata.
// It is always rolled back.
type ReadOnlyTx interface {
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	Rollback() error
}

// TxSupplier opens a transaction for read-only metadata access. nil opts
// selects the driver defaults.
type TxSupplier func(ctx context.Context, opts *sql.TxOptions) (ReadOnlyTx, error)

// DB is a Querier backed by a connection pool.
type DB struct {
	db *sqlx.DB
}

func New(db *sql.DB, driverName string) *DB {
	return &DB{db: sqlx.NewDb(db, driverName)}
}

func (d *DB) ExecuteQuery(ctx context.Context, query string, fn RowHandler, args ...any) error {
	rows, err := d.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return &QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return &QueryError{Query: query, Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return &QueryError{Query: query, Err: err}
	}
	return nil
}

// ReadOnly returns a supplier of fresh transactions on the pool.
func (d *DB) ReadOnly() TxSupplier {
	return func(ctx context.Context, opts *sql.TxOptions) (ReadOnlyTx, error) {
		tx, err := d.db.BeginTxx(ctx, opts)
		if err != nil {
			return nil, err
		}
		return tx, nil
	}
}

// Collect runs query and aggregates the value fn produces for each row.
func Collect[T any](ctx context.Context, q Querier, query string, fn func(Row) (T, error), args ...any) ([]T, error) {
	var out []T
	err := q.ExecuteQuery(ctx, query, func(row Row) error {
		v, err := fn(row)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	}, args...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Strings collects the first column of every row.
func Strings(ctx context.Context, q Querier, query string, args ...any) ([]string, error) {
	return Collect(ctx, q, query, func(row Row) (string, error) {
		var s sql.NullString
		if err := row.Scan(&s); err != nil {
			return "", err
		}
		return s.String, nil
	}, args...)
}

// Pairs collects the first two columns of every row, e.g. (table, constraint).
func Pairs(ctx context.Context, q Querier, query string, args ...any) ([][2]string, error) {
	return Collect(ctx, q, query, func(row Row) ([2]string, error) {
		var a, b sql.NullString
		if err := row.Scan(&a, &b); err != nil {
			return [2]string{}, err
		}
		return [2]string{a.String, b.String}, nil
	}, args...)
}
