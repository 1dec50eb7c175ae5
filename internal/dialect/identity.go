package dialect

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"db-image/internal/catalog"
	"db-image/internal/filter"
)

// IdentityResolver finds the tables whose surrogate key needs an explicit
// insert override during bulk load.
type IdentityResolver struct {
	Query string
	// Options of the metadata transaction. ReadOnly must stay unset, SQL
	// Server rejects read-only transactions.
	Options *sql.TxOptions

	begin  catalog.TxSupplier
	logger *log.Logger
}

func NewIdentityResolver(begin catalog.TxSupplier, query string, logger *log.Logger) *IdentityResolver {
	if logger == nil {
		logger = log.Default()
	}
	return &IdentityResolver{Query: query, begin: begin, logger: logger}
}

// Resolve runs the identity query on a read-only transaction. The transaction
// is always rolled back; a failed rollback is only logged.
func (r *IdentityResolver) Resolve(ctx context.Context) (filter.Tables, error) {
	if r.begin == nil {
		return nil, &catalog.QueryError{Query: r.Query, Err: errors.New("no read-only connection configured")}
	}
	tx, err := r.begin(ctx, r.Options)
	if err != nil {
		return nil, &catalog.QueryError{Query: r.Query, Err: err}
	}
	defer func() {
		// nothing to commit
		if err := tx.Rollback(); err != nil {
			r.logger.Printf("Warning: unable to rollback read-only transaction: %v", err)
		}
	}()

	rows, err := tx.QueryxContext(ctx, r.Query)
	if err != nil {
		return nil, &catalog.QueryError{Query: r.Query, Err: err}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, &catalog.QueryError{Query: r.Query, Err: err}
		}
		if name.Valid {
			names = append(names, name.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &catalog.QueryError{Query: r.Query, Err: err}
	}
	return filter.NewTables(names), nil
}
