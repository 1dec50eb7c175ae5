package dialect

import (
	"context"
	"database/sql"
	"io"
	"time"

	"db-image/internal/lifecycle"
)

// TableSet is the set of tables currently under consideration.
type TableSet interface {
	Contains(table string) bool
}

// Dialect abstracts database-specific schema operations. A dialect is also
// the first lifecycle hook of every import.
type Dialect interface {
	lifecycle.Hook

	Name() string

	// Connection setup
	SetupConnectionDefaults(db *sql.DB, workers int)
	IsolationLevel() sql.IsolationLevel
	TransactionalDDL() bool

	// Catalog
	ListImportableTables(ctx context.Context) ([]string, error)
	// ListTableDependencies returns (table, referenced table) pairs, one per
	// foreign key column.
	ListTableDependencies(ctx context.Context) ([][2]string, error)

	// SQL text generation
	EscapeIdentifier(name string) string
	EscapeTableName(name string) string
	TruncateTableStatement(table string) string

	// Schema protections. Both return the wall-clock time spent.
	ModifyConstraints(ctx context.Context, tables TableSet, enable bool) (time.Duration, error)
	ModifyIndexes(ctx context.Context, tables TableSet, enable bool) (time.Duration, error)

	// Type and value adaptation
	MapSQLType(requested string) string
	SupportsBlobCreation() bool
	AdaptCharacterStreamInput(r io.Reader) (any, error)
}
