package dialect

import (
	"context"
	"fmt"

	"db-image/internal/lifecycle"
)

const (
	sqliteTablesQuery = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`

	sqliteDependenciesQuery = `SELECT m.name, p."table" FROM sqlite_master m JOIN pragma_foreign_key_list(m.name) p WHERE m.type = 'table'`
)

type SqliteDialect struct {
	Base
}

func NewSqlite(env Env) *SqliteDialect {
	return &SqliteDialect{
		Base: Base{
			env:           env.withDefaults(),
			name:          "SQLite",
			tablesQuery:   sqliteTablesQuery,
			depsQuery:     sqliteDependenciesQuery,
			quote:         quoteWith(`"`, `"`),
			transactional: true,
		},
	}
}

// TruncateTableStatement uses DELETE, SQLite has no TRUNCATE.
func (d *SqliteDialect) TruncateTableStatement(table string) string {
	return "DELETE FROM " + d.EscapeTableName(table)
}

// BeforeImportTable switches off foreign key enforcement for the import
// connection. The pragma is a no-op inside an open transaction.
func (d *SqliteDialect) BeforeImportTable(ctx context.Context, conn lifecycle.Conn, table string, info *lifecycle.TableInfo) error {
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("failed to disable foreign keys for %s: %w", table, err)
	}
	return nil
}

func (d *SqliteDialect) AfterImportTable(ctx context.Context, conn lifecycle.Conn, table string, info *lifecycle.TableInfo) error {
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys for %s: %w", table, err)
	}
	return nil
}
