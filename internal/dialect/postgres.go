package dialect

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/lib/pq"
)

const (
	postgresTablesQuery = `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name`

	postgresDependenciesQuery = `SELECT cl.relname, ref.relname
FROM pg_constraint con
JOIN pg_class cl ON cl.oid = con.conrelid
JOIN pg_class ref ON ref.oid = con.confrelid
JOIN pg_namespace ns ON ns.oid = cl.relnamespace
WHERE con.contype = 'f' AND ns.nspname = current_schema()`

	// Foreign keys are enforced by system triggers on both the referencing
	// and the referenced table. Returns table name, trigger name.
	postgresForeignKeyTriggersQuery = `SELECT cl.relname, tg.tgname
FROM pg_trigger tg
JOIN pg_class cl ON cl.oid = tg.tgrelid
JOIN pg_namespace ns ON ns.oid = cl.relnamespace
JOIN pg_constraint con ON con.oid = tg.tgconstraint
WHERE con.contype = 'f' AND ns.nspname = current_schema()
ORDER BY cl.relname, tg.tgname`
)

type PostgresDialect struct {
	Base
}

func NewPostgres(env Env) *PostgresDialect {
	return &PostgresDialect{
		Base: Base{
			env:         env.withDefaults(),
			name:        "PostgreSQL",
			tablesQuery: postgresTablesQuery,
			depsQuery:   postgresDependenciesQuery,
			quote:       pq.QuoteIdentifier,
			types: map[string]string{
				"BLOB":     "BYTEA",
				"CLOB":     "TEXT",
				"NCLOB":    "TEXT",
				"NVARCHAR": "VARCHAR",
				"NCHAR":    "CHAR",
			},
			// large objects are not bound through the driver
			noBlobs:       true,
			transactional: true,
		},
	}
}

// ModifyConstraints disables or enables the system triggers behind every
// foreign key. Requires superuser or table ownership.
func (d *PostgresDialect) ModifyConstraints(ctx context.Context, tables TableSet, enable bool) (time.Duration, error) {
	action := "DISABLE"
	if enable {
		action = "ENABLE"
	}
	return d.toggle(ctx, postgresForeignKeyTriggersQuery, tables, false, func(table, trigger string) (string, string) {
		desc := fmt.Sprintf("%s constraint trigger %s on table %s", title(verb(enable)), trigger, table)
		stmt := fmt.Sprintf("ALTER TABLE %s %s TRIGGER %s", d.EscapeTableName(table), action, d.EscapeIdentifier(trigger))
		return desc, stmt
	})
}

// TruncateTableStatement uses DELETE: TRUNCATE is refused on any table a
// foreign key references, whether or not its triggers are disabled.
func (d *PostgresDialect) TruncateTableStatement(table string) string {
	return "DELETE FROM " + d.EscapeTableName(table)
}

// AdaptCharacterStreamInput reads the whole stream; the driver cannot bind a
// reader as character data.
func (d *PostgresDialect) AdaptCharacterStreamInput(r io.Reader) (any, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read character stream: %w", err)
	}
	return string(b), nil
}
