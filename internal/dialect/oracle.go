package dialect

import (
	"context"
	"fmt"
	"time"
)

const (
	oracleTablesQuery = `SELECT TABLE_NAME FROM USER_TABLES ORDER BY TABLE_NAME`

	oracleDependenciesQuery = `SELECT c.TABLE_NAME, r.TABLE_NAME FROM USER_CONSTRAINTS c JOIN USER_CONSTRAINTS r ON r.CONSTRAINT_NAME = c.R_CONSTRAINT_NAME WHERE c.CONSTRAINT_TYPE = 'R'`

	oracleForeignKeysQuery = `SELECT TABLE_NAME, CONSTRAINT_NAME FROM USER_CONSTRAINTS WHERE CONSTRAINT_TYPE = 'R' AND STATUS = '%s' ORDER BY TABLE_NAME`

	// Unique indexes must stay usable while rows are inserted.
	oracleIndexesQuery = `SELECT TABLE_NAME, INDEX_NAME FROM USER_INDEXES WHERE INDEX_TYPE = 'NORMAL' AND UNIQUENESS = 'NONUNIQUE' AND STATUS = '%s' ORDER BY TABLE_NAME`
)

type OracleDialect struct {
	Base
}

// NewOracle returns the Oracle dialect. DDL commits implicitly in Oracle,
// so command groups never run in a transaction.
func NewOracle(env Env) *OracleDialect {
	return &OracleDialect{
		Base: Base{
			env:         env.withDefaults(),
			name:        "Oracle",
			tablesQuery: oracleTablesQuery,
			depsQuery:   oracleDependenciesQuery,
			quote:       quoteWith(`"`, `"`),
			types: map[string]string{
				"BOOLEAN": "NUMBER(1)",
				"TIME":    "TIMESTAMP",
				"VARCHAR": "VARCHAR2",
			},
		},
	}
}

func (d *OracleDialect) ModifyConstraints(ctx context.Context, tables TableSet, enable bool) (time.Duration, error) {
	action, status := "DISABLE", "ENABLED"
	if enable {
		action, status = "ENABLE", "DISABLED"
	}
	query := fmt.Sprintf(oracleForeignKeysQuery, status)
	return d.toggle(ctx, query, tables, false, func(table, constraint string) (string, string) {
		desc := fmt.Sprintf("%s constraint %s on table %s", title(verb(enable)), constraint, table)
		stmt := fmt.Sprintf("ALTER TABLE %s %s CONSTRAINT %s", d.EscapeTableName(table), action, d.EscapeIdentifier(constraint))
		return desc, stmt
	})
}

// ModifyIndexes marks non-unique indexes unusable, or rebuilds them.
func (d *OracleDialect) ModifyIndexes(ctx context.Context, tables TableSet, enable bool) (time.Duration, error) {
	action, status := "UNUSABLE", "VALID"
	if enable {
		action, status = "REBUILD", "UNUSABLE"
	}
	query := fmt.Sprintf(oracleIndexesQuery, status)
	return d.toggle(ctx, query, tables, false, func(table, index string) (string, string) {
		desc := fmt.Sprintf("%s index %s on table %s", title(verb(enable)), index, table)
		stmt := fmt.Sprintf("ALTER INDEX %s %s", d.EscapeIdentifier(index), action)
		return desc, stmt
	})
}
