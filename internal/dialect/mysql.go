package dialect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"db-image/internal/catalog"
	"db-image/internal/command"
	"db-image/internal/lifecycle"
)

const (
	mysqlTablesQuery = `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`

	mysqlDependenciesQuery = `SELECT TABLE_NAME, REFERENCED_TABLE_NAME FROM information_schema.KEY_COLUMN_USAGE WHERE TABLE_SCHEMA = DATABASE() AND REFERENCED_TABLE_NAME IS NOT NULL`
)

type MysqlDialect struct {
	Base
}

func NewMysql(env Env) *MysqlDialect {
	return &MysqlDialect{
		Base: Base{
			env:         env.withDefaults(),
			name:        "MySQL",
			tablesQuery: mysqlTablesQuery,
			depsQuery:   mysqlDependenciesQuery,
			quote:       quoteWith("`", "`"),
		},
	}
}

// ModifyConstraints only reports: FOREIGN_KEY_CHECKS is a session variable,
// switched on the import connection by the table hooks.
func (d *MysqlDialect) ModifyConstraints(ctx context.Context, tables TableSet, enable bool) (time.Duration, error) {
	start := time.Now()
	d.notice(fmt.Sprintf("Constraint %s is applied per import connection on MySQL (FOREIGN_KEY_CHECKS)", verb(enable)))
	return time.Since(start), nil
}

// ModifyIndexes toggles non-unique index maintenance per table. InnoDB
// accepts the statement and ignores it.
func (d *MysqlDialect) ModifyIndexes(ctx context.Context, tables TableSet, enable bool) (time.Duration, error) {
	start := time.Now()
	action := "DISABLE"
	if enable {
		action = "ENABLE"
	}

	all, err := catalog.Strings(ctx, d.env.Catalog, d.tablesQuery)
	if err != nil {
		return time.Since(start), err
	}
	set := command.NewSet()
	for _, table := range all {
		if !tables.Contains(table) {
			continue
		}
		set.Add(table,
			fmt.Sprintf("%s keys on table %s", title(verb(enable)), table),
			fmt.Sprintf("ALTER TABLE %s %s KEYS", d.EscapeTableName(table), action))
	}
	if set.Len() == 0 {
		return time.Since(start), nil
	}
	_, err = d.env.Executor.Run(ctx, set, d.policy(false))
	return time.Since(start), err
}

func (d *MysqlDialect) BeforeImportTable(ctx context.Context, conn lifecycle.Conn, table string, info *lifecycle.TableInfo) error {
	if _, err := conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0"); err != nil {
		return mysqlError("failed to disable foreign key checks for "+table, err)
	}
	return nil
}

func (d *MysqlDialect) AfterImportTable(ctx context.Context, conn lifecycle.Conn, table string, info *lifecycle.TableInfo) error {
	if _, err := conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1"); err != nil {
		return mysqlError("failed to enable foreign key checks for "+table, err)
	}
	return nil
}

// mysqlError adds the server error number to msg when err comes from the server.
func mysqlError(msg string, err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return fmt.Errorf("%s (MySQL error %d): %w", msg, myErr.Number, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
