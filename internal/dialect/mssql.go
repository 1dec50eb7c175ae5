package dialect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	mssql "github.com/denisenkom/go-mssqldb"

	"db-image/internal/filter"
	"db-image/internal/lifecycle"
)

const (
	mssqlTablesQuery = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = 'dbo' AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`

	// table name, foreign key name
	mssqlForeignKeysQuery = `SELECT t.name, fk.name FROM sys.tables t INNER JOIN sys.foreign_keys fk ON t.object_id = fk.parent_object_id ORDER BY t.name`

	mssqlDependenciesQuery = `SELECT OBJECT_NAME(fk.parent_object_id), OBJECT_NAME(fk.referenced_object_id) FROM sys.foreign_keys fk`

	mssqlIdentityQuery = `SELECT name FROM sys.objects WHERE type = 'U' AND OBJECTPROPERTY(object_id, 'TableHasIdentity') = 1`

	// HasIdentityKey marks a TableInfo whose table was switched to IDENTITY_INSERT ON.
	HasIdentityKey = "hasIdentity"

	// IDENTITY_INSERT is already ON for another table of the session
	mssqlErrIdentityInsertBusy = 8107
)

type MSSQLDialect struct {
	Base

	// Identity finds the tables that need IDENTITY_INSERT during import.
	Identity *IdentityResolver

	mu         sync.Mutex
	identities filter.Tables
}

func NewMSSQL(env Env) *MSSQLDialect {
	env = env.withDefaults()
	d := &MSSQLDialect{
		Base: Base{
			env:         env,
			name:        "MSSQL",
			tablesQuery: mssqlTablesQuery,
			depsQuery:   mssqlDependenciesQuery,
			quote:       quoteWith("[", "]"),
			types: map[string]string{
				"BOOLEAN": "BIT",
				"CLOB":    "NVARCHAR(MAX)",
				"NCLOB":   "NVARCHAR(MAX)",
				"BLOB":    "VARBINARY(MAX)",
			},
			// no isolation needed for bulk load
			isolation: sql.LevelReadUncommitted,
		},
		Identity: NewIdentityResolver(env.ReadOnly, mssqlIdentityQuery, env.Logger),
	}
	d.Identity.Options = &sql.TxOptions{Isolation: d.IsolationLevel()}
	return d
}

// ModifyConstraints checks or unchecks every foreign key. The statements run
// strictly serially: SQL Server deadlocks on concurrent ALTER TABLE against
// tables that reference each other.
func (d *MSSQLDialect) ModifyConstraints(ctx context.Context, tables TableSet, enable bool) (time.Duration, error) {
	action := "NOCHECK"
	if enable {
		action = "CHECK"
	}
	return d.toggle(ctx, mssqlForeignKeysQuery, tables, true, func(table, constraint string) (string, string) {
		desc := fmt.Sprintf("%s constraint %s on table %s", title(verb(enable)), constraint, table)
		stmt := fmt.Sprintf("ALTER TABLE %s %s CONSTRAINT %s", d.EscapeTableName(table), action, d.EscapeIdentifier(constraint))
		return desc, stmt
	})
}

// TruncateTableStatement uses DELETE: SQL Server refuses TRUNCATE TABLE on
// referenced tables even with their constraints disabled.
func (d *MSSQLDialect) TruncateTableStatement(table string) string {
	return "DELETE FROM " + d.EscapeTableName(table)
}

func (d *MSSQLDialect) ImportStarted(ctx context.Context) error {
	d.mu.Lock()
	d.identities = nil
	d.mu.Unlock()
	_, err := d.identityTables(ctx)
	return err
}

func (d *MSSQLDialect) BeforeImportTable(ctx context.Context, conn lifecycle.Conn, table string, info *lifecycle.TableInfo) error {
	identities, err := d.identityTables(ctx)
	if err != nil {
		return err
	}
	if !identities.Contains(table) {
		return nil
	}
	if err := d.setIdentityInsert(ctx, conn, table, "ON"); err != nil {
		return err
	}
	if info != nil {
		info.Put(HasIdentityKey, true)
	}
	return nil
}

func (d *MSSQLDialect) AfterImportTable(ctx context.Context, conn lifecycle.Conn, table string, info *lifecycle.TableInfo) error {
	if info == nil || !info.Bool(HasIdentityKey) {
		return nil
	}
	return d.setIdentityInsert(ctx, conn, table, "OFF")
}

func (d *MSSQLDialect) setIdentityInsert(ctx context.Context, conn lifecycle.Conn, table, state string) error {
	_, err := conn.ExecContext(ctx, fmt.Sprintf("SET IDENTITY_INSERT %s %s", d.EscapeTableName(table), state))
	if err == nil {
		return nil
	}
	var msErr mssql.Error
	if errors.As(err, &msErr) && msErr.Number == mssqlErrIdentityInsertBusy {
		return fmt.Errorf("IDENTITY_INSERT is already ON for another table of this connection, cannot switch %s: %w", table, err)
	}
	return fmt.Errorf("failed to set IDENTITY_INSERT %s on %s: %w", state, table, err)
}

// identityTables resolves the identity tables once per import.
func (d *MSSQLDialect) identityTables(ctx context.Context) (filter.Tables, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.identities != nil {
		return d.identities, nil
	}
	tables, err := d.Identity.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	d.identities = tables
	return tables, nil
}
