package dialect

// GetDialect returns the Dialect implementation for a driver name.
func GetDialect(driver string, env Env) Dialect {
	switch driver {
	case "sqlserver", "mssql":
		return NewMSSQL(env)
	case "postgres", "postgresql", "pgx":
		return NewPostgres(env)
	case "oracle":
		return NewOracle(env)
	case "mysql":
		return NewMysql(env)
	case "sqlite", "sqlite3":
		return NewSqlite(env)
	default:
		return NewGeneric(env)
	}
}

// Ensure interface implementation
var _ Dialect = (*GenericDialect)(nil)
var _ Dialect = (*MSSQLDialect)(nil)
var _ Dialect = (*PostgresDialect)(nil)
var _ Dialect = (*OracleDialect)(nil)
var _ Dialect = (*MysqlDialect)(nil)
var _ Dialect = (*SqliteDialect)(nil)
