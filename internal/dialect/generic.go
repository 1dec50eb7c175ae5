package dialect

const (
	genericTablesQuery = `SELECT table_name FROM information_schema.tables WHERE table_type = 'BASE TABLE' ORDER BY table_name`

	genericDependenciesQuery = `SELECT tc.table_name, ccu.table_name
FROM information_schema.table_constraints tc
JOIN information_schema.constraint_column_usage ccu ON ccu.constraint_name = tc.constraint_name
WHERE tc.constraint_type = 'FOREIGN KEY'`
)

// GenericDialect relies on ANSI information_schema and leaves every
// identifier unescaped.
type GenericDialect struct {
	Base
}

func NewGeneric(env Env) *GenericDialect {
	return &GenericDialect{
		Base: Base{
			env:         env.withDefaults(),
			name:        "generic",
			tablesQuery: genericTablesQuery,
			depsQuery:   genericDependenciesQuery,
		},
	}
}
