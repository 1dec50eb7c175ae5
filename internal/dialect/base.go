package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"db-image/internal/catalog"
	"db-image/internal/command"
	"db-image/internal/filter"
	"db-image/internal/lifecycle"
)

// Env holds the collaborators a dialect works with.
type Env struct {
	Catalog  catalog.Querier
	Executor *command.Executor
	Ignored  *filter.IgnoredTables
	ReadOnly catalog.TxSupplier // read-only metadata transactions
	Out      io.Writer          // informational notices, one per line
	Logger   *log.Logger
}

func (e Env) withDefaults() Env {
	if e.Out == nil {
		e.Out = io.Discard
	}
	if e.Logger == nil {
		e.Logger = log.Default()
	}
	return e
}

// Base is the fallback implementation every engine embeds. Engines configure
// it instead of overriding its methods, so derived behavior such as
// TruncateTableStatement always uses the engine's quoting.
type Base struct {
	lifecycle.Nop

	env           Env
	name          string
	tablesQuery   string
	depsQuery     string
	quote         func(string) string
	types         map[string]string
	noBlobs       bool
	transactional bool
	isolation     sql.IsolationLevel
}

func (b *Base) Name() string {
	return b.name
}

// SetupConnectionDefaults sizes the pool for the worker pool plus the main and
// the read-only metadata connection.
func (b *Base) SetupConnectionDefaults(db *sql.DB, workers int) {
	if workers < 1 {
		workers = 1
	}
	db.SetMaxOpenConns(workers + 2)
	db.SetMaxIdleConns(workers + 2)
	db.SetConnMaxIdleTime(5 * time.Minute)
}

func (b *Base) IsolationLevel() sql.IsolationLevel {
	return b.isolation
}

func (b *Base) TransactionalDDL() bool {
	return b.transactional
}

// ListImportableTables returns the user tables of the catalog without the
// ignored ones.
func (b *Base) ListImportableTables(ctx context.Context) ([]string, error) {
	all, err := catalog.Strings(ctx, b.env.Catalog, b.tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	kept, ignored := b.env.Ignored.Split(all)
	if len(ignored) > 0 {
		b.env.Logger.Printf("Ignored tables: %v", ignored)
	}
	return kept, nil
}

func (b *Base) ListTableDependencies(ctx context.Context) ([][2]string, error) {
	if b.depsQuery == "" {
		return nil, nil
	}
	deps, err := catalog.Pairs(ctx, b.env.Catalog, b.depsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list table dependencies: %w", err)
	}
	return deps, nil
}

func (b *Base) EscapeIdentifier(name string) string {
	if b.quote == nil {
		return name
	}
	return b.quote(name)
}

func (b *Base) EscapeTableName(name string) string {
	return b.EscapeIdentifier(name)
}

func (b *Base) TruncateTableStatement(table string) string {
	return "TRUNCATE TABLE " + b.EscapeTableName(table)
}

func (b *Base) ModifyConstraints(ctx context.Context, tables TableSet, enable bool) (time.Duration, error) {
	return b.unsupported("Constraint", enable), nil
}

func (b *Base) ModifyIndexes(ctx context.Context, tables TableSet, enable bool) (time.Duration, error) {
	return b.unsupported("Index", enable), nil
}

func (b *Base) MapSQLType(requested string) string {
	if t, ok := b.types[strings.ToUpper(requested)]; ok {
		return t
	}
	return requested
}

func (b *Base) SupportsBlobCreation() bool {
	return !b.noBlobs
}

func (b *Base) AdaptCharacterStreamInput(r io.Reader) (any, error) {
	return r, nil
}

// ---------------------------------------------------------------------
// Helpers shared by the engines
// ---------------------------------------------------------------------

func (b *Base) notice(msg string) {
	fmt.Fprintln(b.env.Out, msg)
}

func (b *Base) unsupported(what string, enable bool) time.Duration {
	start := time.Now()
	b.notice(fmt.Sprintf("%s %s not supported on %s!", what, verb(enable), b.name))
	return time.Since(start)
}

func (b *Base) policy(serial bool) command.Policy {
	p := command.Policy{Serial: serial}
	if b.transactional {
		p.Tx = &sql.TxOptions{Isolation: b.isolation}
	}
	return p
}

// toggle turns every (table, object) pair returned by query into one command
// and runs them grouped by table. Tables outside the active set are skipped.
func (b *Base) toggle(ctx context.Context, query string, tables TableSet, serial bool, build func(table, object string) (desc, sql string)) (time.Duration, error) {
	start := time.Now()

	pairs, err := catalog.Pairs(ctx, b.env.Catalog, query)
	if err != nil {
		return time.Since(start), err
	}

	set := command.NewSet()
	for _, p := range pairs {
		if !tables.Contains(p[0]) {
			continue
		}
		desc, stmt := build(p[0], p[1])
		set.Add(p[0], desc, stmt)
	}
	if set.Len() == 0 {
		return time.Since(start), nil
	}

	_, err = b.env.Executor.Run(ctx, set, b.policy(serial))
	return time.Since(start), err
}

func verb(enable bool) string {
	if enable {
		return "enable"
	}
	return "disable"
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func quoteWith(open, end string) func(string) string {
	return func(s string) string {
		return open + strings.ReplaceAll(s, end, end+end) + end
	}
}
