package dialect_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"db-image/internal/catalog"
	"db-image/internal/command"
	"db-image/internal/dialect"
	"db-image/internal/filter"
)

// fakeCatalog answers queries containing a key with canned rows.
type fakeCatalog struct {
	rows    map[string][][]string
	err     error
	queries []string
}

type fakeRow []string

func (r fakeRow) Scan(dest ...any) error {
	if len(dest) != len(r) {
		return fmt.Errorf("expected %d columns, got %d", len(r), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *sql.NullString:
			*p = sql.NullString{String: r[i], Valid: true}
		case *string:
			*p = r[i]
		default:
			return fmt.Errorf("unsupported scan target %T", d)
		}
	}
	return nil
}

func (c *fakeCatalog) ExecuteQuery(ctx context.Context, query string, fn catalog.RowHandler, args ...any) error {
	c.queries = append(c.queries, query)
	if c.err != nil {
		return &catalog.QueryError{Query: query, Err: c.err}
	}
	for key, rows := range c.rows {
		if !strings.Contains(query, key) {
			continue
		}
		for _, r := range rows {
			if err := fn(fakeRow(r)); err != nil {
				return &catalog.QueryError{Query: query, Err: err}
			}
		}
	}
	return nil
}

// execLog records statements executed on connections handed out by the executor.
type execLog struct {
	mu         sync.Mutex
	statements []string
	failOn     map[string]error

	acquired  atomic.Int32
	active    atomic.Int32
	maxActive atomic.Int32
}

func (l *execLog) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err, ok := l.failOn[query]; ok {
		return nil, err
	}
	l.mu.Lock()
	l.statements = append(l.statements, query)
	l.mu.Unlock()
	return nil, nil
}

func (l *execLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.statements...)
}

type logConn struct{ l *execLog }

func (c logConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.l.ExecContext(ctx, query, args...)
}

func (c logConn) Close() error {
	c.l.active.Add(-1)
	return nil
}

func (l *execLog) supplier() command.ConnSupplier {
	return func(ctx context.Context) (command.Conn, error) {
		l.acquired.Add(1)
		n := l.active.Add(1)
		for {
			m := l.maxActive.Load()
			if n <= m || l.maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		return logConn{l}, nil
	}
}

type harness struct {
	catalog *fakeCatalog
	conns   *execLog
	out     *bytes.Buffer
	logs    *bytes.Buffer
	env     dialect.Env
}

func newHarness(rows map[string][][]string, ignored string) *harness {
	h := &harness{
		catalog: &fakeCatalog{rows: rows},
		conns:   &execLog{},
		out:     &bytes.Buffer{},
		logs:    &bytes.Buffer{},
	}
	exec := command.NewExecutor(h.conns.supplier(), 4)
	exec.Logger = log.New(io.Discard, "", 0)
	h.env = dialect.Env{
		Catalog:  h.catalog,
		Executor: exec,
		Ignored:  filter.NewIgnoredTables(ignored),
		Out:      h.out,
		Logger:   log.New(h.logs, "", 0),
	}
	return h
}

func (h *harness) noticeLines() []string {
	s := strings.TrimSpace(h.out.String())
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

var errBoom = errors.New("boom")
