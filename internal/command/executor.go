// Package command executes generated DDL grouped by table.
//
// All statements of a table group run in order on one connection. Groups are
// independent and run either concurrently on a bounded worker pool or strictly
// one after another when the engine deadlocks under concurrent DDL.
package command

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Conn is a connection dedicated to one table group.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Close() error
}

// txConn is implemented by connections that can run a group in a transaction.
type txConn interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// ConnSupplier hands out a usable connection; the executor never pools.
type ConnSupplier func(ctx context.Context) (Conn, error)

// FromDB supplies dedicated connections from a pool.
func FromDB(db *sql.DB) ConnSupplier {
	return func(ctx context.Context) (Conn, error) {
		return db.Conn(ctx)
	}
}

// Policy selects how a Set is dispatched.
type Policy struct {
	// Serial forbids any concurrency between groups.
	Serial bool
	// Tx runs every group in one transaction when non-nil.
	Tx *sql.TxOptions
}

type Executor struct {
	Conns   ConnSupplier
	Workers int
	Logger  *log.Logger

	// OnGroup, when set, is called once a table group has finished or was
	// skipped. It may be called from several goroutines at once.
	OnGroup func(table string, err error)
}

func NewExecutor(conns ConnSupplier, workers int) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{Conns: conns, Workers: workers, Logger: log.Default()}
}

// Run executes every group of set and waits for all of them. A failing group
// does not stop the others; the errors of all failed groups are joined.
// The returned duration is the wall-clock time of the whole batch.
func (e *Executor) Run(ctx context.Context, set *Set, policy Policy) (time.Duration, error) {
	start := time.Now()
	tables := set.Tables()

	var (
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	limit := e.Workers
	if policy.Serial || limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)

	for _, table := range tables {
		table := table
		cmds := set.Group(table)
		g.Go(func() error {
			err := ctx.Err()
			if err != nil {
				err = fmt.Errorf("table %s skipped: %w", table, err)
			} else {
				err = e.runGroup(ctx, cmds, policy.Tx)
			}
			if err != nil {
				fail(err)
			}
			if e.OnGroup != nil {
				e.OnGroup(table, err)
			}
			return nil
		})
	}
	g.Wait()

	return time.Since(start), errors.Join(errs...)
}

func (e *Executor) runGroup(ctx context.Context, cmds []Command, txOpts *sql.TxOptions) error {
	if len(cmds) == 0 {
		return nil
	}
	conn, err := e.Conns(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for table %s: %w", cmds[0].Table, err)
	}
	defer conn.Close()

	if txOpts != nil {
		if tc, ok := conn.(txConn); ok {
			return e.runInTx(ctx, tc, cmds, txOpts)
		}
	}

	for _, cmd := range cmds {
		if err := e.exec(ctx, conn, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) runInTx(ctx context.Context, conn txConn, cmds []Command, txOpts *sql.TxOptions) error {
	tx, err := conn.BeginTx(ctx, txOpts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for table %s: %w", cmds[0].Table, err)
	}
	defer tx.Rollback()

	for _, cmd := range cmds {
		if err := e.exec(ctx, tx, cmd); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		last := cmds[len(cmds)-1]
		return &ExecError{Table: last.Table, Description: "Commit after " + last.Description, SQL: last.SQL, Err: err}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (e *Executor) exec(ctx context.Context, conn execer, cmd Command) error {
	if _, err := conn.ExecContext(ctx, cmd.SQL); err != nil {
		return &ExecError{Table: cmd.Table, Description: cmd.Description, SQL: cmd.SQL, Err: err}
	}
	if e.Logger != nil {
		e.Logger.Printf("[DDL] %s", cmd.Description)
	}
	return nil
}
