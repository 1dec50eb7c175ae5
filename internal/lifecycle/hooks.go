// Package lifecycle notifies observers around a bulk import and around every
// imported table.
package lifecycle

import (
	"context"
	"database/sql"
	"reflect"
)

// Conn is the import connection of the table being loaded. Hooks issue
// their statements on it, never on a connection of their own.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Hook interface {
	ImportStarted(ctx context.Context) error
	ImportFinished(ctx context.Context) error
	BeforeImportTable(ctx context.Context, conn Conn, table string, info *TableInfo) error
	AfterImportTable(ctx context.Context, conn Conn, table string, info *TableInfo) error
}

// Hooks is an ordered list of observers, dispatched in registration order.
type Hooks struct {
	list []Hook
}

// New returns a list whose first hook is first, typically the dialect.
func New(first Hook, more ...Hook) *Hooks {
	h := &Hooks{}
	h.Add(first)
	h.Add(more...)
	return h
}

// Add appends hooks, silently skipping ones already registered.
func (h *Hooks) Add(hooks ...Hook) {
	for _, hook := range hooks {
		if hook == nil || h.contains(hook) {
			continue
		}
		h.list = append(h.list, hook)
	}
}

func (h *Hooks) contains(hook Hook) bool {
	if !reflect.TypeOf(hook).Comparable() {
		return false
	}
	for _, existing := range h.list {
		if reflect.TypeOf(existing).Comparable() && existing == hook {
			return true
		}
	}
	return false
}

func (h *Hooks) Len() int {
	return len(h.list)
}

func (h *Hooks) ImportStarted(ctx context.Context) error {
	return h.each(EventImportStarted, "", func(hook Hook) error {
		return hook.ImportStarted(ctx)
	})
}

func (h *Hooks) ImportFinished(ctx context.Context) error {
	return h.each(EventImportFinished, "", func(hook Hook) error {
		return hook.ImportFinished(ctx)
	})
}

func (h *Hooks) BeforeImportTable(ctx context.Context, conn Conn, table string, info *TableInfo) error {
	return h.each(EventBeforeTable, table, func(hook Hook) error {
		return hook.BeforeImportTable(ctx, conn, table, info)
	})
}

func (h *Hooks) AfterImportTable(ctx context.Context, conn Conn, table string, info *TableInfo) error {
	return h.each(EventAfterTable, table, func(hook Hook) error {
		return hook.AfterImportTable(ctx, conn, table, info)
	})
}

func (h *Hooks) each(event Event, table string, fn func(Hook) error) error {
	for i, hook := range h.list {
		if err := fn(hook); err != nil {
			return &DispatchError{Event: event, Hook: i, Table: table, Err: err}
		}
	}
	return nil
}

// Nop implements Hook with no side effects. Embed it to observe only some events.
type Nop struct{}

func (Nop) ImportStarted(context.Context) error  { return nil }
func (Nop) ImportFinished(context.Context) error { return nil }
func (Nop) BeforeImportTable(context.Context, Conn, string, *TableInfo) error {
	return nil
}
func (Nop) AfterImportTable(context.Context, Conn, string, *TableInfo) error {
	return nil
}
