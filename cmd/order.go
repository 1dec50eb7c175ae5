package cmd

import (
	"context"
	"log"

	"db-image/internal/dialect"
	"db-image/internal/schema"
)

// loadOrder returns the importable tables, referenced tables first.
func loadOrder(ctx context.Context, d dialect.Dialect) ([]string, error) {
	tables, err := d.ListImportableTables(ctx)
	if err != nil {
		return nil, err
	}
	deps, err := d.ListTableDependencies(ctx)
	if err != nil {
		return nil, err
	}
	return schema.Names(schema.LoadOrder(schema.Build(tables, deps), log.Default())), nil
}
