package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"db-image/internal/command"
	"db-image/internal/dialect"
	"db-image/internal/filter"
)

var cleanSerial bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean all data from the importable tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		tables, err := loadOrder(ctx, Dialect)
		if err != nil {
			return err
		}
		if len(tables) == 0 {
			log.Println("No tables to clean.")
			return nil
		}
		return cleanDatabase(ctx, Dialect, tables)
	},
}

func init() {
	RootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVar(&cleanSerial, "serial", false, "Clean one table at a time")
}

// cleanDatabase empties tables in reverse load order with constraints switched off.
func cleanDatabase(ctx context.Context, d dialect.Dialect, tables []string) error {
	active := filter.NewTables(tables)

	log.Println("Disabling Foreign Key Checks...")
	if _, err := d.ModifyConstraints(ctx, active, false); err != nil {
		log.Printf("Warning: Failed to disable constraints: %v. Continuing...\n", err)
	}

	set, err := cleanCommands(ctx, d, tables)
	if err != nil {
		return err
	}

	stop := startProgress("clean", len(set.Tables()))
	_, cleanErr := Executor.Run(ctx, set, command.Policy{Serial: cleanSerial})
	stop()

	log.Println("Enabling Foreign Key Checks...")
	_, enableErr := d.ModifyConstraints(ctx, active, true)

	if err := errors.Join(cleanErr, enableErr); err != nil {
		return fmt.Errorf("clean failed: %w", err)
	}
	log.Println("Database Cleaned Successfully!")
	return nil
}

// cleanCommands builds one group per table. SQL Server identity tables are
// reseeded after the DELETE.
func cleanCommands(ctx context.Context, d dialect.Dialect, tables []string) (*command.Set, error) {
	var identities filter.Tables
	if ms, ok := d.(*dialect.MSSQLDialect); ok {
		var err error
		if identities, err = ms.Identity.Resolve(ctx); err != nil {
			return nil, err
		}
	}

	set := command.NewSet()
	for i := len(tables) - 1; i >= 0; i-- {
		table := tables[i]
		set.Add(table, "Clean table "+table, d.TruncateTableStatement(table))
		if identities.Contains(table) {
			set.Add(table, "Reseed identity of table "+table,
				fmt.Sprintf("DBCC CHECKIDENT ('%s', RESEED, 0)", strings.ReplaceAll(table, "'", "''")))
		}
	}
	return set, nil
}
