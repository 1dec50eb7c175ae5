package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"

	"db-image/internal/dialect"
	"db-image/internal/filter"
)

type toggleFunc func(ctx context.Context, tables dialect.TableSet, enable bool) (time.Duration, error)

var constraintsCmd = newToggleCmd("constraints", "Enable or disable foreign key constraints", func(ctx context.Context, tables dialect.TableSet, enable bool) (time.Duration, error) {
	return Dialect.ModifyConstraints(ctx, tables, enable)
})

var indexesCmd = newToggleCmd("indexes", "Enable or disable secondary indexes", func(ctx context.Context, tables dialect.TableSet, enable bool) (time.Duration, error) {
	return Dialect.ModifyIndexes(ctx, tables, enable)
})

func init() {
	RootCmd.AddCommand(constraintsCmd)
	RootCmd.AddCommand(indexesCmd)
}

func newToggleCmd(what, short string, fn toggleFunc) *cobra.Command {
	return &cobra.Command{
		Use:       what + " enable|disable",
		Short:     short,
		ValidArgs: []string{"enable", "disable"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			enable := args[0] == "enable"

			tables, err := Dialect.ListImportableTables(cmd.Context())
			if err != nil {
				return err
			}
			return runToggle(cmd.Context(), fmt.Sprintf("%s %s", args[0], what), tables, enable, fn)
		},
	}
}

// runToggle applies fn to tables with a progress bar advancing per table group.
func runToggle(ctx context.Context, label string, tables []string, enable bool, fn toggleFunc) error {
	if len(tables) == 0 {
		log.Println("No tables to process.")
		return nil
	}

	stop := startProgress(label, len(tables))
	elapsed, err := fn(ctx, filter.NewTables(tables), enable)
	stop()

	if err != nil {
		return fmt.Errorf("%s failed: %w", label, err)
	}
	log.Printf("Done: %s on %d tables. Time Elapsed: %s", label, len(tables), elapsed)
	return nil
}

// startProgress shows a bar fed by the executor until the returned func is called.
func startProgress(label string, total int) func() {
	p := uiprogress.New()
	p.Start()
	bar := p.AddBar(total).AppendCompleted().PrependElapsed()
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		return label + ": "
	})
	Executor.OnGroup = func(table string, err error) {
		bar.Incr()
	}

	return func() {
		Executor.OnGroup = nil
		// tables without constraints or indexes never form a group
		bar.Set(total)
		p.Stop()
	}
}
