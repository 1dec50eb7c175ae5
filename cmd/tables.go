package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables an import would load, in load order",
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := loadOrder(cmd.Context(), Dialect)
		if err != nil {
			return err
		}
		for i, t := range tables {
			fmt.Printf("[%02d] %s\n", i+1, t)
		}
		fmt.Printf("Total: %d tables\n", len(tables))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(tablesCmd)
}
