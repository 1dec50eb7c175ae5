package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"db-image/internal/catalog"
	"db-image/internal/command"
	"db-image/internal/dialect"
	"db-image/internal/filter"
)

var (
	cfgFile string
	dsn     string
	driver  string
	ignored string
	workers int

	DB         *sql.DB
	DriverName string
	Dialect    dialect.Dialect
	Executor   *command.Executor
)

var RootCmd = &cobra.Command{
	Use:   "db-image",
	Short: "Prepares a database for bulk imports",
	Long: `
  ____  ____    ___ __  __    _    ____ _____
 |  _ \| __ )  |_ _|  \/  |  / \  / ___| ____|
 | | | |  _ \   | || |\/| | / _ \| |  _|  _|
 | |_| | |_) |  | || |  | |/ ___ \ |_| | |___
 |____/|____/  |___|_|  |_/_/   \_\____|_____|

DB IMAGE - constraint, index and table preparation for bulk imports
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := resolveDBConfig()
		if err != nil {
			return err
		}

		DB, err = sql.Open(config.Driver, config.DSN)
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		if err := DB.PingContext(cmd.Context()); err != nil {
			return fmt.Errorf("failed to connect to db: %w", err)
		}
		DriverName = config.Driver
		fmt.Printf("🦅 Connected to %s (%s)\n", config.Name, config.Driver)

		parallelism := viper.GetInt("settings.parallelism")
		Executor = command.NewExecutor(command.FromDB(DB), parallelism)

		cat := catalog.New(DB, DriverName)
		Dialect = dialect.GetDialect(DriverName, dialect.Env{
			Catalog:  cat,
			Executor: Executor,
			Ignored:  filter.NewIgnoredTables(viper.GetString("settings.ignored_tables")),
			ReadOnly: cat.ReadOnly(),
			Out:      os.Stdout,
			Logger:   log.Default(),
		})
		Dialect.SetupConnectionDefaults(DB, Executor.Workers)
		log.Printf("Using Dialect: %s (%d workers)\n", Dialect.Name(), Executor.Workers)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if DB == nil {
			return nil
		}
		return DB.Close()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./db-image.yaml)")
	RootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database Source Name (DSN or URL)")
	RootCmd.PersistentFlags().StringVar(&driver, "driver", "", "database/sql driver name (derived from the DSN URL when empty)")
	RootCmd.PersistentFlags().StringVar(&ignored, "ignored-tables", "", "comma separated tables never touched")
	RootCmd.PersistentFlags().IntVarP(&workers, "parallelism", "p", 0, "number of concurrent table groups")

	viper.BindPFlag("database.dsn", RootCmd.PersistentFlags().Lookup("dsn"))
	viper.BindPFlag("database.driver", RootCmd.PersistentFlags().Lookup("driver"))
	viper.BindPFlag("settings.ignored_tables", RootCmd.PersistentFlags().Lookup("ignored-tables"))
	viper.BindPFlag("settings.parallelism", RootCmd.PersistentFlags().Lookup("parallelism"))
	viper.BindEnv("settings.ignored_tables", "IGNORED_TABLES")

	viper.SetDefault("settings.parallelism", 4)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// next to the executable first, then the working directory
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		viper.AddConfigPath(".")

		viper.SetConfigName("db-image")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
