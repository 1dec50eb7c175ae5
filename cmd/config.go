package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"github.com/xo/dburl"
)

type DBConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Active bool   `mapstructure:"active"`
}

// ErrNoActiveDB is returned when no databases entry is marked active.
var ErrNoActiveDB = errors.New("no active database found in config (set active: true)")

// GetActiveDBConfig returns the currently active database configuration.
func GetActiveDBConfig() (*DBConfig, error) {
	var configs []DBConfig

	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, fmt.Errorf("failed to parse databases config: %w", err)
	}

	var activeConfig *DBConfig
	count := 0

	for i := range configs {
		if configs[i].Active {
			activeConfig = &configs[i]
			count++
		}
	}

	if count == 0 {
		return nil, ErrNoActiveDB
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple active databases found (only one can be active)")
	}

	return activeConfig, nil
}

// resolveDBConfig prefers the active entry of databases and falls back to
// database.dsn / database.driver when no entry is active. A missing driver is
// derived from the DSN.
func resolveDBConfig() (*DBConfig, error) {
	config, err := GetActiveDBConfig()
	if err != nil && !errors.Is(err, ErrNoActiveDB) {
		return nil, err
	}
	if err != nil {
		connStr := viper.GetString("database.dsn")
		if connStr == "" {
			return nil, fmt.Errorf("%w; database.dsn is required otherwise (via flag or config)", err)
		}
		config = &DBConfig{
			Name:   "command line",
			Driver: viper.GetString("database.driver"),
			DSN:    connStr,
			Active: true,
		}
	}

	if config.Driver == "" {
		driverName, driverDSN, err := detectDriver(config.DSN)
		if err != nil {
			return nil, err
		}
		config.Driver, config.DSN = driverName, driverDSN
	}
	config.Driver = normalizeDriver(config.Driver)
	if config.Name == "" {
		config.Name = config.Driver
	}
	return config, nil
}

// detectDriver maps a database URL such as postgres://... or sqlserver://...
// to the driver name and the DSN that driver expects.
func detectDriver(connStr string) (string, string, error) {
	u, err := dburl.Parse(connStr)
	if err != nil {
		return "", "", fmt.Errorf("cannot derive driver from DSN (set database.driver): %w", err)
	}
	return u.Driver, u.DSN, nil
}

// normalizeDriver maps aliases to the names the linked drivers register.
func normalizeDriver(name string) string {
	switch name {
	case "sqlite3", "file":
		return "sqlite"
	case "postgresql", "pgsql":
		return "postgres"
	case "mssql":
		return "sqlserver"
	}
	return name
}
