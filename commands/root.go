// Package commands implements the cashflow CLI.
package commands

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/omarqouqas/cashflowforecaster/buildinfo"
	"github.com/omarqouqas/cashflowforecaster/config"
	"github.com/omarqouqas/cashflowforecaster/store/sqlite"
)

type globalFlags struct {
	configPath string
	dbDriver   string
	dbDSN      string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "cashflow",
		Short:   "Day-by-day cash flow forecasting",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", os.Getenv("CASHFLOW_CONFIG"), "path to cashflow.yaml")
	rootCmd.PersistentFlags().StringVar(&g.dbDriver, "db-driver", "", "override database.driver (sqlite3 or postgres)")
	rootCmd.PersistentFlags().StringVar(&g.dbDSN, "db", "", "override database.dsn")

	rootCmd.AddCommand(newServeCommand(g))
	rootCmd.AddCommand(newForecastCommand(g))
	rootCmd.AddCommand(newAffordCommand())
	rootCmd.AddCommand(newJobsCommand(g))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}

// load reads the configuration and applies flag overrides.
func (g *globalFlags) load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	if g.dbDriver != "" {
		cfg.Database.Driver = g.dbDriver
	}
	if g.dbDSN != "" {
		cfg.Database.DSN = g.dbDSN
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, cfg.Log.NewLogger(), nil
}

func openStore(cfg *config.Config) (*sqlite.Store, error) {
	dsn := cfg.Database.DSN
	if cfg.Database.Driver == sqlite.DriverSQLite {
		return sqlite.New(dsn)
	}
	store, err := sqlite.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.Database.Driver, err)
	}
	return store, nil
}
