// Package main provides the Eco-Nutri administration CLI
package main

import (
	"fmt"
	"os"

	"github.com/econutri/tracker/internal/infrastructure/config"
	"github.com/econutri/tracker/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "manage",
	Short: "Eco-Nutri administration tool",
	Long: `Administer the Eco-Nutri recipe catalog database.

Available commands:
  migrate - Apply, roll back or inspect schema migrations
  seed    - Load the ingredient catalog and demo recipes`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: config.yaml in ., ./config or /etc/econutri)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

// loadEnvironment reads configuration and builds the command logger
func loadEnvironment() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Format:      "console",
		Development: cfg.App.Debug,
	})
	if err != nil {
		return nil, nil, err
	}

	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
