package main

import (
	"fmt"
	"strconv"

	"github.com/econutri/tracker/internal/infrastructure/container"
	"github.com/econutri/tracker/internal/infrastructure/persistence/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd is the parent of the schema migration commands
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *migrations.Migrator, _ []string) error {
		return m.Up()
	}),
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *migrations.Migrator, _ []string) error {
		return m.Down()
	}),
}

var migrateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Roll back every migration",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *migrations.Migrator, _ []string) error {
		return m.Reset()
	}),
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *migrations.Migrator, _ []string) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		return nil
	}),
}

var migrateForceCmd = &cobra.Command{
	Use:   "force VERSION",
	Short: "Set the schema version without running migrations",
	Long: `Set the recorded schema version and clear the dirty flag.

Use after fixing a migration that failed halfway.`,
	Args: cobra.ExactArgs(1),
	RunE: withMigrator(func(m *migrations.Migrator, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return m.Force(version)
	}),
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateResetCmd, migrateVersionCmd, migrateForceCmd)
}

// withMigrator runs fn against a migrator for the configured database
func withMigrator(fn func(m *migrations.Migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		cfg, log, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		m, err := container.NewMigrator(cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := m.Close(); err != nil {
				log.Warn("Failed to close migrator", zap.Error(err))
			}
		}()

		return fn(m, args)
	}
}
