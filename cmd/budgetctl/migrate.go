package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budget/internal/storage"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := storage.RunMigrations(a.dbPath); err != nil {
				return err
			}
			return printVersion(cmd, a.dbPath)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := storage.RollbackMigrations(a.dbPath, steps); err != nil {
				return err
			}
			return printVersion(cmd, a.dbPath)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVersion(cmd, a.dbPath)
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

func printVersion(cmd *cobra.Command, dbPath string) error {
	version, dirty, err := storage.MigrationVersion(dbPath)
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d (%s)\n", dbPath, version, state)
	return nil
}
