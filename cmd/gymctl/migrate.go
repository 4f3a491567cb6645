package main

import (
	"context"
	"fmt"

	"github.com/gymsite/backend/internal/database/migrations"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		if err := migrations.MigrateUp(e.db, e.cfg.Database.Driver); err != nil {
			return err
		}
		return printStatus(cmd, e)
	}),
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		if err := migrations.MigrateDown(e.db, e.cfg.Database.Driver, steps); err != nil {
			return err
		}
		return printStatus(cmd, e)
	}),
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema version",
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		return printStatus(cmd, e)
	}),
}

func printStatus(cmd *cobra.Command, e *env) error {
	status, err := migrations.GetStatus(e.db, e.cfg.Database.Driver)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Driver:  %s\n", e.cfg.Database.Driver)
	fmt.Fprintf(out, "Version: %d (latest %d)\n", status.Version, status.Latest)
	if status.Dirty {
		fmt.Fprintln(out, "State:   dirty, fix the failed migration and force the version")
	} else if status.Pending() {
		fmt.Fprintln(out, "State:   pending migrations")
	} else {
		fmt.Fprintln(out, "State:   up to date")
	}
	return nil
}
