// Command gymctl is the operator tool for the gym website backend.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/gymsite/backend/internal/config"
	"github.com/gymsite/backend/internal/database"
	"github.com/gymsite/backend/internal/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env is what every command needs: configuration, an open database and the logger
type env struct {
	cfg *config.Config
	db  *sql.DB
}

// newEnv reads the config and opens the database. The caller must defer env.Close().
func newEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	db, err := database.Open(cfg.Database.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &env{cfg: cfg, db: db}, nil
}

func (e *env) Close() {
	e.db.Close()
	logger.Sync()
}

// withEnv adapts a command body that needs an env to cobra's RunE
func withEnv(run func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		return run(cmd.Context(), e, cmd, args)
	}
}

var rootCmd = &cobra.Command{
	Use:          "gymctl",
	Short:        "Operator tool for the gym website backend",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateDownCmd.Flags().IntP("steps", "n", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(migrateStatusCmd)

	rootCmd.AddCommand(seedGalleryCmd)
	seedGalleryCmd.Flags().StringP("manifest", "f", "gallery.toml", "TOML manifest listing the files to import")

	rootCmd.AddCommand(renumberCmd)
	renumberCmd.Flags().Bool("dry-run", false, "Print the new positions without writing them")

	rootCmd.AddCommand(createAccountCmd)
	createAccountCmd.Flags().String("name", "", "Display name")
	createAccountCmd.Flags().String("email", "", "Email used to log in")
	createAccountCmd.Flags().Bool("admin", false, "Promote the new account to admin unless it became the super-admin")
	createAccountCmd.MarkFlagRequired("name")
	createAccountCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(setRoleCmd)
	setRoleCmd.Flags().String("email", "", "Email of the account")
	setRoleCmd.Flags().String("role", "", "New role: user or admin")
	setRoleCmd.MarkFlagRequired("email")
	setRoleCmd.MarkFlagRequired("role")
}
