package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-builder/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending PostgreSQL migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if err := db.Migrate(cmd.Context(), cfg.Database.URL); err != nil {
		return err
	}
	version, err := db.MigrationVersion(cmd.Context(), cfg.Database.URL)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database schema at version %d\n", version)
	return nil
}
